package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/store"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := &database.User{ID: "u-1", Email: "a@example.com", DisplayName: "Asha", HasAccess: true}

	token, err := issuer.CreateToken(user)
	require.NoError(t, err)

	claims, err := issuer.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID())
	assert.Equal(t, "Asha", claims.DisplayName)
	assert.True(t, claims.HasAccess)
	assert.False(t, claims.IsAdmin)
}

func TestVerifyToken_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.CreateToken(&database.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokenIssuer("other-secret", time.Hour).VerifyToken(token)
	assert.Error(t, err)

	expired := NewTokenIssuer("test-secret", -time.Minute)
	old, err := expired.CreateToken(&database.User{ID: "u-1"})
	require.NoError(t, err)
	_, err = issuer.VerifyToken(old)
	assert.Error(t, err)

	_, err = issuer.VerifyToken("garbage")
	assert.Error(t, err)
}

func TestHMACKey(t *testing.T) {
	key := GenerateHMACKey("master", "kiosk")

	id, err := VerifyHMACKey("master", key)
	require.NoError(t, err)
	assert.Equal(t, "kiosk", id)

	_, err = VerifyHMACKey("other", key)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = VerifyHMACKey("master", "no-dot")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)

	_, err = VerifyHMACKey("master", "a.b.c")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)
}

func TestEnsureAdminExists(t *testing.T) {
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	st := store.New(db)
	ctx := context.Background()

	require.NoError(t, EnsureAdminExists(ctx, st, AdminAccount{Email: "Root@Example.com", Password: "pw123456"}))
	require.NoError(t, EnsureAdminExists(ctx, st, AdminAccount{Email: "second@example.com"}))

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "root@example.com", users[0].Email)
	assert.True(t, users[0].IsAdmin)
	assert.True(t, users[0].HasAccess)
	assert.True(t, CheckPasswordHash("pw123456", users[0].PasswordHash))
}
