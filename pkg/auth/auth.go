package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/store"
)

var jwtAlgorithm = jwt.SigningMethodHS256

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidKeyFormat = errors.New("invalid key format")
	ErrInvalidSignature = errors.New("invalid signature")
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

// bcryptCost is a variable so tests can lower it
var bcryptCost = 12

// Claims represents the JWT claims of a member session
type Claims struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
	HasAccess   bool   `json:"has_access"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token
func (c *Claims) UserID() string {
	return c.Subject
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// TokenIssuer signs and verifies member session tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer for HS256 tokens valid for ttl
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// CreateToken creates a new JWT token for a user
func (t *TokenIssuer) CreateToken(user *database.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsAdmin:     user.IsAdmin,
		HasAccess:   user.HasAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(t.secret)
}

// VerifyToken verifies a JWT token
func (t *TokenIssuer) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// AdminAccount describes the bootstrap administrator
type AdminAccount struct {
	Email       string
	Password    string
	DisplayName string
}

// EnsureAdminExists creates the bootstrap admin when no admin user exists yet
func EnsureAdminExists(ctx context.Context, st *store.Store, admin AdminAccount) error {
	count, err := st.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if admin.Email == "" {
		admin.Email = "admin@roomduty.local"
	}
	if admin.Password == "" {
		admin.Password = "admin123"
	}
	if admin.DisplayName == "" {
		admin.DisplayName = "Admin"
	}

	hash, err := HashPassword(admin.Password)
	if err != nil {
		return err
	}

	if _, err := st.CreateUser(ctx, admin.Email, admin.DisplayName, hash, true, true); err != nil {
		return err
	}
	slog.Info("default admin user created", "email", store.NormalizeEmail(admin.Email))
	return nil
}

// GenerateHMACKey creates a signed API key using HMAC-SHA256
func GenerateHMACKey(secret, userID string) string {
	return userID + "." + sign(secret, userID)
}

// VerifyHMACKey validates an HMAC-signed API key and returns the id it was issued to
func VerifyHMACKey(secret, key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", ErrInvalidKeyFormat
	}

	userID := parts[0]
	providedSignature := parts[1]

	// Use constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(providedSignature), []byte(sign(secret, userID))) {
		return "", ErrInvalidSignature
	}

	return userID, nil
}

func sign(secret, userID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}
