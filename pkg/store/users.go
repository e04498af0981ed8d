package store

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/models"
)

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts a new user. Emails are unique, case-insensitively.
func (s *Store) CreateUser(ctx context.Context, email, displayName, passwordHash string, isAdmin, hasAccess bool) (*database.User, error) {
	email = NormalizeEmail(email)

	var count int64
	if err := s.DB.WithContext(ctx).Model(&database.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, wrap("checking user", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	user := &database.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		HasAccess:    hasAccess,
	}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, wrap("creating user", err)
	}
	return user, nil
}

// UserByEmail looks a user up by (normalised) email
func (s *Store) UserByEmail(ctx context.Context, email string) (*database.User, error) {
	var user database.User
	if err := s.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, wrap("fetching user", err)
	}
	return &user, nil
}

// UserByID looks a user up by id
func (s *Store) UserByID(ctx context.Context, id string) (*database.User, error) {
	var user database.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, wrap("fetching user", err)
	}
	return &user, nil
}

// ListUsers returns every user, oldest first
func (s *Store) ListUsers(ctx context.Context) ([]database.User, error) {
	var users []database.User
	if err := s.DB.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, wrap("listing users", err)
	}
	return users, nil
}

// AccessibleUsers returns the users allowed to use the app: approved members and admins
func (s *Store) AccessibleUsers(ctx context.Context) ([]database.User, error) {
	var users []database.User
	err := s.DB.WithContext(ctx).
		Where("has_access = ? OR is_admin = ?", true, true).
		Order("created_at").
		Find(&users).Error
	if err != nil {
		return nil, wrap("listing users", err)
	}
	return users, nil
}

// SetUserAccess grants or revokes a user's access
func (s *Store) SetUserAccess(ctx context.Context, id string, hasAccess bool) (*database.User, error) {
	user, err := s.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("has_access", hasAccess).Error; err != nil {
		return nil, wrap("updating user access", err)
	}
	user.HasAccess = hasAccess
	return user, nil
}

// UpdatePassword replaces the password hash of the user with the given email
func (s *Store) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	user, err := s.UserByEmail(ctx, email)
	if err != nil {
		return err
	}
	return wrap("updating password", s.DB.WithContext(ctx).Model(user).Update("password_hash", passwordHash).Error)
}

// CountAdmins returns how many admin users exist
func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&database.User{}).Where("is_admin = ?", true).Count(&count).Error
	return count, wrap("counting admins", err)
}

// PublicUser converts a user row to its client representation
func PublicUser(u *database.User) models.UserPublic {
	return models.UserPublic{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
		HasAccess:   u.HasAccess,
		CreatedAt:   u.CreatedAt,
	}
}
