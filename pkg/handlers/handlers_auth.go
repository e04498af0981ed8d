package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roomduty/roomduty-api-go/pkg/auth"
	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/models"
	"github.com/roomduty/roomduty-api-go/pkg/store"
)

// maxPasswordBytes is the bcrypt input limit
const maxPasswordBytes = 72

func validatePassword(password string) string {
	if len(password) < auth.MinPasswordLength {
		return "Password must be at least 6 characters"
	}
	if len(password) > maxPasswordBytes {
		return "Password must be at most 72 bytes"
	}
	return ""
}

// Register creates a member account awaiting admin approval
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required"`
		DisplayName string `json:"display_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := validatePassword(req.Password); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "display_name is required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}

	user, err := h.Store.CreateUser(c.Request.Context(), req.Email, req.DisplayName, hash, false, false)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger().Info("user registered", "email", user.Email)

	h.issueToken(c, http.StatusCreated, user)
}

// Login exchanges credentials for a session token. Members without access are refused.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Store.UserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !user.HasAccess && !user.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account is pending approval. Please wait for an admin to grant you access."})
		return
	}

	h.issueToken(c, http.StatusOK, user)
}

// Me returns the authenticated user
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, store.PublicUser(currentUser(c)))
}

// ResetPassword sets a new password for the user with the given email
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := validatePassword(req.NewPassword); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}
	if err := h.Store.UpdatePassword(c.Request.Context(), req.Email, hash); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (h *Handler) issueToken(c *gin.Context, status int, user *database.User) {
	token, err := h.Tokens.CreateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}
	c.JSON(status, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        store.PublicUser(user),
	})
}
