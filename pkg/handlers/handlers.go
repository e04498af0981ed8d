package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roomduty/roomduty-api-go/pkg/auth"
	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/gcal"
	"github.com/roomduty/roomduty-api-go/pkg/metrics"
	"github.com/roomduty/roomduty-api-go/pkg/reminder"
	"github.com/roomduty/roomduty-api-go/pkg/scheduler"
	"github.com/roomduty/roomduty-api-go/pkg/service"
	"github.com/roomduty/roomduty-api-go/pkg/store"
)

const (
	userKey   = "user"
	apiKeyKey = "apiKey"
)

// announceTimeout bounds the delivery of one note announcement
const announceTimeout = 2 * time.Minute

// Handler contains dependencies for the route handlers
type Handler struct {
	Store           *store.Store
	Service         *service.ScheduleService
	Tokens          *auth.TokenIssuer
	APIMasterSecret string
	// Reminders is optional; without it notes are saved silently
	Reminders *reminder.Job
	// Publisher is optional; without it publishing answers 503
	Publisher *gcal.Publisher
	TimeZone  string
	Metrics   *metrics.Collector
	Logger    *slog.Logger
	// Now is the clock used for "today"; defaults to time.Now
	Now func() time.Time

	pending sync.WaitGroup
}

// background runs fn outside the request with its own deadline
func (h *Handler) background(fn func(ctx context.Context)) {
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), announceTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until background work started by requests has finished
func (h *Handler) Wait() {
	h.pending.Wait()
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// fail maps an error to its status code and writes the {"error": ...} body
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrInvalidRoster),
		errors.Is(err, scheduler.ErrInvalidTaskList),
		errors.Is(err, scheduler.ErrInvalidMonth),
		errors.Is(err, scheduler.ErrInvalidYear),
		errors.Is(err, store.ErrInvalidSettings),
		errors.Is(err, store.ErrInvalidNote),
		errors.Is(err, store.ErrInvalidDate),
		errors.Is(err, store.ErrUserExists),
		errors.Is(err, store.ErrKeyExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		h.logger().Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Database error"})
	}
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

// AuthMiddleware verifies the member session token and loads the user
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Tokens.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		user, err := h.Store.UserByID(c.Request.Context(), claims.UserID())
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			h.fail(c, err)
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAccess lets through approved members and admins
func (h *Handler) RequireAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !(user.HasAccess || user.IsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Your account is pending approval"})
			return
		}
		c.Next()
	}
}

// RequireAdmin lets through admins only
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key, tracks it and enforces its daily rate limit
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.APIMasterSecret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "API keys are not configured"})
			return
		}

		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		keyID, err := auth.VerifyHMACKey(h.APIMasterSecret, key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		ctx := c.Request.Context()
		apiKey, err := h.Store.UseKey(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			h.logger().Warn("unknown or revoked API key", "name", keyID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key revoked or unknown"})
			return
		}
		if err != nil {
			h.fail(c, err)
			c.Abort()
			return
		}

		used, err := h.Store.RequestsToday(ctx, apiKey.ID)
		if err != nil {
			h.fail(c, err)
			c.Abort()
			return
		}
		if apiKey.RateLimit > 0 && used >= apiKey.RateLimit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Daily rate limit exceeded"})
			return
		}

		c.Set(apiKeyKey, apiKey)
		c.Next()
	}
}

func currentUser(c *gin.Context) *database.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*database.User)
	return user
}

func currentKey(c *gin.Context) *database.APIKey {
	v, ok := c.Get(apiKeyKey)
	if !ok {
		return nil
	}
	key, _ := v.(*database.APIKey)
	return key
}
