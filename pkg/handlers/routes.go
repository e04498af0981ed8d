package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// NewRouter builds the gin engine with every route of the API.
// An empty origin list disables CORS; "*" allows any origin.
func NewRouter(h *Handler, allowedOrigins []string) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if len(allowedOrigins) > 0 {
		mw, err := corsMiddleware(allowedOrigins)
		if err != nil {
			return nil, err
		}
		r.Use(mw)
	}
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	Routes(r, h)
	return r, nil
}

func corsMiddleware(origins []string) (gin.HandlerFunc, error) {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			break
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cors.New(cfg), nil
}

// Routes registers the API on r
func Routes(r gin.IRouter, h *Handler) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Room Duty Scheduler API",
			"version": Version,
		})
	})
	r.GET("/healthz", h.Health)

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/settings", h.GetSettings)
	r.GET("/schedule/:year", h.GetSchedule)
	r.GET("/schedule/day/:date", h.ScheduleDay)

	// Member Endpoints
	member := r.Group("/")
	member.Use(h.AuthMiddleware(), h.RequireAccess())
	{
		member.GET("/auth/me", h.Me)
		member.POST("/schedule", h.GenerateSchedule)
		member.GET("/schedule/:year/csv", h.ScheduleCSV)
		member.POST("/day-notes", h.SetDayNote)
		member.GET("/day-notes/:date", h.GetDayNote)
		member.DELETE("/day-notes/:date", h.DeleteDayNote)
	}

	// Admin Endpoints
	admin := r.Group("/")
	admin.Use(h.AuthMiddleware(), h.RequireAdmin())
	{
		admin.POST("/settings", h.SaveSettings)
		admin.POST("/settings/validate", h.ValidateSettings)
		admin.POST("/auth/reset-password", h.ResetPassword)
		admin.POST("/day-notes/send-reminders", h.SendReminders)
		admin.POST("/schedule/:year/publish", h.PublishSchedule)

		admin.GET("/admin/users", h.ListUsers)
		admin.POST("/admin/users/:id/access", h.SetUserAccess)
		admin.POST("/admin/keys", h.GenerateKey)
		admin.GET("/admin/keys", h.ListKeys)
		admin.PUT("/admin/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/admin/keys/:id", h.RevokeKey)
		admin.GET("/admin/usage/:id", h.GetUsage)
	}

	// Machine clients
	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/schedule", h.APISchedule)
		api.GET("/today", h.APIToday)
		api.GET("/usage", h.GetMyUsage)
	}
}
