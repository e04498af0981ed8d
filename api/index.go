package handler

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/roomduty/roomduty-api-go/internal/app"
	"github.com/roomduty/roomduty-api-go/pkg/config"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)

	// No reminder loop here; use POST /day-notes/send-reminders
	a, err := app.New(context.Background(), cfg, cfg.NewLogger(os.Stderr))
	if err != nil {
		log.Fatalf("could not start: %v", err)
	}

	if r, err = a.Router(); err != nil {
		log.Fatalf("could not build router: %v", err)
	}
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
