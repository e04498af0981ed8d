package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := New(prometheus.NewRegistry(), "test")

	c.ScheduleGenerated(0, 365, time.Millisecond)
	c.ScheduleGenerated(3, 31, time.Millisecond)
	c.ScheduleGenerated(4, 30, time.Millisecond)
	c.GenerationFailed("invalid_roster")
	c.RemindersSent(4)
	c.EventsPublished(2, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.schedulesGenerated.WithLabelValues("year")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.schedulesGenerated.WithLabelValues("month")))
	assert.Equal(t, 426.0, testutil.ToFloat64(c.scheduleDays))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generationErrors.WithLabelValues("invalid_roster")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.remindersSent))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.eventsPublished.WithLabelValues("inserted")))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.ScheduleGenerated(0, 1, 0)
	c.GenerationFailed("x")
	c.PersistFailed()
	c.RemindersSent(1)
	c.EventsPublished(1, 1)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := New(nil, "")

	r := gin.New()
	r.Use(c.Middleware())
	r.GET("/ping", func(ctx *gin.Context) { ctx.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(c.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("/ping", "GET", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "roomduty_http_requests_total")
}
