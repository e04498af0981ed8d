package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roomduty/roomduty-api-go/pkg/export"
	"github.com/roomduty/roomduty-api-go/pkg/models"
	"github.com/roomduty/roomduty-api-go/pkg/scheduler"
	"github.com/roomduty/roomduty-api-go/pkg/store"
)

// Health reports whether the database answers
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.Store.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// yearMonth reads the :year path parameter and the optional month query parameter
func yearMonth(c *gin.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number"})
		return 0, 0, false
	}
	month := 0
	if m := c.Query("month"); m != "" {
		if month, err = strconv.Atoi(m); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be a number"})
			return 0, 0, false
		}
	}
	return year, month, true
}

// bindScheduleRequest reads a generate body; an omitted year is the current one
func (h *Handler) bindScheduleRequest(c *gin.Context) (models.ScheduleRequest, bool) {
	var req models.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	if req.Year == 0 {
		req.Year = h.now().Year()
	}
	return req, true
}

// GenerateSchedule builds and stores the schedule for a year or month
func (h *Handler) GenerateSchedule(c *gin.Context) {
	req, ok := h.bindScheduleRequest(c)
	if !ok {
		return
	}

	result, err := h.Service.Generate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSchedule returns a previously generated schedule
func (h *Handler) GetSchedule(c *gin.Context) {
	year, month, ok := yearMonth(c)
	if !ok {
		return
	}

	result, err := h.Service.Get(c.Request.Context(), year, month)
	if errors.Is(err, store.ErrNotFound) {
		msg := fmt.Sprintf("Schedule for year %d not found", year)
		if month != 0 {
			msg = fmt.Sprintf("Schedule for year %d, month %d not found", year, month)
		}
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ScheduleDay computes the duty table of one date from the current settings
func (h *Handler) ScheduleDay(c *gin.Context) {
	date, err := scheduler.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": store.ErrInvalidDate.Error()})
		return
	}

	day, err := h.Service.Today(c.Request.Context(), date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// ScheduleCSV exports a stored schedule as CSV
func (h *Handler) ScheduleCSV(c *gin.Context) {
	year, month, ok := yearMonth(c)
	if !ok {
		return
	}

	result, err := h.Service.Get(c.Request.Context(), year, month)
	if err != nil {
		h.fail(c, err)
		return
	}

	out, err := export.CSV(result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render CSV"})
		return
	}

	filename := fmt.Sprintf("roomduty-%s.csv", models.ScheduleKey(year, month))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out))
}

// PublishSchedule generates a schedule and writes it to the shared Google calendar
func (h *Handler) PublishSchedule(c *gin.Context) {
	if h.Publisher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Calendar publishing is not configured"})
		return
	}
	year, month, ok := yearMonth(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	result, err := h.Service.Generate(ctx, models.ScheduleRequest{Year: year, Month: month})
	if err != nil {
		h.fail(c, err)
		return
	}

	report, err := h.Publisher.Publish(ctx, result, h.TimeZone)
	h.Metrics.EventsPublished(report.Inserted, report.Updated)
	if err != nil {
		h.logger().Error("calendar publish failed", "key", models.ScheduleKey(year, month), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Calendar publish failed", "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}
