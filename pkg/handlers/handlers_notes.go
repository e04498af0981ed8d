package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roomduty/roomduty-api-go/pkg/scheduler"
)

// SetDayNote upserts the note for a date and announces it to the household in the background
func (h *Handler) SetDayNote(c *gin.Context) {
	var req struct {
		Date string `json:"date" binding:"required"`
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user := currentUser(c)
	note, err := h.Store.SetNote(ctx, req.Date, req.Note, &user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	if h.Reminders != nil {
		h.background(func(ctx context.Context) {
			if _, err := h.Reminders.AnnounceNote(ctx, note); err != nil {
				h.logger().Warn("note announcement failed", "date", note.Date, "error", err)
			}
		})
	}
	c.JSON(http.StatusOK, note)
}

// GetDayNote returns the note of a date
func (h *Handler) GetDayNote(c *gin.Context) {
	note, err := h.Store.GetNote(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// DeleteDayNote removes the note of a date
func (h *Handler) DeleteDayNote(c *gin.Context) {
	if err := h.Store.DeleteNote(c.Request.Context(), c.Param("date")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Day note deleted successfully"})
}

// SendReminders runs one reminder pass for the notes days_ahead days from today
func (h *Handler) SendReminders(c *gin.Context) {
	if h.Reminders == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Reminders are not configured"})
		return
	}

	daysAhead := 1
	if v := c.Query("days_ahead"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days_ahead must be a non-negative number"})
			return
		}
		daysAhead = n
	}

	date := scheduler.Date(h.now()).AddDate(0, 0, daysAhead)
	summary, err := h.Reminders.SendFor(c.Request.Context(), date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
