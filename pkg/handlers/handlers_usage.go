package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APISchedule generates a schedule for a machine client and records the usage
func (h *Handler) APISchedule(c *gin.Context) {
	req, ok := h.bindScheduleRequest(c)
	if !ok {
		return
	}

	result, err := h.Service.Generate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	assignments := 0
	for _, d := range result.Days {
		assignments += len(d.Assignments)
	}
	h.recordUsage(c, len(result.Days), assignments)

	c.JSON(http.StatusOK, result)
}

// APIToday returns today's duty table
func (h *Handler) APIToday(c *gin.Context) {
	day, err := h.Service.Today(c.Request.Context(), h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.recordUsage(c, 1, len(day.Assignments))
	c.JSON(http.StatusOK, day)
}

// recordUsage adds the request to the key's daily usage row. Failures are logged only.
func (h *Handler) recordUsage(c *gin.Context, days, assignments int) {
	apiKey := currentKey(c)
	if apiKey == nil {
		return
	}
	if err := h.Store.RecordUsage(c.Request.Context(), apiKey.ID, days, assignments); err != nil {
		h.logger().Warn("usage not recorded", "key", apiKey.Name, "error", err)
	}
}

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKey := currentKey(c)
	if apiKey == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}

	usage, err := h.Store.UsageForKey(c.Request.Context(), apiKey.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	var totalRequests, totalDays, totalAssignments int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalDays += int64(u.TotalDays)
		totalAssignments += int64(u.TotalAssignments)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests":    totalRequests,
			"days":        totalDays,
			"assignments": totalAssignments,
		},
	})
}
