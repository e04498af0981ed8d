package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roomduty/roomduty-api-go/pkg/models"
	"github.com/roomduty/roomduty-api-go/pkg/store"
)

// GetSettings returns the saved roster and task list
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.Store.GetSettings(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SaveSettings replaces the roster and task list
func (h *Handler) SaveSettings(c *gin.Context) {
	var input models.Settings
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.Store.SaveSettings(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// ValidateSettings checks a roster and task list without saving it
func (h *Handler) ValidateSettings(c *gin.Context) {
	var input models.Settings
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	cleaned, err := store.ValidateSettings(input)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"person_count":       len(cleaned.Persons),
			"task_count":         len(cleaned.Tasks),
			"doubled_up_persons": len(cleaned.Tasks) > len(cleaned.Persons),
		},
	})
}
