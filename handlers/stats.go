package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetStats reports review progress: finished recordings per day over the last days plus
// overall totals.
// GET /api/stats?days=31
func (h *Handler) GetStats(c *gin.Context) {
	days := h.opts.StatsDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 366 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 366"})
			return
		}
		days = n
	}

	ctx := c.Request.Context()
	now := h.now()

	perDay, err := h.store.CountDonePerDay(ctx, days, now)
	if err != nil {
		h.logger.Error("Failed to count finished recordings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summary, err := h.store.Summary(ctx, now)
	if err != nil {
		h.logger.Error("Failed to summarize recordings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"per_day": perDay,
		"total":   summary.Total,
		"done":    summary.Done,
		"pending": summary.Pending,
		"held":    summary.Held,
	})
}
