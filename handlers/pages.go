package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{})
}

// RecordingPage renders the viewer shell; the page fetches leads and annotations itself.
// GET /:id
func (h *Handler) RecordingPage(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"error": "Invalid recording id"})
		return
	}

	rec, err := h.store.GetRecording(c.Request.Context(), id)
	if err != nil {
		if isNotFound(err) {
			c.HTML(http.StatusNotFound, "error.html", gin.H{"error": "Recording not found"})
			return
		}
		h.logger.Error("Failed to load recording", "id", id, "error", err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"error": "Database error"})
		return
	}

	c.HTML(http.StatusOK, "file.html", gin.H{"index": rec.ID, "recording": rec})
}

// Health reports liveness and database reachability.
// GET /health
func (h *Handler) Health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.Error("Database ping failed", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"service":   "ecg-viewer",
		"timestamp": time.Now().UTC(),
	})
}
