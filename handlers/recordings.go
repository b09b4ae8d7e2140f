package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecg-viewer/auth"
	"ecg-viewer/database"
)

type recordingItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// FindRecordings lists recordings matching a recording or patient identifier.
// GET /api/find/:id
func (h *Handler) FindRecordings(c *gin.Context) {
	id := c.Param("id")

	recordings, err := h.store.ListRecordings(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list recordings", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, []recordingItem{})
		return
	}
	if len(recordings) == 0 {
		c.JSON(http.StatusNotFound, []recordingItem{})
		return
	}

	items := make([]recordingItem, 0, len(recordings))
	for _, rec := range recordings {
		short := rec.ID
		if len(short) > 8 {
			short = short[:8]
		}
		items = append(items, recordingItem{
			ID:    rec.ID,
			Title: short + " - " + rec.DateOfTest.Format(database.DayFormat),
		})
	}
	c.JSON(http.StatusOK, items)
}

// HoldRecording locks a recording for the current reviewer.
// POST /api/hold/:id
func (h *Handler) HoldRecording(c *gin.Context) {
	id, ok := recordingID(c)
	if !ok {
		return
	}
	user := auth.CurrentUser(c)
	now := h.now()
	until := now.Add(h.opts.HoldTTL)

	err := h.store.HoldRecording(c.Request.Context(), id, user, until, now)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"id": id, "hold_by": until, "blocked_by": user})
	case isNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Recording not found"})
	case errors.Is(err, database.ErrLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to hold recording", "id", id, "user", user, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}
