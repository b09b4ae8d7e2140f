package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ecg-viewer/auth"
	"ecg-viewer/labels"
	"ecg-viewer/models"
)

// GetAnnotation returns the current annotation document, or the empty default one, together
// with the patient summary and physician report.
// GET /api/anno/:id
func (h *Handler) GetAnnotation(c *gin.Context) {
	id, ok := recordingID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	rec, err := h.store.GetRecording(ctx, id)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recording not found"})
			return
		}
		h.logger.Error("Failed to load recording", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	var data any = labels.DefaultDocument()
	anno, err := h.store.GetAnnotation(ctx, id)
	switch {
	case err == nil:
		var doc any
		if jsonErr := json.Unmarshal(anno.Payload, &doc); jsonErr != nil {
			h.logger.Warn("Stored annotation is not valid JSON", "id", id, "error", jsonErr)
		} else if doc != nil {
			data = doc
		}
	case isNotFound(err):
	default:
		h.logger.Error("Failed to load annotation", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": data, "report": formatReport(rec)})
}

// SetAnnotation replaces the annotation document of a recording. Labels are derived from view
// names server-side. The body is either JSON or a legacy form whose only key is the JSON text.
// POST /api/anno/:id
func (h *Handler) SetAnnotation(c *gin.Context) {
	id, ok := recordingID(c)
	if !ok {
		return
	}

	raw, err := annotationBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var doc []map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "annotation is not a list of groups: " + err.Error()})
		return
	}
	if err := h.labels.Relabel(doc); err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, labels.ErrUnknownName) && !errors.Is(err, labels.ErrMalformed) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	user := auth.CurrentUser(c)
	if err := h.store.ReplaceAnnotation(c.Request.Context(), id, user, payload, h.now()); err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recording not found"})
			return
		}
		h.logger.Error("Failed to save annotation", "id", id, "user", user, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save annotation"})
		return
	}

	h.logger.Info("Annotation replaced", "id", id, "user", user, "groups", len(doc))
	c.JSON(http.StatusOK, gin.H{"data": doc})
}

// GetAnnotationHistory lists the documents overwritten so far.
// GET /api/anno/:id/history
func (h *Handler) GetAnnotationHistory(c *gin.Context) {
	id, ok := recordingID(c)
	if !ok {
		return
	}
	history, err := h.store.AnnotationHistory(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load annotation history", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history})
}

func annotationBody(c *gin.Context) ([]byte, error) {
	if c.ContentType() == gin.MIMEPOSTForm {
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
		if len(c.Request.PostForm) != 1 {
			return nil, fmt.Errorf("expected a single form key, got %d", len(c.Request.PostForm))
		}
		for key := range c.Request.PostForm {
			return []byte(key), nil
		}
	}

	raw, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errors.New("empty annotation")
	}
	return raw, nil
}

func formatReport(rec *models.Recording) string {
	sex := "Female"
	if strings.EqualFold(rec.Sex, "m") || strings.EqualFold(rec.Sex, "male") {
		sex = "Male"
	}
	summary := fmt.Sprintf("Sex: %s, age: %d.<br><br>", sex, rec.Age)
	if strings.TrimSpace(rec.Report) == "" {
		return summary + "<b>No physician report</b>"
	}
	return summary + "<b>Physician report:</b> " + rec.Report
}
