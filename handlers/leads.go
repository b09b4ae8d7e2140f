package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecg-viewer/models"
	"ecg-viewer/waveform"
)

// GetLeads returns the normalized 12-lead matrix of a recording. Any pipeline failure yields a
// degraded {"data": {}} body so the viewer can show an empty chart.
// GET /api/leads/:id
func (h *Handler) GetLeads(c *gin.Context) {
	id, ok := recordingID(c)
	if !ok {
		return
	}

	rec, err := h.store.GetRecording(c.Request.Context(), id)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"data": gin.H{}})
			return
		}
		h.logger.Error("Failed to load recording", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"data": gin.H{}})
		return
	}

	src, err := h.source(rec)
	if err != nil {
		h.logger.Error("Recording has an unusable format", "id", id, "format", rec.Format, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"data": gin.H{}})
		return
	}

	opts := waveform.Options{Denoise: h.opts.Denoise, BandPass: h.opts.BandPass}
	if v := c.Query("denoise"); v != "" {
		if denoise, err := strconv.ParseBool(v); err == nil {
			opts.Denoise = denoise
		}
	}

	leads, err := h.leads.Leads(c.Request.Context(), src, opts)
	if err != nil {
		h.logger.Warn("Normalization failed",
			"id", id,
			"path", src.Path,
			"category", waveform.Category(err),
			"error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"data": gin.H{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leads})
}

// source resolves a stored path against the dataset directory. NumPy paths may be stored
// without their extension.
func (h *Handler) source(rec *models.Recording) (waveform.Source, error) {
	format, err := waveform.ParseFormat(rec.Format)
	if err != nil {
		return waveform.Source{}, err
	}

	path := rec.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(h.opts.DatasetDir, path)
	}
	if format == waveform.FormatNPY && filepath.Ext(path) == "" {
		path += ".npy"
	}
	if format == "" {
		format = waveform.DetectFormat(path)
	}

	return waveform.Source{Path: path, Format: format, FS: rec.SampleRate}, nil
}
