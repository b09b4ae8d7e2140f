package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ecg-viewer/auth"
	"ecg-viewer/database"
	"ecg-viewer/labels"
	"ecg-viewer/waveform"
)

// LeadSource produces the normalized (leads, samples) matrix for a stored recording.
type LeadSource interface {
	Leads(ctx context.Context, src waveform.Source, opts waveform.Options) ([][]float64, error)
}

type Options struct {
	DatasetDir string
	Denoise    bool // default when the request has no denoise parameter
	BandPass   waveform.BandPass
	HoldTTL    time.Duration
	StatsDays  int
}

type Handler struct {
	store  *database.Store
	leads  LeadSource
	labels *labels.Table
	jwt    *auth.JWTService
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

func New(store *database.Store, leads LeadSource, table *labels.Table, jwt *auth.JWTService, opts Options, logger *slog.Logger) *Handler {
	if opts.HoldTTL <= 0 {
		opts.HoldTTL = 30 * time.Minute
	}
	if opts.StatsDays <= 0 {
		opts.StatsDays = 31
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  store,
		leads:  leads,
		labels: table,
		jwt:    jwt,
		opts:   opts,
		logger: logger.With("component", "http"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// recordingID reads the :id parameter and rejects anything that is not a UUID.
func recordingID(c *gin.Context) (string, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recording id"})
		return "", false
	}
	return id, true
}

// parseID canonicalizes a UUID to its lowercase hyphenated form.
func parseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
