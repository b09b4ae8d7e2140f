package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ecg-viewer/models"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(db), db
}

func seedRecording(t *testing.T, s *Store, id, patient string, date time.Time) {
	t.Helper()
	require.NoError(t, s.CreateRecording(context.Background(), &models.Recording{
		ID:         id,
		PatientID:  patient,
		DateOfTest: date,
		Path:       id + ".npy",
		Format:     "npy",
		Age:        54,
		Sex:        "M",
	}))
}

func TestListRecordingsByIDOrPatient(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	seedRecording(t, s, "rec-a", "patient-1", base)
	seedRecording(t, s, "rec-b", "patient-1", base.AddDate(0, 0, 2))
	seedRecording(t, s, "rec-c", "patient-2", base.AddDate(0, 0, 1))

	byPatient, err := s.ListRecordings(ctx, "patient-1")
	require.NoError(t, err)
	require.Len(t, byPatient, 2)
	assert.Equal(t, "rec-b", byPatient[0].ID, "newest test first")
	assert.Equal(t, "rec-a", byPatient[1].ID)

	byID, err := s.ListRecordings(ctx, "rec-c")
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "patient-2", byID[0].PatientID)

	none, err := s.ListRecordings(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateRecordingAssignsUUID(t *testing.T) {
	s, _ := newTestStore(t)
	rec := &models.Recording{PatientID: "p", DateOfTest: time.Now().UTC()}
	require.NoError(t, s.CreateRecording(context.Background(), rec))
	assert.Len(t, rec.ID, 36)
}

func TestGetRecordingNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.GetRecording(context.Background(), "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = s.GetAnnotation(context.Background(), "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReplaceAnnotationReplacesWholeDocument(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	seedRecording(t, s, "rec-a", "patient-1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	first := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, s.ReplaceAnnotation(ctx, "rec-a", "alice", []byte(`[{"group":"rhythm","keep":1}]`), first))
	require.NoError(t, s.ReplaceAnnotation(ctx, "rec-a", "bob", []byte(`[{"group":"conduction"}]`), second))

	anno, err := s.GetAnnotation(ctx, "rec-a")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"group":"conduction"}]`, string(anno.Payload), "no merge with the previous document")
	assert.Equal(t, "bob", anno.UpdatedBy)

	history, err := s.AnnotationHistory(ctx, "rec-a")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alice", history[0].Author)
	assert.JSONEq(t, `[{"group":"rhythm","keep":1}]`, string(history[0].Payload))

	rec, err := s.GetRecording(ctx, "rec-a")
	require.NoError(t, err)
	assert.True(t, rec.Done)
	assert.Equal(t, "bob", rec.DoneBy)
	require.NotNil(t, rec.DoneTime)
	assert.True(t, rec.DoneTime.Equal(second))
}

func TestReplaceAnnotationMissingRecording(t *testing.T) {
	s, db := newTestStore(t)
	err := s.ReplaceAnnotation(context.Background(), "ghost", "alice", []byte(`[]`), time.Now().UTC())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Annotation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHoldRecording(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	seedRecording(t, s, "rec-a", "patient-1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.HoldRecording(ctx, "rec-a", "alice", now.Add(30*time.Minute), now))

	err := s.HoldRecording(ctx, "rec-a", "bob", now.Add(40*time.Minute), now.Add(10*time.Minute))
	assert.ErrorIs(t, err, ErrLocked)

	// alice may extend her own hold
	require.NoError(t, s.HoldRecording(ctx, "rec-a", "alice", now.Add(time.Hour), now.Add(20*time.Minute)))

	// expired holds can be taken over
	later := now.Add(2 * time.Hour)
	require.NoError(t, s.HoldRecording(ctx, "rec-a", "bob", later.Add(30*time.Minute), later))

	rec, err := s.GetRecording(ctx, "rec-a")
	require.NoError(t, err)
	assert.Equal(t, "bob", rec.BlockedBy)

	err = s.HoldRecording(ctx, "ghost", "bob", later, later)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCountDonePerDay(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)

	for _, id := range []string{"a", "b", "c", "d"} {
		seedRecording(t, s, id, "p", now.AddDate(0, 0, -40))
	}
	require.NoError(t, s.ReplaceAnnotation(ctx, "a", "alice", []byte(`[]`), now.Add(-time.Hour)))
	require.NoError(t, s.ReplaceAnnotation(ctx, "b", "alice", []byte(`[]`), now.Add(-2*time.Hour)))
	require.NoError(t, s.ReplaceAnnotation(ctx, "c", "alice", []byte(`[]`), now.AddDate(0, 0, -3)))
	require.NoError(t, s.ReplaceAnnotation(ctx, "d", "alice", []byte(`[]`), now.AddDate(0, 0, -45)))

	stats, err := s.CountDonePerDay(ctx, 31, now)
	require.NoError(t, err)
	require.Len(t, stats, 31)

	assert.Equal(t, "01-03-2024", stats[0].Day)
	assert.Equal(t, "31-03-2024", stats[30].Day)
	assert.Equal(t, int64(2), stats[30].Count)
	assert.Equal(t, "28-03-2024", stats[27].Day)
	assert.Equal(t, int64(1), stats[27].Count)

	var total int64
	for _, d := range stats {
		total += d.Count
	}
	assert.Equal(t, int64(3), total, "done outside the window is not counted")
}

func TestSummary(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)

	seedRecording(t, s, "a", "p", now)
	seedRecording(t, s, "b", "p", now)
	seedRecording(t, s, "c", "p", now)
	require.NoError(t, s.ReplaceAnnotation(ctx, "a", "alice", []byte(`[]`), now))
	require.NoError(t, s.HoldRecording(ctx, "b", "bob", now.Add(time.Hour), now))

	sum, err := s.Summary(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Total: 3, Done: 1, Pending: 2, Held: 1}, sum)
}

func TestUsers(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	_, err = s.CreateUser(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrUserExists)

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = s.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, logger.Silent, gormLogLevel("silent"))
	assert.Equal(t, logger.Info, gormLogLevel("DEBUG"))
	assert.Equal(t, logger.Warn, gormLogLevel(""))
}
