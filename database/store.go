package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ecg-viewer/models"
)

var (
	ErrLocked     = errors.New("recording is held by another reviewer")
	ErrUserExists = errors.New("user already exists")
)

// DayFormat is the key format of per-day statistics.
const DayFormat = "02-01-2006"

// Store wraps the gorm handle with the queries the viewer needs. Missing rows surface as
// gorm.ErrRecordNotFound.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) CreateRecording(ctx context.Context, rec *models.Recording) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// ListRecordings returns the recording with the given id, or every recording of the patient
// with that id, newest test first.
func (s *Store) ListRecordings(ctx context.Context, id string) ([]models.Recording, error) {
	var recordings []models.Recording
	err := s.db.WithContext(ctx).
		Where("id = ? OR patient_id = ?", id, id).
		Order("date_of_test DESC").
		Find(&recordings).Error
	return recordings, err
}

func (s *Store) GetRecording(ctx context.Context, id string) (*models.Recording, error) {
	var rec models.Recording
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetAnnotation(ctx context.Context, recordingID string) (*models.Annotation, error) {
	var anno models.Annotation
	if err := s.db.WithContext(ctx).Where("recording_id = ?", recordingID).First(&anno).Error; err != nil {
		return nil, err
	}
	return &anno, nil
}

// ReplaceAnnotation overwrites the whole annotation document of a recording, archives the
// previous document and marks the recording as done by user.
func (s *Store) ReplaceAnnotation(ctx context.Context, recordingID, user string, payload []byte, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.Recording
		if err := tx.Select("id").Where("id = ?", recordingID).First(&rec).Error; err != nil {
			return err
		}

		var existing models.Annotation
		err := tx.Where("recording_id = ?", recordingID).First(&existing).Error
		switch {
		case err == nil:
			history := models.AnnotationHistory{
				RecordingID: recordingID,
				Payload:     existing.Payload,
				Author:      existing.UpdatedBy,
				CreatedAt:   now,
			}
			if err := tx.Create(&history).Error; err != nil {
				return fmt.Errorf("archive annotation: %w", err)
			}
			if err := tx.Model(&existing).Updates(map[string]any{
				"payload":    datatypes.JSON(payload),
				"updated_by": user,
				"updated_at": now,
			}).Error; err != nil {
				return fmt.Errorf("replace annotation: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			anno := models.Annotation{
				RecordingID: recordingID,
				Payload:     datatypes.JSON(payload),
				UpdatedBy:   user,
				UpdatedAt:   now,
			}
			if err := tx.Create(&anno).Error; err != nil {
				return fmt.Errorf("create annotation: %w", err)
			}
		default:
			return err
		}

		return tx.Model(&models.Recording{}).Where("id = ?", recordingID).Updates(map[string]any{
			"done":      true,
			"done_by":   user,
			"done_time": now,
		}).Error
	})
}

// AnnotationHistory returns archived documents, oldest first.
func (s *Store) AnnotationHistory(ctx context.Context, recordingID string) ([]models.AnnotationHistory, error) {
	var history []models.AnnotationHistory
	err := s.db.WithContext(ctx).
		Where("recording_id = ?", recordingID).
		Order("id ASC").
		Find(&history).Error
	return history, err
}

// HoldRecording locks a recording for user until the given time. A reviewer may extend their
// own hold; an unexpired hold by someone else yields ErrLocked.
func (s *Store) HoldRecording(ctx context.Context, recordingID, user string, until, now time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Recording{}).
		Where("id = ?", recordingID).
		Where("(hold_by IS NULL OR hold_by < ? OR blocked_by = ?)", now, user).
		Updates(map[string]any{"hold_by": until, "blocked_by": user})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetRecording(ctx, recordingID); err != nil {
			return err
		}
		return ErrLocked
	}
	return nil
}

type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// CountDonePerDay returns how many recordings were finished on each of the last days days,
// oldest first, including days with no activity.
func (s *Store) CountDonePerDay(ctx context.Context, days int, now time.Time) ([]DayCount, error) {
	if days <= 0 {
		return nil, nil
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -(days - 1))

	var doneTimes []time.Time
	err := s.db.WithContext(ctx).Model(&models.Recording{}).
		Where("done = ? AND done_time >= ?", true, start).
		Pluck("done_time", &doneTimes).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, days)
	for _, t := range doneTimes {
		counts[t.In(now.Location()).Format(DayFormat)]++
	}

	out := make([]DayCount, days)
	for i := range out {
		day := start.AddDate(0, 0, i).Format(DayFormat)
		out[i] = DayCount{Day: day, Count: counts[day]}
	}
	return out, nil
}

type Summary struct {
	Total   int64 `json:"total"`
	Done    int64 `json:"done"`
	Pending int64 `json:"pending"`
	Held    int64 `json:"held"`
}

func (s *Store) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	db := s.db.WithContext(ctx)
	var sum Summary

	if err := db.Model(&models.Recording{}).Count(&sum.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Recording{}).Where("done = ?", true).Count(&sum.Done).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Recording{}).Where("done = ? AND hold_by >= ?", false, now).Count(&sum.Held).Error; err != nil {
		return nil, err
	}
	sum.Pending = sum.Total - sum.Done
	return &sum, nil
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	if _, err := s.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: passwordHash}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
