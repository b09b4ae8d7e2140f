package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Recording struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	PatientID  string     `json:"patient_id" gorm:"size:128;index"`
	TestID     string     `json:"test_id" gorm:"size:128"`
	DateOfTest time.Time  `json:"date_of_test"`
	Report     string     `json:"report"`
	Path       string     `json:"path"`
	Format     string     `json:"format" gorm:"size:16"`
	SampleRate float64    `json:"sample_rate"`
	Age        int        `json:"age"`
	Sex        string     `json:"sex" gorm:"size:1"`
	HoldBy     *time.Time `json:"hold_by"`
	BlockedBy  string     `json:"blocked_by" gorm:"size:128"`
	Done       bool       `json:"done" gorm:"index"`
	DoneBy     string     `json:"done_by" gorm:"size:128"`
	DoneTime   *time.Time `json:"done_time" gorm:"index"`
}

// BeforeCreate assigns a UUID when the importer did not supply one.
func (r *Recording) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Annotation holds the current reviewer document for a recording. It is replaced wholesale on
// every submission.
type Annotation struct {
	RecordingID string         `json:"recording_id" gorm:"primaryKey;size:36"`
	Payload     datatypes.JSON `json:"payload"`
	UpdatedBy   string         `json:"updated_by" gorm:"size:128"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// AnnotationHistory keeps every document that was overwritten.
type AnnotationHistory struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	RecordingID string         `json:"recording_id" gorm:"size:36;index"`
	Payload     datatypes.JSON `json:"payload"`
	Author      string         `json:"author" gorm:"size:128"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (AnnotationHistory) TableName() string {
	return "annotation_history"
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:128;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;size:255;not null"`
	CreatedAt    time.Time `json:"created_at"`
}
