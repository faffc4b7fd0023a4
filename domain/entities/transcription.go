package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TranscriptionStatus represents the status of a transcription record
type TranscriptionStatus string

const (
	TranscriptionStatusPending   TranscriptionStatus = "pending"
	TranscriptionStatusCompleted TranscriptionStatus = "completed"
	TranscriptionStatusFailed    TranscriptionStatus = "failed"
)

// TranscriptionSource tells how the audio reached the server
type TranscriptionSource string

const (
	TranscriptionSourceUpload TranscriptionSource = "upload"
	TranscriptionSourceStream TranscriptionSource = "stream"
)

// DefaultRetention is how long a record is kept when no retention is configured
const DefaultRetention = 30 * 24 * time.Hour

// Transcription is the audit record of a single speech recognition request
type Transcription struct {
	ID           string              `json:"id" bson:"_id"`
	Source       TranscriptionSource `json:"source" bson:"source"`
	Provider     string              `json:"provider" bson:"provider"`
	Status       TranscriptionStatus `json:"status" bson:"status"`
	Transcript   string              `json:"transcript" bson:"transcript"`
	ErrorKind    string              `json:"error_kind,omitempty" bson:"error_kind,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty" bson:"error_message,omitempty"`
	AudioBytes   int                 `json:"audio_bytes" bson:"audio_bytes"`
	DurationMs   int64               `json:"duration_ms" bson:"duration_ms"`
	CreatedAt    time.Time           `json:"created_at" bson:"created_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	ExpiresAt    time.Time           `json:"expires_at" bson:"expires_at"`
}

// NewTranscription creates a pending record for audioBytes bytes of input
func NewTranscription(source TranscriptionSource, provider string, audioBytes int, retention time.Duration) *Transcription {
	if retention <= 0 {
		retention = DefaultRetention
	}
	now := time.Now()
	return &Transcription{
		ID:         uuid.NewString(),
		Source:     source,
		Provider:   provider,
		Status:     TranscriptionStatusPending,
		AudioBytes: audioBytes,
		CreatedAt:  now,
		ExpiresAt:  now.Add(retention),
	}
}

// Complete stores the final transcript
func (t *Transcription) Complete(transcript string) {
	t.Status = TranscriptionStatusCompleted
	t.Transcript = transcript
	t.finish()
}

// Fail records why the recognition did not produce a transcript
func (t *Transcription) Fail(kind, message string) {
	t.Status = TranscriptionStatusFailed
	t.ErrorKind = kind
	t.ErrorMessage = message
	t.finish()
}

func (t *Transcription) finish() {
	now := time.Now()
	t.CompletedAt = &now
	t.DurationMs = now.Sub(t.CreatedAt).Milliseconds()
}

// IsExpired checks if the record is past its retention window
func (t *Transcription) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsFinished reports whether the record reached a terminal status
func (t *Transcription) IsFinished() bool {
	return t.Status == TranscriptionStatusCompleted || t.Status == TranscriptionStatusFailed
}

// Validate validates the record data
func (t *Transcription) Validate() error {
	if t.ID == "" {
		return errors.New("id is required")
	}

	if t.Source != TranscriptionSourceUpload && t.Source != TranscriptionSourceStream {
		return errors.New("invalid transcription source")
	}

	switch t.Status {
	case TranscriptionStatusPending, TranscriptionStatusCompleted, TranscriptionStatusFailed:
	default:
		return errors.New("invalid transcription status")
	}

	if t.AudioBytes < 0 {
		return errors.New("audio_bytes cannot be negative")
	}

	return nil
}
