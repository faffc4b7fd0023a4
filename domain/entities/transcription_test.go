package entities

import (
	"testing"
	"time"
)

func TestTranscriptionCreation(t *testing.T) {
	record := NewTranscription(TranscriptionSourceUpload, "iflytek", 3200, time.Hour)

	if record.ID == "" {
		t.Error("Expected generated ID")
	}

	if record.Status != TranscriptionStatusPending {
		t.Errorf("Expected status %s, got %s", TranscriptionStatusPending, record.Status)
	}

	if record.AudioBytes != 3200 {
		t.Errorf("Expected 3200 audio bytes, got %d", record.AudioBytes)
	}

	if got := record.ExpiresAt.Sub(record.CreatedAt); got != time.Hour {
		t.Errorf("Expected one hour retention, got %s", got)
	}

	if err := record.Validate(); err != nil {
		t.Errorf("Expected valid record, got %v", err)
	}
}

func TestTranscriptionDefaultRetention(t *testing.T) {
	record := NewTranscription(TranscriptionSourceStream, "mock", 0, 0)

	if got := record.ExpiresAt.Sub(record.CreatedAt); got != DefaultRetention {
		t.Errorf("Expected default retention %s, got %s", DefaultRetention, got)
	}
}

func TestTranscriptionComplete(t *testing.T) {
	record := NewTranscription(TranscriptionSourceUpload, "iflytek", 1280, time.Hour)
	record.Complete("我要去北京")

	if record.Status != TranscriptionStatusCompleted {
		t.Errorf("Expected completed status, got %s", record.Status)
	}

	if record.Transcript != "我要去北京" {
		t.Errorf("Unexpected transcript %q", record.Transcript)
	}

	if record.CompletedAt == nil {
		t.Fatal("Expected CompletedAt to be set")
	}

	if !record.IsFinished() {
		t.Error("Completed record should be finished")
	}
}

func TestTranscriptionFail(t *testing.T) {
	record := NewTranscription(TranscriptionSourceStream, "iflytek", 1280, time.Hour)
	record.Fail("transcription_timeout", "timed out")

	if record.Status != TranscriptionStatusFailed {
		t.Errorf("Expected failed status, got %s", record.Status)
	}

	if record.ErrorKind != "transcription_timeout" {
		t.Errorf("Unexpected error kind %q", record.ErrorKind)
	}

	if record.Transcript != "" {
		t.Errorf("Failed record should not carry a transcript, got %q", record.Transcript)
	}
}

func TestTranscriptionExpiration(t *testing.T) {
	record := NewTranscription(TranscriptionSourceUpload, "mock", 10, time.Hour)

	if record.IsExpired() {
		t.Error("Record should not be expired initially")
	}

	record.ExpiresAt = time.Now().Add(-1 * time.Minute)
	if !record.IsExpired() {
		t.Error("Record should be expired when ExpiresAt is in the past")
	}
}

func TestTranscriptionValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transcription)
		wantErr bool
	}{
		{"valid", func(*Transcription) {}, false},
		{"missing id", func(r *Transcription) { r.ID = "" }, true},
		{"bad source", func(r *Transcription) { r.Source = "fax" }, true},
		{"bad status", func(r *Transcription) { r.Status = "lost" }, true},
		{"negative audio", func(r *Transcription) { r.AudioBytes = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := NewTranscription(TranscriptionSourceUpload, "mock", 10, time.Hour)
			tt.mutate(record)
			err := record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
