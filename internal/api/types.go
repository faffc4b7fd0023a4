package api

import "github.com/satriahrh/tripvoice/domain/entities"

// TranscribeResponse is returned by the upload endpoint
type TranscribeResponse struct {
	Transcript string `json:"transcript"`
	ID         string `json:"id"`
}

// TranscriptionListResponse wraps a page of records
type TranscriptionListResponse struct {
	Transcriptions []*entities.Transcription `json:"transcriptions"`
	Count          int                       `json:"count"`
}

// HealthResponse reports liveness and the active speech provider
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Provider string `json:"provider"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
