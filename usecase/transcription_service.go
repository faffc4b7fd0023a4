package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/domain"
	"github.com/satriahrh/tripvoice/domain/entities"
	"github.com/satriahrh/tripvoice/domain/repositories"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	outcomeSuccess = "success"
)

// Recorder receives one observation per finished transcription.
type Recorder interface {
	ObserveTranscription(provider, outcome string, elapsed time.Duration)
}

// TranscriptionService runs speech recognition and keeps an audit record
// of every request
type TranscriptionService struct {
	speechToText repositories.SpeechToText
	records      repositories.TranscriptionRepository
	recorder     Recorder
	retention    time.Duration
	logger       *zap.Logger
}

// NewTranscriptionService creates a new transcription service. recorder may be nil.
func NewTranscriptionService(
	stt repositories.SpeechToText,
	records repositories.TranscriptionRepository,
	recorder Recorder,
	retention time.Duration,
	logger *zap.Logger,
) *TranscriptionService {
	return &TranscriptionService{
		speechToText: stt,
		records:      records,
		recorder:     recorder,
		retention:    retention,
		logger:       logger,
	}
}

// Provider names the configured speech backend
func (s *TranscriptionService) Provider() string {
	return s.speechToText.Name()
}

// Transcribe converts audio to text. The returned record is never nil; on
// failure it carries the error kind and the error is returned as well.
// Storage failures are logged and do not fail the request.
func (s *TranscriptionService) Transcribe(ctx context.Context, source entities.TranscriptionSource, audio []byte, config repositories.AudioConfig) (*entities.Transcription, error) {
	provider := s.speechToText.Name()
	record := entities.NewTranscription(source, provider, len(audio), s.retention)

	logger := s.logger.With(
		zap.String("recordID", record.ID),
		zap.String("source", string(source)),
		zap.String("provider", provider),
	)
	logger.Info("Processing transcription", zap.Int("audioBytes", len(audio)))

	if err := s.records.Create(ctx, record); err != nil {
		logger.Error("Failed to store transcription record", zap.Error(err))
	}

	start := time.Now()
	text, err := s.speechToText.TranscribeAudio(ctx, audio, config)
	elapsed := time.Since(start)

	outcome := outcomeSuccess
	if err != nil {
		outcome = domain.ErrorKind(err)
		record.Fail(outcome, err.Error())
		logger.Warn("Transcription failed", zap.String("errorKind", outcome), zap.Error(err))
	} else {
		record.Complete(text)
		logger.Info("Transcription completed",
			zap.Int("transcriptLength", len(text)),
			zap.Duration("elapsed", elapsed))
	}

	if s.recorder != nil {
		s.recorder.ObserveTranscription(provider, outcome, elapsed)
	}

	// The caller may have gone away; the record should still be finalized.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if updateErr := s.records.Update(storeCtx, record); updateErr != nil {
		logger.Error("Failed to update transcription record", zap.Error(updateErr))
	}

	return record, err
}

// Get returns a stored record
func (s *TranscriptionService) Get(ctx context.Context, id string) (*entities.Transcription, error) {
	return s.records.GetByID(ctx, id)
}

// ListRecent returns the newest records. limit is clamped to [1, MaxListLimit];
// zero or negative selects DefaultListLimit.
func (s *TranscriptionService) ListRecent(ctx context.Context, limit int) ([]*entities.Transcription, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.records.ListRecent(ctx, limit)
}
