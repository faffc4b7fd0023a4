package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/domain/repositories"
)

// RetentionService periodically deletes expired transcription records
type RetentionService struct {
	records  repositories.TranscriptionRepository
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRetentionService creates a new retention service
func NewRetentionService(records repositories.TranscriptionRepository, interval time.Duration, logger *zap.Logger) *RetentionService {
	return &RetentionService{
		records:  records,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval
func (s *RetentionService) Start() {
	s.wg.Add(1)
	go s.cleanupLoop()
	s.logger.Info("Retention service started", zap.Duration("interval", s.interval))
}

// Stop ends the loop and waits for an in-flight sweep
func (s *RetentionService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Info("Retention service stopped")
	})
}

func (s *RetentionService) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunOnce(context.Background())
		}
	}
}

// RunOnce deletes every record that expired before now
func (s *RetentionService) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	deleted, err := s.records.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("Failed to delete expired transcriptions", zap.Error(err))
		return 0
	}

	s.logger.Debug("Retention sweep completed", zap.Int64("deleted", deleted))
	return deleted
}
