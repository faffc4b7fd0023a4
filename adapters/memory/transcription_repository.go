package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/satriahrh/tripvoice/domain/entities"
	"github.com/satriahrh/tripvoice/domain/repositories"
)

// TranscriptionRepository keeps records in process memory. It is used when
// no MongoDB URI is configured; records do not survive a restart.
type TranscriptionRepository struct {
	mu      sync.RWMutex
	records map[string]*entities.Transcription
}

var _ repositories.TranscriptionRepository = (*TranscriptionRepository)(nil)

func NewTranscriptionRepository() *TranscriptionRepository {
	return &TranscriptionRepository{
		records: make(map[string]*entities.Transcription),
	}
}

// Create implements repositories.TranscriptionRepository
func (m *TranscriptionRepository) Create(ctx context.Context, t *entities.Transcription) error {
	if err := t.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[t.ID]; exists {
		return errors.New("transcription already exists")
	}
	m.records[t.ID] = clone(t)
	return nil
}

// Update implements repositories.TranscriptionRepository
func (m *TranscriptionRepository) Update(ctx context.Context, t *entities.Transcription) error {
	if err := t.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[t.ID]; !exists {
		return repositories.ErrTranscriptionNotFound
	}
	m.records[t.ID] = clone(t)
	return nil
}

// GetByID implements repositories.TranscriptionRepository
func (m *TranscriptionRepository) GetByID(ctx context.Context, id string) (*entities.Transcription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, exists := m.records[id]
	if !exists {
		return nil, repositories.ErrTranscriptionNotFound
	}
	return clone(t), nil
}

// ListRecent implements repositories.TranscriptionRepository
func (m *TranscriptionRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Transcription, error) {
	m.mu.RLock()
	list := make([]*entities.Transcription, 0, len(m.records))
	for _, t := range m.records {
		list = append(list, clone(t))
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// DeleteExpired implements repositories.TranscriptionRepository
func (m *TranscriptionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, t := range m.records {
		if t.ExpiresAt.Before(before) {
			delete(m.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func clone(t *entities.Transcription) *entities.Transcription {
	c := *t
	if t.CompletedAt != nil {
		completedAt := *t.CompletedAt
		c.CompletedAt = &completedAt
	}
	return &c
}
