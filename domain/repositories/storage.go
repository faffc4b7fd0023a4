package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/satriahrh/tripvoice/domain/entities"
)

// ErrTranscriptionNotFound is returned when no record matches the requested id.
var ErrTranscriptionNotFound = errors.New("transcription not found")

// TranscriptionRepository defines data access methods for transcription records
type TranscriptionRepository interface {
	Create(ctx context.Context, transcription *entities.Transcription) error
	Update(ctx context.Context, transcription *entities.Transcription) error
	GetByID(ctx context.Context, id string) (*entities.Transcription, error)
	// ListRecent returns the newest records first
	ListRecent(ctx context.Context, limit int) ([]*entities.Transcription, error)
	// DeleteExpired removes records whose expiry is before the given instant
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
