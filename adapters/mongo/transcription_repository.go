package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/domain/entities"
	"github.com/satriahrh/tripvoice/domain/repositories"
)

const transcriptionsCollection = "transcriptions"

// TranscriptionRepository implements repositories.TranscriptionRepository using MongoDB
type TranscriptionRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ repositories.TranscriptionRepository = (*TranscriptionRepository)(nil)

// NewTranscriptionRepository creates the repository and its indexes
func NewTranscriptionRepository(ctx context.Context, db *mongo.Database, logger *zap.Logger) (*TranscriptionRepository, error) {
	collection := db.Collection(transcriptionsCollection)

	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(indexCtx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
		// Let the server drop expired records even if the retention loop is not running.
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		logger.Error("Failed to create transcription indexes", zap.Error(err))
		return nil, err
	}
	logger.Info("Transcription indexes created successfully")

	return &TranscriptionRepository{
		collection: collection,
		logger:     logger,
	}, nil
}

// Create inserts a new record
func (r *TranscriptionRepository) Create(ctx context.Context, t *entities.Transcription) error {
	if err := t.Validate(); err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, t); err != nil {
		r.logger.Error("Failed to create transcription", zap.Error(err), zap.String("id", t.ID))
		return err
	}

	r.logger.Debug("Transcription created", zap.String("id", t.ID), zap.String("source", string(t.Source)))
	return nil
}

// Update replaces the stored record
func (r *TranscriptionRepository) Update(ctx context.Context, t *entities.Transcription) error {
	if err := t.Validate(); err != nil {
		return err
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		r.logger.Error("Failed to update transcription", zap.Error(err), zap.String("id", t.ID))
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrTranscriptionNotFound
	}

	r.logger.Debug("Transcription updated", zap.String("id", t.ID), zap.String("status", string(t.Status)))
	return nil
}

// GetByID retrieves a record by its ID
func (r *TranscriptionRepository) GetByID(ctx context.Context, id string) (*entities.Transcription, error) {
	var t entities.Transcription
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrTranscriptionNotFound
		}
		r.logger.Error("Failed to get transcription by ID", zap.Error(err), zap.String("id", id))
		return nil, err
	}

	return &t, nil
}

// ListRecent returns up to limit records, most recent first
func (r *TranscriptionRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Transcription, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to list transcriptions", zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	transcriptions := make([]*entities.Transcription, 0, limit)
	for cursor.Next(ctx) {
		var t entities.Transcription
		if err := cursor.Decode(&t); err != nil {
			r.logger.Error("Failed to decode transcription", zap.Error(err))
			continue
		}
		transcriptions = append(transcriptions, &t)
	}

	if err := cursor.Err(); err != nil {
		r.logger.Error("Cursor error", zap.Error(err))
		return nil, err
	}

	return transcriptions, nil
}

// DeleteExpired removes every record that expired before the given instant
func (r *TranscriptionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": before}})
	if err != nil {
		r.logger.Error("Failed to delete expired transcriptions", zap.Error(err))
		return 0, err
	}

	if result.DeletedCount > 0 {
		r.logger.Info("Deleted expired transcriptions", zap.Int64("count", result.DeletedCount))
	}
	return result.DeletedCount, nil
}
