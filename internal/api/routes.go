package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/domain/entities"
	"github.com/satriahrh/tripvoice/domain/repositories"
)

const serviceName = "tripvoice-server"

// Transcriptions is the use case surface the HTTP layer depends on
type Transcriptions interface {
	Provider() string
	Transcribe(ctx context.Context, source entities.TranscriptionSource, audio []byte, config repositories.AudioConfig) (*entities.Transcription, error)
	Get(ctx context.Context, id string) (*entities.Transcription, error)
	ListRecent(ctx context.Context, limit int) ([]*entities.Transcription, error)
}

// VoiceStreamer serves the browser audio WebSocket
type VoiceStreamer interface {
	HandleWebSocket(c echo.Context) error
}

// Options tunes optional parts of the HTTP surface
type Options struct {
	// UploadLimit caps the multipart body, in echo's size notation ("10M").
	UploadLimit string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, transcriptions Transcriptions, voice VoiceStreamer, opts Options, logger *zap.Logger) {
	h := &handler{transcriptions: transcriptions, logger: logger}

	e.GET("/health", h.health)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}

	uploadMiddleware := []echo.MiddlewareFunc{}
	if opts.UploadLimit != "" {
		uploadMiddleware = append(uploadMiddleware, middleware.BodyLimit(opts.UploadLimit))
	}
	e.POST("/api/voice/transcribe", h.transcribe, uploadMiddleware...)

	v1 := e.Group("/api/v1")
	v1.GET("/transcriptions", h.listTranscriptions)
	v1.GET("/transcriptions/:id", h.getTranscription)

	e.GET("/ws/voice", voice.HandleWebSocket)
}
