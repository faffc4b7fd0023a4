package iflytek

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/domain/repositories"
)

const providerName = "iflytek"

// Recognizer transcribes complete PCM buffers through the streaming
// dictation WebSocket API. Each call opens its own connection.
type Recognizer struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *zap.Logger
	now    func() time.Time
}

var _ repositories.SpeechToText = (*Recognizer)(nil)

// NewRecognizer does not check credentials; TranscribeAudio reports a
// ConfigurationError on every call until they are set.
func NewRecognizer(cfg Config, logger *zap.Logger) *Recognizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recognizer{
		cfg: cfg.withDefaults(),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			TLSClientConfig:  &tls.Config{MinVersion: tls.VersionTLS12},
		},
		logger: logger.With(zap.String("provider", providerName)),
		now:    time.Now,
	}
}

func (r *Recognizer) Name() string { return providerName }

// Config returns the effective configuration, defaults applied.
func (r *Recognizer) Config() Config { return r.cfg }

// TranscribeAudio streams audioData and returns the trimmed final transcript.
// Empty audio yields an empty transcript without contacting the service.
func (r *Recognizer) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if err := r.cfg.Validate(); err != nil {
		return "", err
	}
	if len(audioData) == 0 {
		return "", nil
	}

	signed, err := sign(r.cfg.URL, r.cfg.APIKey, r.cfg.APISecret, r.now())
	if err != nil {
		return "", err
	}

	start := time.Now()
	s := newSession(r.cfg, audioData, config.SampleRate, config.Language, r.dialer, r.logger)
	text, err := s.run(ctx, signed.URL)
	if err != nil {
		r.logger.Error("Recognition failed",
			zap.Error(err),
			zap.String("sid", s.sessionID()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return "", err
	}

	r.logger.Info("Recognition complete",
		zap.String("sid", s.sessionID()),
		zap.Int("audioBytes", len(audioData)),
		zap.Int("transcriptLength", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}
