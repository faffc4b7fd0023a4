package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/domain/repositories"
)

// MockSpeechToText answers with canned travel phrases picked by audio size.
// It never touches the network and is meant for local development.
type MockSpeechToText struct {
	logger *zap.Logger
}

func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{logger: logger}
}

func (s *MockSpeechToText) Name() string { return "mock" }

// TranscribeAudio implements repositories.SpeechToText
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.logger.Info("Processing mock speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	switch {
	case len(audioData) == 0:
		return "", nil
	case len(audioData) > 64000:
		return "我想去北京旅游三天，请帮我安排行程。", nil
	case len(audioData) > 16000:
		return "帮我找一家酒店。", nil
	default:
		return "你好", nil
	}
}
