package stt

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/adapters/stt/iflytek"
	"github.com/satriahrh/tripvoice/domain/repositories"
)

const (
	ProviderIFlytek = "iflytek"
	ProviderGoogle  = "google"
	ProviderMock    = "mock"
)

// ProviderConfig selects and configures one recognizer backend.
type ProviderConfig struct {
	Name           string
	IFlytek        iflytek.Config
	GoogleLanguage string
}

// NewProvider builds the recognizer named by cfg.Name.
func NewProvider(cfg ProviderConfig, logger *zap.Logger) (repositories.SpeechToText, error) {
	switch cfg.Name {
	case "", ProviderIFlytek:
		return iflytek.NewRecognizer(cfg.IFlytek, logger), nil
	case ProviderGoogle:
		return NewGoogleSpeechToText(cfg.GoogleLanguage, logger), nil
	case ProviderMock:
		return NewMockSpeechToText(logger), nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Name)
	}
}
