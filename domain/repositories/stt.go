package repositories

import "context"

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// Name identifies the provider in logs, metrics and stored records
	Name() string
	// TranscribeAudio converts a complete audio buffer to its final transcript
	TranscribeAudio(ctx context.Context, audioData []byte, config AudioConfig) (string, error)
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// DefaultAudioConfig describes the browser recorder output: 16 kHz, 16-bit, mono PCM.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate: 16000,
		Encoding:   "LINEAR16",
	}
}
