package iflytek

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/satriahrh/tripvoice/domain"
)

const (
	defaultLanguage      = "zh_cn"
	defaultDomain        = "iat"
	defaultAccent        = "mandarin"
	defaultVadEOS        = 3000                  // ms of trailing silence that ends the utterance
	defaultChunkSize     = 1280                  // 40 ms of 16 kHz 16-bit mono PCM
	defaultFrameInterval = 40 * time.Millisecond // keeps upload close to real time
	defaultTimeout       = 20 * time.Second
	defaultSampleRate    = 16000
)

// Config holds the recognizer credentials and streaming parameters.
// Required fields: URL, AppID, APIKey, APISecret. Every other field falls
// back to the defaults above when left zero.
type Config struct {
	URL       string
	AppID     string
	APIKey    string
	APISecret string

	Language      string
	Domain        string
	Accent        string
	VadEOS        int
	ChunkSize     int
	FrameInterval time.Duration
	Timeout       time.Duration
}

func (c Config) withDefaults() Config {
	if c.Language == "" {
		c.Language = defaultLanguage
	}
	if c.Domain == "" {
		c.Domain = defaultDomain
	}
	if c.Accent == "" {
		c.Accent = defaultAccent
	}
	if c.VadEOS <= 0 {
		c.VadEOS = defaultVadEOS
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = defaultFrameInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// Validate reports the first missing or malformed credential.
func (c Config) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"VOICE_API_URL", c.URL},
		{"VOICE_API_APP_ID", c.AppID},
		{"VOICE_API_KEY", c.APIKey},
		{"VOICE_API_SECRET", c.APISecret},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &domain.ConfigurationError{Field: r.field}
		}
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return &domain.ConfigurationError{Field: "VOICE_API_URL", Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return &domain.ConfigurationError{Field: "VOICE_API_URL", Err: errors.New("must be an absolute URL")}
	}
	return nil
}
