package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/satriahrh/tripvoice/adapters/stt"
	"github.com/satriahrh/tripvoice/adapters/stt/iflytek"
)

// Config is the complete server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Speech  SpeechConfig  `mapstructure:"speech"`
	Voice   VoiceConfig   `mapstructure:"voice"`
	Storage StorageConfig `mapstructure:"storage"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	UploadLimit     string        `mapstructure:"upload_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SpeechConfig struct {
	Provider       string `mapstructure:"provider"`
	GoogleLanguage string `mapstructure:"google_language"`
}

// VoiceConfig configures the streaming dictation recognizer.
type VoiceConfig struct {
	URL           string        `mapstructure:"url"`
	AppID         string        `mapstructure:"app_id"`
	APIKey        string        `mapstructure:"api_key"`
	APISecret     string        `mapstructure:"api_secret"`
	Language      string        `mapstructure:"language"`
	Domain        string        `mapstructure:"domain"`
	Accent        string        `mapstructure:"accent"`
	VadEOS        int           `mapstructure:"vad_eos"`
	ChunkSize     int           `mapstructure:"chunk_size"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	MongoURI          string        `mapstructure:"mongodb_uri"`
	MongoDatabase     string        `mapstructure:"mongodb_database"`
	Retention         time.Duration `mapstructure:"retention"`
	RetentionInterval time.Duration `mapstructure:"retention_interval"`
}

// envBindings maps configuration keys to their environment variables.
var envBindings = map[string]string{
	"server.port":                "PORT",
	"server.upload_limit":        "UPLOAD_LIMIT",
	"server.shutdown_timeout":    "SHUTDOWN_TIMEOUT",
	"log.level":                  "LOG_LEVEL",
	"log.format":                 "LOG_FORMAT",
	"speech.provider":            "STT_PROVIDER",
	"speech.google_language":     "GOOGLE_SPEECH_LANGUAGE",
	"voice.url":                  "VOICE_API_URL",
	"voice.app_id":               "VOICE_API_APP_ID",
	"voice.api_key":              "VOICE_API_KEY",
	"voice.api_secret":           "VOICE_API_SECRET",
	"voice.language":             "VOICE_LANGUAGE",
	"voice.domain":               "VOICE_DOMAIN",
	"voice.accent":               "VOICE_ACCENT",
	"voice.vad_eos":              "VOICE_VAD_EOS",
	"voice.chunk_size":           "VOICE_CHUNK_SIZE",
	"voice.frame_interval":       "VOICE_FRAME_INTERVAL",
	"voice.timeout":              "VOICE_TIMEOUT",
	"storage.mongodb_uri":        "MONGODB_URI",
	"storage.mongodb_database":   "MONGODB_DATABASE",
	"storage.retention":          "TRANSCRIPTION_RETENTION",
	"storage.retention_interval": "RETENTION_INTERVAL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.upload_limit", "10M")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "production")
	v.SetDefault("speech.provider", stt.ProviderIFlytek)
	v.SetDefault("speech.google_language", "cmn-Hans-CN")
	v.SetDefault("voice.language", "zh_cn")
	v.SetDefault("voice.domain", "iat")
	v.SetDefault("voice.accent", "mandarin")
	v.SetDefault("voice.vad_eos", 3000)
	v.SetDefault("voice.chunk_size", 1280)
	v.SetDefault("voice.frame_interval", 40*time.Millisecond)
	v.SetDefault("voice.timeout", 20*time.Second)
	v.SetDefault("storage.mongodb_uri", "")
	v.SetDefault("storage.mongodb_database", "tripvoice")
	v.SetDefault("storage.retention", 720*time.Hour)
	v.SetDefault("storage.retention_interval", 30*time.Minute)
}

// Load reads .env files (when present), the optional YAML file and the
// environment, in increasing order of precedence.
func Load(configFile string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Speech.Provider = strings.ToLower(strings.TrimSpace(cfg.Speech.Provider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the provider selection and its credentials.
func (c *Config) Validate() error {
	switch c.Speech.Provider {
	case stt.ProviderIFlytek:
		if err := c.Voice.IFlytek().Validate(); err != nil {
			return err
		}
	case stt.ProviderGoogle, stt.ProviderMock:
	default:
		return fmt.Errorf("unknown STT_PROVIDER %q", c.Speech.Provider)
	}

	switch c.Log.Format {
	case "production", "development":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.Log.Format)
	}

	if c.Storage.Retention <= 0 {
		return errors.New("TRANSCRIPTION_RETENTION must be positive")
	}
	if c.Storage.RetentionInterval <= 0 {
		return errors.New("RETENTION_INTERVAL must be positive")
	}
	return nil
}

// IFlytek converts the voice settings into recognizer configuration.
func (v VoiceConfig) IFlytek() iflytek.Config {
	return iflytek.Config{
		URL:           v.URL,
		AppID:         v.AppID,
		APIKey:        v.APIKey,
		APISecret:     v.APISecret,
		Language:      v.Language,
		Domain:        v.Domain,
		Accent:        v.Accent,
		VadEOS:        v.VadEOS,
		ChunkSize:     v.ChunkSize,
		FrameInterval: v.FrameInterval,
		Timeout:       v.Timeout,
	}
}

// Provider returns the speech provider factory input.
func (c *Config) Provider() stt.ProviderConfig {
	return stt.ProviderConfig{
		Name:           c.Speech.Provider,
		IFlytek:        c.Voice.IFlytek(),
		GoogleLanguage: c.Speech.GoogleLanguage,
	}
}
