package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/satriahrh/tripvoice/domain"
)

func setIFlytekEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STT_PROVIDER", "iflytek")
	t.Setenv("VOICE_API_URL", "wss://iat-api.xfyun.cn/v2/iat")
	t.Setenv("VOICE_API_APP_ID", "app")
	t.Setenv("VOICE_API_KEY", "key")
	t.Setenv("VOICE_API_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STT_PROVIDER", "mock")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Server.UploadLimit != "10M" {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "production" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
	if cfg.Voice.ChunkSize != 1280 || cfg.Voice.FrameInterval != 40*time.Millisecond || cfg.Voice.Timeout != 20*time.Second {
		t.Errorf("unexpected voice config %+v", cfg.Voice)
	}
	if cfg.Voice.Language != "zh_cn" || cfg.Voice.VadEOS != 3000 {
		t.Errorf("unexpected voice business config %+v", cfg.Voice)
	}
	if cfg.Storage.MongoURI != "" || cfg.Storage.MongoDatabase != "tripvoice" {
		t.Errorf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Storage.Retention != 720*time.Hour || cfg.Storage.RetentionInterval != 30*time.Minute {
		t.Errorf("unexpected retention config %+v", cfg.Storage)
	}
	if cfg.Speech.GoogleLanguage != "cmn-Hans-CN" {
		t.Errorf("google language = %q", cfg.Speech.GoogleLanguage)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	setIFlytekEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("VOICE_TIMEOUT", "5s")
	t.Setenv("VOICE_FRAME_INTERVAL", "10ms")
	t.Setenv("VOICE_CHUNK_SIZE", "640")
	t.Setenv("VOICE_LANGUAGE", "en_us")
	t.Setenv("TRANSCRIPTION_RETENTION", "24h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9000" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	ifl := cfg.Voice.IFlytek()
	if ifl.Timeout != 5*time.Second || ifl.FrameInterval != 10*time.Millisecond || ifl.ChunkSize != 640 {
		t.Errorf("unexpected recognizer config %+v", ifl)
	}
	if ifl.Language != "en_us" || ifl.AppID != "app" || ifl.APIKey != "key" {
		t.Errorf("unexpected recognizer credentials %+v", ifl)
	}
	if cfg.Storage.Retention != 24*time.Hour {
		t.Errorf("retention = %s", cfg.Storage.Retention)
	}

	p := cfg.Provider()
	if p.Name != "iflytek" || p.IFlytek.URL != "wss://iat-api.xfyun.cn/v2/iat" {
		t.Errorf("unexpected provider config %+v", p)
	}
}

func TestLoad_IFlytekRequiresCredentials(t *testing.T) {
	setIFlytekEnv(t)
	t.Setenv("VOICE_API_SECRET", "")

	_, err := Load("")
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Field != "VOICE_API_SECRET" {
		t.Errorf("field = %q", cfgErr.Field)
	}
}

func TestLoad_RejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"provider", map[string]string{"STT_PROVIDER": "whisper"}},
		{"log format", map[string]string{"STT_PROVIDER": "mock", "LOG_FORMAT": "pretty"}},
		{"retention", map[string]string{"STT_PROVIDER": "mock", "TRANSCRIPTION_RETENTION": "-1h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad_ProviderIsNormalized(t *testing.T) {
	t.Setenv("STT_PROVIDER", " Mock ")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Speech.Provider != "mock" {
		t.Errorf("provider = %q", cfg.Speech.Provider)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("STT_PROVIDER", "")
	path := filepath.Join(t.TempDir(), "tripvoice.yaml")
	content := `
server:
  port: "7070"
speech:
  provider: google
voice:
  timeout: 15s
storage:
  retention_interval: 5m
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7070" || cfg.Speech.Provider != "google" {
		t.Errorf("file values not applied: %+v %+v", cfg.Server, cfg.Speech)
	}
	if cfg.Voice.Timeout != 15*time.Second || cfg.Storage.RetentionInterval != 5*time.Minute {
		t.Errorf("file durations not applied: %s %s", cfg.Voice.Timeout, cfg.Storage.RetentionInterval)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	for _, key := range []string{"STT_PROVIDER", "LOG_LEVEL"} {
		if _, set := os.LookupEnv(key); set {
			t.Skipf("%s is set in the environment", key)
		}
	}
	t.Cleanup(func() {
		os.Unsetenv("STT_PROVIDER")
		os.Unsetenv("LOG_LEVEL")
	})

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("STT_PROVIDER=mock\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Speech.Provider != "mock" || cfg.Log.Level != "debug" {
		t.Errorf("env file not applied: %+v %+v", cfg.Speech, cfg.Log)
	}

	if _, err := Load("", filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for missing env file")
	}
}
