package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/tripvoice/adapters/memory"
	"github.com/satriahrh/tripvoice/domain"
	"github.com/satriahrh/tripvoice/domain/entities"
	"github.com/satriahrh/tripvoice/domain/repositories"
	"github.com/satriahrh/tripvoice/usecase"
)

type stubSpeechToText struct {
	text   string
	err    error
	config repositories.AudioConfig
}

func (s *stubSpeechToText) Name() string { return "stub" }

func (s *stubSpeechToText) TranscribeAudio(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	s.config = config
	return s.text, s.err
}

type stubVoice struct{}

func (stubVoice) HandleWebSocket(c echo.Context) error {
	return c.NoContent(http.StatusTeapot)
}

func setupServer(t *testing.T, stt *stubSpeechToText, opts Options) (*echo.Echo, *memory.TranscriptionRepository) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	repo := memory.NewTranscriptionRepository()
	svc := usecase.NewTranscriptionService(stt, repo, nil, time.Hour, logger)

	e := echo.New()
	InitRoutes(e, svc, stubVoice{}, opts, logger)
	return e, repo
}

func uploadRequest(t *testing.T, field string, audio []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, "audio.pcm")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(audio)
	}
	for k, v := range fields {
		w.WriteField(k, v)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/voice/transcribe", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	e, _ := setupServer(t, &stubSpeechToText{}, Options{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	decode(t, rec, &resp)
	if resp.Status != "ok" || resp.Service != "tripvoice-server" || resp.Provider != "stub" {
		t.Errorf("unexpected health %+v", resp)
	}
}

func TestTranscribe_Success(t *testing.T) {
	stt := &stubSpeechToText{text: "帮我订一张去上海的火车票"}
	e, repo := setupServer(t, stt, Options{UploadLimit: "1M"})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, uploadRequest(t, "file", make([]byte, 3200), map[string]string{"language": "zh_cn"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp TranscribeResponse
	decode(t, rec, &resp)
	if resp.Transcript != "帮我订一张去上海的火车票" || resp.ID == "" {
		t.Errorf("unexpected response %+v", resp)
	}

	record, err := repo.GetByID(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("record not stored: %v", err)
	}
	if record.Source != entities.TranscriptionSourceUpload || record.AudioBytes != 3200 {
		t.Errorf("unexpected record %+v", record)
	}
	if stt.config.SampleRate != 16000 || stt.config.Language != "zh_cn" {
		t.Errorf("unexpected audio config %+v", stt.config)
	}
}

func TestTranscribe_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		code   string
	}{
		{"missing file", func(t *testing.T) *http.Request {
			return uploadRequest(t, "", nil, map[string]string{"language": "zh_cn"})
		}, http.StatusBadRequest, "missing_file"},
		{"wrong field", func(t *testing.T) *http.Request {
			return uploadRequest(t, "audio", []byte{1, 2}, nil)
		}, http.StatusBadRequest, "missing_file"},
		{"bad sample rate", func(t *testing.T) *http.Request {
			return uploadRequest(t, "file", []byte{1, 2}, map[string]string{"sample_rate": "fast"})
		}, http.StatusBadRequest, "invalid_sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := setupServer(t, &stubSpeechToText{text: "x"}, Options{})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, tt.req(t))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var resp ErrorResponse
			decode(t, rec, &resp)
			if resp.Error != tt.code {
				t.Errorf("error = %q, want %q", resp.Error, tt.code)
			}
		})
	}
}

func TestTranscribe_BodyLimit(t *testing.T) {
	e, _ := setupServer(t, &stubSpeechToText{text: "x"}, Options{UploadLimit: "1K"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, uploadRequest(t, "file", make([]byte, 4096), nil))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestTranscribe_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"configuration", &domain.ConfigurationError{Field: "VOICE_API_KEY"}, http.StatusInternalServerError, "configuration_error"},
		{"timeout", &domain.TimeoutError{After: 20 * time.Second}, http.StatusGatewayTimeout, "transcription_timeout"},
		{"provider", &domain.ProviderError{Provider: "iflytek", Code: 10165, Message: "invalid handle"}, http.StatusBadGateway, "provider_error"},
		{"transport", &domain.TransportError{Op: "read", Err: errors.New("reset")}, http.StatusBadGateway, "transport_error"},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, "canceled"},
		{"deadline", fmt.Errorf("transcribe: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "deadline_exceeded"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := setupServer(t, &stubSpeechToText{err: tt.err}, Options{})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, uploadRequest(t, "file", []byte{1, 2, 3}, nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var resp ErrorResponse
			decode(t, rec, &resp)
			if resp.Error != tt.code {
				t.Errorf("error = %q, want %q", resp.Error, tt.code)
			}
		})
	}
}

func TestTranscriptions_GetAndList(t *testing.T) {
	e, repo := setupServer(t, &stubSpeechToText{}, Options{})
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		record := entities.NewTranscription(entities.TranscriptionSourceUpload, "stub", 10, time.Hour)
		record.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		record.Complete("text")
		if err := repo.Create(ctx, record); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, record.ID)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transcriptions/"+ids[0], nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got entities.Transcription
	decode(t, rec, &got)
	if got.ID != ids[0] || got.Transcript != "text" {
		t.Errorf("unexpected record %+v", got)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transcriptions/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing record status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transcriptions?limit=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list TranscriptionListResponse
	decode(t, rec, &list)
	if list.Count != 2 || list.Transcriptions[0].ID != ids[2] {
		t.Errorf("unexpected list %+v", list)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transcriptions?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid limit status = %d", rec.Code)
	}
}

func TestRoutes_MetricsAndVoice(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tripvoice_ws_clients 0\n"))
	})
	e, _ := setupServer(t, &stubSpeechToText{}, Options{Metrics: metrics})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "tripvoice_ws_clients") {
		t.Errorf("metrics not mounted: %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/voice", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("voice route not mounted, status = %d", rec.Code)
	}
}

func TestRoutes_NoMetricsHandler(t *testing.T) {
	e, _ := setupServer(t, &stubSpeechToText{}, Options{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
