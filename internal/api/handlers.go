package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/domain"
	"github.com/satriahrh/tripvoice/domain/entities"
	"github.com/satriahrh/tripvoice/domain/repositories"
)

type handler struct {
	transcriptions Transcriptions
	logger         *zap.Logger
}

func (h *handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Service:  serviceName,
		Provider: h.transcriptions.Provider(),
	})
}

// transcribe accepts a multipart "file" of raw 16 kHz 16-bit mono PCM.
func (h *handler) transcribe(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_file",
			Message: "No audio file provided",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded audio", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_file",
			Message: "Uploaded audio could not be read",
		})
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded audio", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_file",
			Message: "Uploaded audio could not be read",
		})
	}

	config := repositories.DefaultAudioConfig()
	if v := c.FormValue("sample_rate"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_sample_rate",
				Message: "sample_rate must be a positive integer",
			})
		}
		config.SampleRate = rate
	}
	config.Language = c.FormValue("language")

	record, err := h.transcriptions.Transcribe(c.Request().Context(), entities.TranscriptionSourceUpload, audio, config)
	if err != nil {
		status, resp := errorResponse(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Transcription request failed", zap.Error(err), zap.Int("status", status))
		}
		return c.JSON(status, resp)
	}

	return c.JSON(http.StatusOK, TranscribeResponse{
		Transcript: record.Transcript,
		ID:         record.ID,
	})
}

func (h *handler) getTranscription(c echo.Context) error {
	record, err := h.transcriptions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrTranscriptionNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Transcription not found",
			})
		}
		h.logger.Error("Failed to load transcription", zap.String("id", c.Param("id")), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}
	return c.JSON(http.StatusOK, record)
}

func (h *handler) listTranscriptions(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_limit",
				Message: "limit must be a non-negative integer",
			})
		}
		limit = n
	}

	records, err := h.transcriptions.ListRecent(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list transcriptions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}
	return c.JSON(http.StatusOK, TranscriptionListResponse{
		Transcriptions: records,
		Count:          len(records),
	})
}

// errorResponse maps a transcription failure to an HTTP status and body.
func errorResponse(err error) (int, ErrorResponse) {
	kind := domain.ErrorKind(err)
	resp := ErrorResponse{Error: kind, Message: err.Error()}

	switch kind {
	case "configuration_error":
		return http.StatusInternalServerError, resp
	case "transcription_timeout":
		return http.StatusGatewayTimeout, resp
	case "provider_error", "transport_error":
		return http.StatusBadGateway, resp
	}

	switch {
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "canceled", Message: "request canceled"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "deadline_exceeded", Message: "request deadline exceeded"}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Transcription failed"}
}
