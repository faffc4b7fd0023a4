package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/domain"
	"github.com/satriahrh/tripvoice/domain/repositories"
)

// googleChunkSize stays under the 25 KB streaming request limit.
const googleChunkSize = 16 * 1024

// GoogleSpeechToText implements SpeechToText for Google Cloud. Credentials
// come from Application Default Credentials.
type GoogleSpeechToText struct {
	language string
	logger   *zap.Logger
}

func NewGoogleSpeechToText(language string, logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{language: language, logger: logger}
}

func (g *GoogleSpeechToText) Name() string { return "google" }

// TranscribeAudio streams the buffer in chunks and joins every final result.
func (g *GoogleSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", nil
	}

	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return "", &domain.ConfigurationError{Field: "encoding", Err: err}
	}
	language := config.Language
	if language == "" {
		language = g.language
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", &domain.ConfigurationError{Field: "GOOGLE_APPLICATION_CREDENTIALS", Err: err}
	}
	defer client.Close()

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		return "", &domain.TransportError{Op: "dial", Err: err}
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encoding,
					SampleRateHertz: int32(config.SampleRate),
					LanguageCode:    language,
				},
				InterimResults: false,
			},
		},
	}); err != nil {
		return "", &domain.TransportError{Op: "write", Err: err}
	}

	for start := 0; start < len(audioData); start += googleChunkSize {
		end := min(start+googleChunkSize, len(audioData))
		if err := stream.Send(&speechpb.StreamingRecognizeRequest{
			StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
				AudioContent: audioData[start:end],
			},
		}); err != nil {
			return "", &domain.TransportError{Op: "write", Err: err}
		}
	}
	if err := stream.CloseSend(); err != nil {
		return "", &domain.TransportError{Op: "write", Err: err}
	}

	var transcript strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", &domain.TransportError{Op: "read", Err: err}
		}
		if resp.Error != nil {
			return "", &domain.ProviderError{
				Provider: g.Name(),
				Code:     int(resp.Error.Code),
				Message:  resp.Error.Message,
			}
		}
		for _, result := range resp.Results {
			if result.IsFinal && len(result.Alternatives) > 0 {
				transcript.WriteString(result.Alternatives[0].Transcript)
			}
		}
	}

	text := strings.TrimSpace(transcript.String())
	g.logger.Info("Google recognition complete",
		zap.Int("audioBytes", len(audioData)),
		zap.String("language", language),
		zap.Int("transcriptLength", len(text)),
	)
	return text, nil
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "", "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
