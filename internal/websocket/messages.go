package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeListeningStart MessageType = "listening_start"
	MessageTypeListeningEnd   MessageType = "listening_end"
	MessageTypeTranscript     MessageType = "transcript"
	MessageTypePing           MessageType = "ping"
	MessageTypePong           MessageType = "pong"
	MessageTypeError          MessageType = "error"
)

// Error codes sent in ErrorMessage besides the transcription error kinds.
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeNotListening   = "not_listening"
	ErrorCodeAudioTooLarge  = "audio_too_large"
)

// ClientMessage is any text frame sent by the browser. Audio travels in
// binary frames between listening_start and listening_end.
type ClientMessage struct {
	Type       MessageType `json:"type"`
	SampleRate int         `json:"sample_rate,omitempty"`
	Encoding   string      `json:"encoding,omitempty"`
	Language   string      `json:"language,omitempty"`
}

// ListeningStartMessage acknowledges a new utterance
type ListeningStartMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Timestamp int64       `json:"timestamp"`
}

// TranscriptMessage carries the final transcript of an utterance
type TranscriptMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
	RecordID  string      `json:"record_id"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Code      string      `json:"error_code"`
	Message   string      `json:"message"`
}

// PongMessage answers a ping
type PongMessage struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
}

// ParseClientMessage decodes and validates a text frame
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	switch msg.Type {
	case MessageTypeListeningStart, MessageTypeListeningEnd, MessageTypePing:
	case "":
		return nil, errors.New("message type is required")
	default:
		return nil, fmt.Errorf("unsupported message type: %s", msg.Type)
	}

	if msg.SampleRate < 0 {
		return nil, errors.New("sample_rate cannot be negative")
	}
	return &msg, nil
}

func newListeningStart(sessionID string) ListeningStartMessage {
	return ListeningStartMessage{
		Type:      MessageTypeListeningStart,
		SessionID: sessionID,
		Timestamp: time.Now().Unix(),
	}
}

func newTranscript(sessionID, text, recordID string) TranscriptMessage {
	return TranscriptMessage{
		Type:      MessageTypeTranscript,
		SessionID: sessionID,
		Text:      text,
		RecordID:  recordID,
		Timestamp: time.Now().Unix(),
	}
}

func newError(sessionID, code, message string) ErrorMessage {
	return ErrorMessage{
		Type:      MessageTypeError,
		SessionID: sessionID,
		Code:      code,
		Message:   message,
	}
}

func newPong() PongMessage {
	return PongMessage{Type: MessageTypePong, Timestamp: time.Now().Unix()}
}
