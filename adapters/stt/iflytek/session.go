package iflytek

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/tripvoice/domain"
)

const closeGracePeriod = time.Second

// State is the lifecycle position of one recognition session.
type State int

const (
	StateConnecting State = iota
	StateStreaming
	StateAwaitingFinal
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateAwaitingFinal:
		return "awaiting_final"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// session streams one audio buffer over one connection and settles exactly
// once with either the final transcript or an error.
type session struct {
	cfg       Config
	business  businessParams
	format    string
	audio     []byte
	dialer    *websocket.Dialer
	logger    *zap.Logger
	cancelRun context.CancelFunc

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	segments Segments
	sid      string

	done chan struct{}
	text string
	err  error
}

func newSession(cfg Config, audio []byte, sampleRate int, language string, dialer *websocket.Dialer, logger *zap.Logger) *session {
	if language == "" {
		language = cfg.Language
	}
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	return &session{
		cfg: cfg,
		business: businessParams{
			Language: language,
			Domain:   cfg.Domain,
			Accent:   cfg.Accent,
			VadEOS:   cfg.VadEOS,
			DWA:      "wpgs",
			PTT:      1,
		},
		format:   fmt.Sprintf("audio/L16;rate=%d", sampleRate),
		audio:    audio,
		dialer:   dialer,
		logger:   logger,
		segments: make(Segments),
		done:     make(chan struct{}),
	}
}

// run dials signedURL, streams the audio and blocks until the session settles.
func (s *session) run(ctx context.Context, signedURL string) (string, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancelRun = cancel

	timer := time.AfterFunc(s.cfg.Timeout, func() {
		s.logger.Warn("Recognition timed out", zap.Duration("timeout", s.cfg.Timeout), zap.String("sid", s.sessionID()))
		s.fail(&domain.TimeoutError{After: s.cfg.Timeout})
	})
	defer timer.Stop()

	go func() {
		select {
		case <-ctx.Done():
			s.fail(ctx.Err())
		case <-s.done:
		}
	}()

	conn, resp, err := s.dialer.DialContext(runCtx, signedURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		s.fail(&domain.TransportError{Op: "dial", Err: err})
		<-s.done
		return s.text, s.err
	}

	if !s.attach(conn) {
		conn.Close()
		return s.text, s.err
	}
	s.logger.Debug("Connected to recognizer", zap.Int("audioBytes", len(s.audio)))

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(s.readLoop)
	g.Go(func() error { return s.sendLoop(gctx) })

	<-s.done
	_ = g.Wait()
	return s.text, s.err
}

func (s *session) attach(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSettled {
		return false
	}
	s.conn = conn
	s.state = StateStreaming
	return true
}

func (s *session) sendLoop(ctx context.Context) error {
	frames := SplitFrames(len(s.audio), s.cfg.ChunkSize)

	for i, f := range frames {
		if s.settled() {
			return nil
		}
		if err := s.write(s.frameRequest(f)); err != nil {
			return s.sendFailed(err)
		}
		if i == len(frames)-1 {
			break
		}

		select {
		case <-time.After(s.cfg.FrameInterval):
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		}
	}

	if !s.transition(StateStreaming, StateAwaitingFinal) {
		return nil
	}
	if err := s.write(terminalRequest); err != nil {
		return s.sendFailed(err)
	}
	s.logger.Debug("Audio upload complete", zap.Int("frames", len(frames)))
	return nil
}

func (s *session) frameRequest(f Frame) frameRequest {
	req := frameRequest{
		Data: frameData{
			Status:   f.Status,
			Format:   s.format,
			Encoding: "raw",
			Audio:    base64.StdEncoding.EncodeToString(s.audio[f.Start:f.End]),
		},
	}
	if f.Index == 0 {
		req.Common = &commonParams{AppID: s.cfg.AppID}
		business := s.business
		req.Business = &business
	}
	return req
}

// write sends req as a single text message. Only the send loop writes data
// frames; closing uses WriteControl, which gorilla allows concurrently.
func (s *session) write(req frameRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *session) sendFailed(err error) error {
	if s.settled() {
		return nil
	}
	s.fail(&domain.TransportError{Op: "write", Err: err})
	return err
}

func (s *session) readLoop() error {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.settled() {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				s.logger.Info("Recognizer closed the connection before the final result",
					zap.Int("code", closeErr.Code),
					zap.String("sid", s.sessionID()),
				)
				s.resolve()
				return nil
			}
			s.fail(&domain.TransportError{Op: "read", Err: err})
			return err
		}

		if s.handleMessage(data) {
			return nil
		}
	}
}

// handleMessage applies one inbound message and reports whether the
// session settled because of it.
func (s *session) handleMessage(data []byte) bool {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		s.fail(&domain.TransportError{Op: "decode", Err: err})
		return true
	}

	if resp.SID != "" {
		s.mu.Lock()
		s.sid = resp.SID
		s.mu.Unlock()
	}

	if resp.Code != 0 {
		s.fail(&domain.ProviderError{
			Provider: providerName,
			Code:     resp.Code,
			Message:  resp.Message,
			SID:      resp.SID,
		})
		return true
	}

	if resp.Data != nil && resp.Data.Result != nil {
		s.mu.Lock()
		if s.state != StateSettled {
			s.segments.Apply(resp.Data.Result)
		}
		s.mu.Unlock()
	}

	if resp.final() {
		s.resolve()
		return true
	}
	return false
}

// resolve settles the session with the current reconstruction.
func (s *session) resolve() {
	s.mu.Lock()
	if s.state == StateSettled {
		s.mu.Unlock()
		return
	}
	s.state = StateSettled
	s.text = strings.TrimSpace(s.segments.Text())
	conn := s.conn
	s.mu.Unlock()

	s.release(conn, websocket.CloseNormalClosure, "done")
}

// fail settles the session with err. Later calls are no-ops.
func (s *session) fail(err error) {
	s.mu.Lock()
	if s.state == StateSettled {
		s.mu.Unlock()
		return
	}
	s.state = StateSettled
	s.err = err
	conn := s.conn
	s.mu.Unlock()

	code, reason := websocket.CloseProtocolError, "error"
	var timeoutErr *domain.TimeoutError
	switch {
	case errors.As(err, &timeoutErr):
		code, reason = websocket.CloseNormalClosure, "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code, reason = websocket.CloseGoingAway, "canceled"
	}
	s.release(conn, code, reason)
}

func (s *session) release(conn *websocket.Conn, code int, reason string) {
	close(s.done)
	if s.cancelRun != nil {
		s.cancelRun()
	}
	if conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	_ = conn.Close()
}

func (s *session) transition(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

func (s *session) settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateSettled
}

func (s *session) currentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) sessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sid
}
