package iflytek

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func newTestSession() *session {
	cfg := Config{AppID: "app"}.withDefaults()
	return newSession(cfg, []byte("pcm"), 0, "", nil, zap.NewNop())
}

func TestSession_SettlesOnce(t *testing.T) {
	s := newTestSession()

	if settled := s.handleMessage([]byte(`{"code":0,"sid":"a","data":{"status":1,"result":{"sn":1,"ws":[{"cw":[{"w":"你好"}]}]}}}`)); settled {
		t.Fatal("intermediate message settled the session")
	}
	if settled := s.handleMessage([]byte(`{"code":0,"sid":"a","data":{"status":2,"result":{"sn":2,"ws":[{"cw":[{"w":"世界"}]}]}}}`)); !settled {
		t.Fatal("final message did not settle the session")
	}

	// Late signals: a trailing result, a close and an error.
	s.handleMessage([]byte(`{"code":0,"data":{"status":1,"result":{"sn":3,"ws":[{"cw":[{"w":"!"}]}]}}}`))
	s.resolve()
	s.fail(errors.New("late failure"))

	select {
	case <-s.done:
	default:
		t.Fatal("done channel not closed")
	}
	if s.text != "你好世界" || s.err != nil {
		t.Errorf("settled with %q, %v", s.text, s.err)
	}
	if s.currentState() != StateSettled {
		t.Errorf("state = %v", s.currentState())
	}
	if s.sessionID() != "a" {
		t.Errorf("sid = %q", s.sessionID())
	}
}

func TestSession_LastSegmentFlag(t *testing.T) {
	s := newTestSession()
	if !s.handleMessage([]byte(`{"code":0,"data":{"status":1,"result":{"sn":1,"ls":true,"ws":[{"cw":[{"w":" ok "}]}]}}}`)) {
		t.Fatal("ls=true did not settle the session")
	}
	if s.text != "ok" {
		t.Errorf("text = %q", s.text)
	}
}

func TestSession_FailureWinsWhenFirst(t *testing.T) {
	s := newTestSession()
	s.handleMessage([]byte(`{"code":10313,"message":"appid cannot be empty"}`))
	s.resolve()

	if s.err == nil || s.text != "" {
		t.Fatalf("settled with %q, %v", s.text, s.err)
	}
}

func TestSession_MessageWithoutResult(t *testing.T) {
	s := newTestSession()
	if s.handleMessage([]byte(`{"code":0,"message":"success","sid":"x"}`)) {
		t.Fatal("message without data settled the session")
	}
	if s.currentState() != StateConnecting {
		t.Errorf("state = %v", s.currentState())
	}
}

func TestState_String(t *testing.T) {
	names := map[State]string{
		StateConnecting:    "connecting",
		StateStreaming:     "streaming",
		StateAwaitingFinal: "awaiting_final",
		StateSettled:       "settled",
		State(42):          "unknown",
	}
	for state, want := range names {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
