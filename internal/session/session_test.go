package session

import (
	"errors"
	"testing"
	"time"

	"fieldscope/internal/conn"
)

// refusingDialer fails every dial, which keeps lifecycle tests off the
// network.
type refusingDialer struct{}

func (refusingDialer) Dial(endpoint string) (conn.Conn, error) {
	return nil, errors.New("refused")
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv(EnvEndpoint, "")
	t.Setenv(EnvReconnectDelay, "")
	t.Setenv(EnvHistoryLimit, "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Endpoint != DefaultEndpoint {
		t.Fatalf("expected default endpoint, got %q", cfg.Endpoint)
	}
	if cfg.ReconnectDelay != 0 || cfg.HistoryLimit != 0 {
		t.Fatalf("expected zero overrides, got %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv(EnvEndpoint, "ws://sim.local:9000/ws")
	t.Setenv(EnvReconnectDelay, "250ms")
	t.Setenv(EnvHistoryLimit, "12")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Endpoint != "ws://sim.local:9000/ws" {
		t.Fatalf("unexpected endpoint %q", cfg.Endpoint)
	}
	if cfg.ReconnectDelay != 250*time.Millisecond {
		t.Fatalf("unexpected reconnect delay %v", cfg.ReconnectDelay)
	}
	if cfg.HistoryLimit != 12 {
		t.Fatalf("unexpected history limit %d", cfg.HistoryLimit)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Run("reconnect delay", func(t *testing.T) {
		t.Setenv(EnvReconnectDelay, "soon")
		if _, err := FromEnv(); err == nil {
			t.Fatalf("expected error for unparseable duration")
		}
	})
	t.Run("history limit", func(t *testing.T) {
		t.Setenv(EnvReconnectDelay, "")
		t.Setenv(EnvHistoryLimit, "many")
		if _, err := FromEnv(); err == nil {
			t.Fatalf("expected error for unparseable limit")
		}
	})
}

func TestOpenRequiresEndpoint(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatalf("expected error for missing endpoint")
	}
}

func TestOpenClose(t *testing.T) {
	s, err := Open(Config{
		Endpoint:       "ws://127.0.0.1:1/ws",
		ReconnectDelay: time.Hour,
		Dialer:         refusingDialer{},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Store == nil || s.Manager == nil || s.Metrics == nil {
		t.Fatalf("expected wired session components")
	}
	if s.ExpvarName() == "" {
		t.Fatalf("expected a generated expvar name")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestExpvarNamePassedThrough(t *testing.T) {
	s, err := Open(Config{
		Endpoint:       "ws://127.0.0.1:1/ws",
		ReconnectDelay: time.Hour,
		Dialer:         refusingDialer{},
		ExpvarName:     "fieldscope_test_session",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()
	if got := s.ExpvarName(); got != "fieldscope_test_session" {
		t.Fatalf("expected configured name, got %q", got)
	}
}
