package transport

import (
	"errors"
	"testing"
	"time"
)

func TestNewEmbeddedTor(t *testing.T) {
	t.Parallel()

	t.Run("default timeout", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedTor()
		if e.startupTimeout != 3*time.Minute {
			t.Errorf("expected default timeout 3m, got %v", e.startupTimeout)
		}
	})

	t.Run("custom timeout", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedTor(WithStartupTimeout(time.Minute))
		if e.startupTimeout != time.Minute {
			t.Errorf("expected timeout 1m, got %v", e.startupTimeout)
		}
	})
}

func TestEmbeddedTorNotStarted(t *testing.T) {
	t.Parallel()

	e := NewEmbeddedTor()
	if e.IsRunning() {
		t.Error("expected IsRunning() = false before Start")
	}
	if e.SocksAddr() != "" {
		t.Errorf("expected empty SocksAddr, got %q", e.SocksAddr())
	}
	if err := e.Stop(); err != nil {
		t.Errorf("Stop() on unstarted daemon returned %v", err)
	}
	if _, err := e.NewHTTPClient(); !errors.Is(err, ErrTorNotRunning) {
		t.Errorf("expected ErrTorNotRunning, got %v", err)
	}
}
