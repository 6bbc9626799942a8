package common

import (
	"errors"
	"testing"
)

type pauseMap map[string]bool

func (p pauseMap) IsPaused(module string) bool { return p[module] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, "vault"); err != nil {
		t.Fatalf("nil view must not block: %v", err)
	}
	if err := Guard(pauseMap{"vault": true}, ""); err != nil {
		t.Fatalf("empty module must not block: %v", err)
	}
	if err := Guard(pauseMap{"vault": true}, "vault"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected paused error, got %v", err)
	}
	if err := Guard(pauseMap{"vault": true}, "auction"); err != nil {
		t.Fatalf("other modules must pass: %v", err)
	}
}
