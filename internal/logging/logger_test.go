package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestInit_LevelFallback(t *testing.T) {
	l, err := Init("nonsense", "dev")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer l.Closer()
	if l.Level.Level() != zap.InfoLevel {
		t.Fatalf("want info level, got %s", l.Level.Level())
	}

	l2, err := Init("debug", "prod")
	if err != nil {
		t.Fatalf("init prod: %v", err)
	}
	if !l2.Base.Core().Enabled(zap.DebugLevel) {
		t.Fatalf("debug should be enabled")
	}
}
