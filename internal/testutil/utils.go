package testutil

import (
	"log"
	"testing"
)

// TestLogger returns a logger routed through t.Logf so log lines attach to
// the test that produced them instead of interleaving on stdout.
func TestLogger(t *testing.T) *log.Logger {
	return log.New(testWriter{t}, "[test] ", log.LstdFlags)
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}
