package logging

import "testing"

func TestNewAcceptsKnownLevels(t *testing.T) {
	t.Parallel()

	for _, level := range []string{"", "debug", "info", "WARN", " error "} {
		logger, err := New(level)
		if err != nil {
			t.Errorf("New(%q) error = %v", level, err)
			continue
		}
		_ = logger.Sync()
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := New("loud"); err == nil {
		t.Fatal("New(loud) succeeded")
	}
}
