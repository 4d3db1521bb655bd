package backend

import (
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

func TestNewLoggerToFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	prev := log.Default()
	defer log.SetDefault(prev)

	logger, closer, err := NewLogger(fs, AppConfig{LogLevel: "warn", LogFile: "/duoplay.log"})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("not written")
	logger.Warn("gate stalled", "item", "abc")
	closer.Close()

	b, err := afero.ReadFile(fs, "/duoplay.log")
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	if strings.Contains(out, "not written") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "gate stalled") || !strings.Contains(out, "item=abc") {
		t.Errorf("unexpected log output %q", out)
	}
}

func TestNewLoggerBadLevel(t *testing.T) {
	prev := log.Default()
	defer log.SetDefault(prev)

	logger, _, err := NewLogger(afero.NewMemMapFs(), AppConfig{LogLevel: "chatty"})
	if err != nil {
		t.Fatal(err)
	}
	if logger.GetLevel() != log.InfoLevel {
		t.Errorf("level = %v, want info", logger.GetLevel())
	}
}
