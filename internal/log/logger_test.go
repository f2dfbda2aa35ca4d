package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestComponentTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug")

	Component(logger, "hub").Debug().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "component") || !strings.Contains(out, "hub") || !strings.Contains(out, "hello") {
		t.Fatalf("unexpected log line: %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn")

	logger.Info().Msg("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
	if got := parseLevel("bogus"); got != zerolog.InfoLevel {
		t.Fatalf("parseLevel(bogus) = %v, want info", got)
	}
}

func TestComponentOfNilParent(t *testing.T) {
	Component(nil, "x").Info().Msg("dropped")
}
