package logx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"DEBUG":    zerolog.DebugLevel,
		" warn ":   zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"all":      zerolog.TraceLevel,
		"off":      zerolog.Disabled,
		"":         zerolog.InfoLevel,
		"verbose!": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComponentTagsLines(t *testing.T) {
	var buf bytes.Buffer
	old := Log
	Log = zerolog.New(&buf)
	defer func() { Log = old }()

	log := Component("scheduler")
	log.Info().Msg("tick")

	line := buf.String()
	if !strings.Contains(line, `"component":"scheduler"`) {
		t.Fatalf("missing component tag in %q", line)
	}
	if !strings.Contains(line, `"message":"tick"`) {
		t.Fatalf("missing message in %q", line)
	}
}
