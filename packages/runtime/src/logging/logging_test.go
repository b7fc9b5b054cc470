package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"au-go/packages/runtime/src/logging"
)

func TestContextLogger(t *testing.T) {
	t.Run("falls back to the default logger", func(t *testing.T) {
		if logging.FromContext(context.Background()) != slog.Default() {
			t.Errorf("Expected slog.Default()")
		}
	})

	t.Run("returns the embedded logger", func(t *testing.T) {
		l := logging.Discard()
		ctx := logging.WithLogger(context.Background(), l)
		if logging.FromContext(ctx) != l {
			t.Errorf("Expected embedded logger")
		}
	})
}

func TestNew(t *testing.T) {
	cases := []struct {
		level, format string
		wantErr       bool
		wantJSON      bool
	}{
		{"debug", "text", false, false},
		{"info", "json", false, true},
		{"warn", "", false, false},
		{"verbose", "text", true, false},
		{"info", "xml", true, false},
	}
	for _, c := range cases {
		t.Run(c.level+"/"+c.format, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := logging.New(&buf, c.level, c.format)
			if (err != nil) != c.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if err != nil {
				return
			}
			l.Error("hello")
			if got := strings.HasPrefix(buf.String(), "{"); got != c.wantJSON {
				t.Errorf("json output = %v, want %v: %q", got, c.wantJSON, buf.String())
			}
		})
	}
}
