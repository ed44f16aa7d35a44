package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	logg.Info(context.Background(), "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry: %v", err)
	}
	if entry["service"] != "api" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
	if entry["message"] != "hello" {
		t.Fatalf("expected message field, got %v", entry["message"])
	}
}

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	ctx := logg.WithAWB(context.Background(), "LT20260828AB12CD34")
	ctx = logg.WithCourierID(ctx, "c-1")
	logg.Info(ctx, "in-scan")

	out := buf.String()
	if !strings.Contains(out, "LT20260828AB12CD34") {
		t.Fatalf("expected awb in output: %s", out)
	}
	if !strings.Contains(out, `"courier_id":"c-1"`) {
		t.Fatalf("expected courier_id in output: %s", out)
	}
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	logg.Error(context.Background(), "boom", errors.New("db down"))

	out := buf.String()
	if !strings.Contains(out, "db down") {
		t.Fatalf("expected error message: %s", out)
	}
	if !strings.Contains(out, "stack") {
		t.Fatalf("expected stack field: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("warn") != zerolog.WarnLevel {
		t.Fatal("expected warn level")
	}
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("expected info default")
	}
	if ParseLevel("bogus") != zerolog.InfoLevel {
		t.Fatal("expected info fallback")
	}
}
