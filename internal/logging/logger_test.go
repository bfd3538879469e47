package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bif/internal/config"
	"bif/internal/logging"
)

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "scan").Info("file skipped",
		logging.Path("/photos/a b.jpg"),
		logging.Int("size", 3),
	)

	line := buf.String()
	for _, want := range []string{` INFO  scan: file skipped "/photos/a b.jpg" size=3`} {
		if !strings.Contains(line, want) {
			t.Fatalf("console line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "path=") {
		t.Fatalf("path should follow the message unlabelled, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerFlattensGroupsAndOmitsScanID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithScanID(context.Background(), "scan-1")
	logging.WithContext(ctx, logger).WithGroup("stats").Info("scan complete",
		logging.Int("groups", 2),
		logging.Float64("ev", -0.7),
	)

	line := buf.String()
	if !strings.Contains(line, "scan complete stats.groups=2 stats.ev=-0.7") {
		t.Fatalf("unexpected console line %q", line)
	}
	if strings.Contains(line, "scan-1") {
		t.Fatalf("console line should omit scan id, got %q", line)
	}
}

func TestStdoutOutputRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{OutputPaths: []string{"stdout"}}); err == nil {
		t.Fatal("expected stdout output to be rejected")
	}
}

func TestDefaultLevelIsWarn(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestJSONLoggerWritesFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "bif.log")
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithScanID(context.Background(), "scan-1")
	logging.WithContext(ctx, logger).Info("scan complete", logging.Int("groups", 2))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["msg"] != "scan complete" || payload["level"] != "info" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload[logging.FieldScanID] != "scan-1" {
		t.Fatalf("scan id missing from payload %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("timestamp key missing from payload %v", payload)
	}
}

func TestRejectsUnknownFormatAndLevel(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := logging.New(logging.Options{Level: "loud", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewFromConfigAddsLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "info"
	cfg.Logging.File = filepath.Join(t.TempDir(), "bif.log")

	var stderr bytes.Buffer
	logger, err := logging.NewFromConfig(&cfg, &stderr)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("written to file")

	content, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "written to file") {
		t.Fatalf("log file missing message: %q", content)
	}
	if !strings.Contains(stderr.String(), "written to file") {
		t.Fatalf("stderr missing message: %q", stderr.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "malformed metadata", "metadata_malformed",
		logging.String(logging.FieldErrorHint, "re-export the file"))

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldEventType] != "metadata_malformed" {
		t.Fatalf("event type = %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldErrorHint] != "re-export the file" {
		t.Fatalf("error hint overwritten: %v", payload[logging.FieldErrorHint])
	}
	if payload[logging.FieldImpact] == nil {
		t.Fatalf("impact missing from payload %v", payload)
	}
}

func TestScanIDFromContext(t *testing.T) {
	if _, ok := logging.ScanIDFromContext(context.Background()); ok {
		t.Fatal("empty context reported a scan id")
	}
	ctx := logging.WithScanID(context.Background(), "  ")
	if _, ok := logging.ScanIDFromContext(ctx); ok {
		t.Fatal("blank scan id stored")
	}
	ctx = logging.WithScanID(context.Background(), "abc")
	if id, ok := logging.ScanIDFromContext(ctx); !ok || id != "abc" {
		t.Fatalf("ScanIDFromContext = %q %v", id, ok)
	}
}
