package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/larsks/gerrit-view/config"
)

func TestFanoutSplitsAndTimestampsLines(t *testing.T) {
	var out bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{}, &out)
	if err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}
	defer fanout.Close()

	fanout.Write([]byte("first line\nsecond "))
	fanout.Write([]byte("line\n"))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out.String())
	}
	if !strings.HasSuffix(lines[0], " first line") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], " second line") {
		t.Fatalf("partial writes must be joined, got %q", lines[1])
	}
	for _, line := range lines {
		if len(line) < len(logTimestampLayout)+1 {
			t.Fatalf("line missing timestamp prefix: %q", line)
		}
	}
}

func TestFanoutBuffersPartialLine(t *testing.T) {
	var out bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{}, &out)
	if err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}
	defer fanout.Close()

	fanout.Write([]byte("no newline yet"))
	if out.Len() != 0 {
		t.Fatalf("incomplete line must not be emitted, got %q", out.String())
	}
	fanout.Write([]byte("\n"))
	if !strings.Contains(out.String(), "no newline yet") {
		t.Fatalf("buffered line lost: %q", out.String())
	}
}

func TestFanoutWritesFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.log")
	fanout, err := setupLogging(config.LoggingConfig{File: path}, nil)
	if err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}

	fanout.Write([]byte("persisted\n"))
	if err := fanout.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "persisted") {
		t.Fatalf("log file missing line: %q", string(data))
	}
}

func TestFanoutConsoleSwap(t *testing.T) {
	var first, second bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{}, &first)
	if err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}
	defer fanout.Close()

	fanout.Write([]byte("before\n"))
	fanout.SetConsoleSink(&second, false)
	fanout.Write([]byte("after\n"))

	if !strings.Contains(first.String(), "before") || strings.Contains(first.String(), "after") {
		t.Fatalf("old sink received wrong lines: %q", first.String())
	}
	if second.String() != "after\n" {
		t.Fatalf("new sink must receive untimestamped line, got %q", second.String())
	}
}

func TestFanoutBadLogFileStillReturnsConsole(t *testing.T) {
	var out bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{File: filepath.Join(t.TempDir(), "missing", "dir", "x.log")}, &out)
	if err == nil {
		t.Fatalf("expected error for unwritable log file")
	}
	if fanout == nil {
		t.Fatalf("fanout must still be usable without the file sink")
	}
	fanout.Write([]byte("still logs\n"))
	if !strings.Contains(out.String(), "still logs") {
		t.Fatalf("console sink lost after file error: %q", out.String())
	}
}

func TestFanoutNilSafe(t *testing.T) {
	var fanout *logFanout
	if _, err := fanout.Write([]byte("x\n")); err != nil {
		t.Fatalf("nil fanout write errored: %v", err)
	}
	fanout.SetConsoleSink(nil, false)
	if err := fanout.Close(); err != nil {
		t.Fatalf("nil fanout close errored: %v", err)
	}
}
