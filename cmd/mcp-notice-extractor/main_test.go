package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/a3tai/mcp-notice-extractor/internal/config"
)

const testVersion = "1.2.3"

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = originalStdout }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
		w.Close()
	}()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	<-done
	return buf.String()
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	version = testVersion
	buildTime = "2024-06-15_10:30:00"
	gitCommit = "abc123"

	output := captureStdout(t, printVersion)

	expectedStrings := []string{
		"MCP Notice Extractor",
		"Version: " + testVersion,
		"Build Time: 2024-06-15_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestHasVersionFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{name: "no flags", args: nil, want: false},
		{name: "-version", args: []string{"-version"}, want: true},
		{name: "--version", args: []string{"--version"}, want: true},
		{name: "-v", args: []string{"-v"}, want: true},
		{name: "with other args", args: []string{"--mode=server", "--version", "--port=8080"}, want: true},
		{name: "similar but not version", args: []string{"--verbose", "-versions"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasVersionFlag(tt.args); got != tt.want {
				t.Errorf("hasVersionFlag(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		logLevel  string
		wantLevel zapcore.Level
		wantNop   bool
	}{
		{name: "stdio without debug", mode: config.ModeStdio, logLevel: "info", wantNop: true},
		{name: "stdio with debug", mode: config.ModeStdio, logLevel: "debug", wantLevel: zapcore.DebugLevel},
		{name: "server info", mode: config.ModeServer, logLevel: "info", wantLevel: zapcore.InfoLevel},
		{name: "server warn", mode: config.ModeServer, logLevel: "warn", wantLevel: zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := newLogger(&config.Config{Mode: tt.mode, LogLevel: tt.logLevel})
			if err != nil {
				t.Fatalf("newLogger() error = %v", err)
			}

			if tt.wantNop {
				if logger.Core().Enabled(zapcore.ErrorLevel) {
					t.Errorf("newLogger() in quiet stdio mode should not log")
				}
				return
			}

			if !logger.Core().Enabled(tt.wantLevel) {
				t.Errorf("newLogger() level %s should be enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && logger.Core().Enabled(tt.wantLevel-1) {
				t.Errorf("newLogger() level below %s should be disabled", tt.wantLevel)
			}
		})
	}
}
