package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/hashsum/pkg/hashsum/logging"
)

// Tests in this file share the package's global state and do not run in
// parallel.

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	return string(content)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr error
	}{
		{
			name: "defaults",
			cfg:  logging.Config{Level: "info", Path: filepath.Join(dir, "a.log")},
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level:      "warn",
				Path:       filepath.Join(dir, "b.log"),
				Components: map[string]string{"cache": "debug"},
			},
		},
		{
			name:    "invalid level",
			cfg:     logging.Config{Level: "loud", Path: filepath.Join(dir, "c.log")},
			wantErr: logging.ErrInvalidLevel,
		},
		{
			name:    "invalid component level",
			cfg:     logging.Config{Level: "info", Path: filepath.Join(dir, "d.log"), Components: map[string]string{"x": "nope"}},
			wantErr: logging.ErrInvalidLevel,
		},
		{
			name:    "invalid console level",
			cfg:     logging.Config{Level: "info", Path: filepath.Join(dir, "e.log"), ConsoleLevel: "nope"},
			wantErr: logging.ErrInvalidLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Init() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			if err := logging.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}

	t.Run("unwritable path", func(t *testing.T) {
		err := logging.Init(logging.Config{Level: "info", Path: filepath.Join(blocker, "x.log")})
		if err == nil {
			_ = logging.Close()
			t.Fatal("Init() expected error for path below a regular file")
		}
	})
}

func TestLevelsAndComponents(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "levels.log")

	err := logging.Init(logging.Config{
		Level:      "warn",
		Path:       logPath,
		Components: map[string]string{"cache": "debug"},
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	verify := logging.Get("verify")
	verify.Info("verify info hidden")
	verify.Warn("verify warn shown")
	logging.Get("cache").Debug("cache debug shown")
	logging.Get("cache").With("path", "/tmp/a").Error("with context")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content := readLog(t, logPath)
	for _, want := range []string{"verify warn shown", "cache debug shown", "with context", "/tmp/a"} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q, got: %s", want, content)
		}
	}
	if strings.Contains(content, "verify info hidden") {
		t.Error("info message should be filtered at warn level")
	}
}

func TestLoggerBeforeInitDiscards(t *testing.T) {
	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	logger := logging.Get("early")
	if logger == nil {
		t.Fatal("Get() returned nil")
	}
	logger.Error("goes nowhere")
}

func TestInitRebuildsExistingLoggers(t *testing.T) {
	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	early := logging.Get("manifest")
	early.Info("before init")

	logPath := filepath.Join(t.TempDir(), "rebuild.log")
	if err := logging.Init(logging.Config{Level: "info", Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	logging.Get("manifest").Info("after init")
	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content := readLog(t, logPath)
	if strings.Contains(content, "before init") {
		t.Error("messages before Init must be discarded")
	}
	if !strings.Contains(content, "after init") {
		t.Errorf("log missing message after Init, got: %s", content)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want logging.Level
	}{
		{"DEBUG", logging.LevelDebug},
		{"info", logging.LevelInfo},
		{"warning", logging.LevelWarn},
		{"error", logging.LevelError},
	}
	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if got.String() == "unknown" {
			t.Errorf("Level(%d).String() = unknown", got)
		}
	}
}

func TestDefaultLogPath(t *testing.T) {
	t.Parallel()

	path := logging.DefaultLogPath()
	if !strings.HasSuffix(path, filepath.Join("hashsum", "hashsum.log")) {
		t.Errorf("DefaultLogPath() = %q", path)
	}
}
