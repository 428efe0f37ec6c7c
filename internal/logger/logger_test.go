package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", FileConfig{}, &buf)

	log.Named("skinning").Info("resolved frame", zap.Int("bones", 4))
	log.Debug("hidden")
	_ = log.Sync()

	out := buf.String()
	if !strings.Contains(out, "resolved frame") || !strings.Contains(out, "bones") {
		t.Errorf("expected info entry with fields, got %q", out)
	}
	if !strings.Contains(out, "skinning") {
		t.Errorf("expected logger name in output, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry leaked at info level: %q", out)
	}
}

func TestNewWithoutOutputs(t *testing.T) {
	log := New("debug", FileConfig{}, nil)
	if log.Core().Enabled(zap.DebugLevel) {
		t.Error("expected no-op logger when no outputs are configured")
	}
}

func TestLBeforeInit(t *testing.T) {
	saved, savedSugar := Log, Sugar
	t.Cleanup(func() { Log, Sugar = saved, savedSugar })

	Log, Sugar = nil, nil
	if L() == nil {
		t.Fatal("L returned nil before Init")
	}

	// Helpers must not panic without a logger.
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")
	Named("scene").Info("named message")
	Sync()
}

func TestLogRotation(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "skin.log")

	// MaxSize is in MB; 1 is the smallest lumberjack allows
	log := New("debug", FileConfig{
		Path:       logFile,
		MaxSizeMB:  1,
		MaxBackups: 2,
		MaxAgeDays: 1,
		Compress:   false,
	}, nil)

	// ~250 bytes per line, so 15000 lines overflow 1MB at least twice
	payload := strings.Repeat("x", 200)
	sugar := log.Sugar()
	for i := 0; i < 15000; i++ {
		sugar.Infof("frame %d: %s", i, payload)
	}
	_ = log.Sync()

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Fatal("main log file does not exist")
	}

	files, err := os.ReadDir(filepath.Dir(logFile))
	if err != nil {
		t.Fatalf("failed to read log dir: %v", err)
	}

	rotated := 0
	for _, f := range files {
		name := f.Name()
		if name == "skin.log" || !strings.HasPrefix(name, "skin") {
			continue
		}
		rotated++
		// Rotated files look like skin-YYYY-MM-DDTHH-MM-SS.SSS.log
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s doesn't have expected timestamp format", name)
		}
	}
	if rotated == 0 {
		t.Error("no rotated files found")
	}
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{level: "error", expected: []string{"ERROR"}, excluded: []string{"WARN", "INFO", "DEBUG"}},
		{level: "warning", expected: []string{"ERROR", "WARN"}, excluded: []string{"INFO", "DEBUG"}},
		{level: "info", expected: []string{"ERROR", "WARN", "INFO"}, excluded: []string{"DEBUG"}},
		{level: "debug", expected: []string{"ERROR", "WARN", "INFO", "DEBUG"}},
		{level: "", expected: []string{"INFO"}, excluded: []string{"DEBUG"}},
	}

	for _, tt := range tests {
		name := tt.level
		if name == "" {
			name = "default"
		}
		t.Run(name, func(t *testing.T) {
			logFile := filepath.Join(tempDir, name+".log")

			if err := InitWithFileConfig(tt.level, DefaultFileConfig(logFile), false); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}
			t.Cleanup(func() { Log, Sugar = nil, nil })

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			logContent := string(content)

			for _, exp := range tt.expected {
				if !strings.Contains(logContent, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(logContent, exc) {
					t.Errorf("unexpected %s in log output for level %q", exc, tt.level)
				}
			}
		})
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("skin.log")

	if cfg.Path != "skin.log" {
		t.Errorf("expected path skin.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 20 {
		t.Errorf("expected MaxSizeMB 20, got %d", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 3 {
		t.Errorf("expected MaxBackups 3, got %d", cfg.MaxBackups)
	}
	if cfg.MaxAgeDays != 7 {
		t.Errorf("expected MaxAgeDays 7, got %d", cfg.MaxAgeDays)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}
