package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	// keep a stray .env in the package directory out of the picture
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TTS.Voice != "af_heart" {
		t.Fatalf("expected default voice, got %q", cfg.TTS.Voice)
	}
	if cfg.TTS.SynthPath != "/tts/finevoice/" {
		t.Fatalf("expected default synth path, got %q", cfg.TTS.SynthPath)
	}
	if cfg.Player.Tick != 100*time.Millisecond {
		t.Fatalf("expected 100ms tick, got %v", cfg.Player.Tick)
	}
	if cfg.TTS.Timeout != 30*time.Second {
		t.Fatalf("expected 30s synthesis timeout, got %v", cfg.TTS.Timeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("LETTERNEST_API_BASE_URL", "https://lessons.example.com/api/")
	t.Setenv("LETTERNEST_TTS_VOICE", "bm_george")
	t.Setenv("LETTERNEST_TTS_SPEED", "1.25")
	t.Setenv("LETTERNEST_PLAYER_AUTOPLAY", "true")
	t.Setenv("LETTERNEST_PLAYER_TICK", "250ms")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "https://lessons.example.com/api" {
		t.Fatalf("expected trimmed base url override, got %q", cfg.API.BaseURL)
	}
	if cfg.TTS.Voice != "bm_george" {
		t.Fatalf("expected voice override, got %q", cfg.TTS.Voice)
	}
	if cfg.TTS.Speed != 1.25 {
		t.Fatalf("expected speed override, got %v", cfg.TTS.Speed)
	}
	if !cfg.Player.Autoplay {
		t.Fatal("expected autoplay override true")
	}
	if cfg.Player.Tick != 250*time.Millisecond {
		t.Fatalf("expected tick override, got %v", cfg.Player.Tick)
	}
}

func TestLoadFile(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "letternest.yaml")
	data := []byte("tts:\n  type: mock\n  emotion: cheerful\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TTS.Type != "mock" || cfg.TTS.Emotion != "cheerful" {
		t.Fatalf("expected file values, got %+v", cfg.TTS)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug log level, got %q", cfg.LogLevel)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	resetViper(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
