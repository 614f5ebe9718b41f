package tts

import (
	"testing"
	"time"
)

func silentWAV(t *testing.T, d time.Duration) []byte {
	t.Helper()
	data, err := SilentWAV(d, 8000)
	if err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	return data
}

func TestSilentWAVHeader(t *testing.T) {
	data := silentWAV(t, time.Second)
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("expected a RIFF/WAVE header, got %q", data[:12])
	}
	if len(data) != 44+8000*2 {
		t.Fatalf("expected 44 byte header plus 16000 bytes of samples, got %d", len(data))
	}
}

func TestDecodeClipWAV(t *testing.T) {
	clip, err := DecodeClip(silentWAV(t, 4*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.Duration() != 4*time.Second {
		t.Fatalf("expected 4s clip, got %v", clip.Duration())
	}
	if clip.Format().SampleRate != 8000 {
		t.Fatalf("expected 8000Hz, got %v", clip.Format().SampleRate)
	}
}

func TestClipStreamersAreIndependent(t *testing.T) {
	clip, err := DecodeClip(silentWAV(t, time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := clip.Streamer()
	buf := make([][2]float64, 2000)
	if n, _ := a.Stream(buf); n != 2000 {
		t.Fatalf("expected 2000 samples, got %d", n)
	}

	b := clip.Streamer()
	if b.Position() != 0 {
		t.Fatalf("expected fresh handle at 0, got %d", b.Position())
	}
	if a.Position() != 2000 {
		t.Fatalf("expected first handle at 2000, got %d", a.Position())
	}
}

func TestDecodeClipRejectsGarbage(t *testing.T) {
	if _, err := DecodeClip(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := DecodeClip([]byte("definitely not audio")); err == nil {
		t.Fatal("expected error for garbage payload")
	}
}
