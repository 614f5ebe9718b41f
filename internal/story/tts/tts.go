// internal/story/tts/tts.go
package tts

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Type       string
	BaseURL    string
	VoicesPath string
	SynthPath  string
	Voice      string
	Speed      float64
	Emotion    string
	Timeout    time.Duration
}

// SynthRequest is the text and voice settings sent to a backend.
type SynthRequest struct {
	Text    string  `json:"text"`
	Voice   string  `json:"voice"`
	Speed   float64 `json:"speed,omitempty"`
	Emotion string  `json:"emotion,omitempty"`
}

// Synthesizer turns text into an encoded audio file (WAV or MP3).
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthRequest) ([]byte, error)
}

// VoiceLister returns the narrator voices a backend offers.
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]Voice, error)
}

// Backend is a TTS service that can both list voices and synthesize.
type Backend interface {
	Synthesizer
	VoiceLister
	Name() string
}

var (
	ErrSynthesisPending = errors.New("tts: synthesis already in flight")
	ErrUnknownVoice     = errors.New("tts: unknown voice")
	ErrNoVoices         = errors.New("tts: backend returned no voices")
	ErrEmptyText        = errors.New("tts: text is required")
)

// BackendError is a non-success answer from a TTS backend.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tts backend returned status %d", e.Status)
	}
	return fmt.Sprintf("tts backend returned status %d: %s", e.Status, e.Message)
}
