package tts

import (
	"context"
	"strings"
	"sync"
	"time"
)

const mockSampleRate = 8000

// MockBackend produces silent WAV narration whose length follows the word
// count, at 150 words per minute scaled by speed.
type MockBackend struct {
	mu     sync.Mutex
	voices []Voice
	calls  []SynthRequest
	err    error
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		voices: []Voice{{ID: "mock-voice", Label: "Mock voice"}},
	}
}

func (m *MockBackend) Name() string { return "mock" }

func (m *MockBackend) ListVoices(ctx context.Context) ([]Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Voice, len(m.voices))
	copy(out, m.voices)
	return out, nil
}

func (m *MockBackend) Synthesize(ctx context.Context, sr SynthRequest) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, sr)
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return SilentWAV(ReadingTime(sr.Text, sr.Speed), mockSampleRate)
}

// Fail makes every following Synthesize call return err (nil clears it).
func (m *MockBackend) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns every synthesis request seen so far.
func (m *MockBackend) Calls() []SynthRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SynthRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// ReadingTime estimates how long text takes to read aloud.
func ReadingTime(text string, speed float64) time.Duration {
	if speed <= 0 {
		speed = 1.0
	}
	words := len(strings.Fields(text))
	return time.Duration(float64(words) * float64(time.Minute) / (150.0 * speed))
}
