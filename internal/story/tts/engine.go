package tts

import (
	"context"
	"fmt"
)

type EngineType string

const (
	EngineTypeMock   EngineType = "mock"
	EngineTypeHTTP   EngineType = "http"
	EngineTypeESpeak EngineType = "espeak"
	EngineTypeGoogle EngineType = "google"
	EngineTypeAuto   EngineType = "auto" // Automatically choose best available
)

func (e EngineType) String() string {
	return string(e)
}

// NewBackend creates a TTS backend based on the provided config
func NewBackend(ctx context.Context, config Config) (Backend, error) {
	engine := EngineType(config.Type)
	if engine == EngineTypeAuto || engine == "" {
		engine = bestEngine(config)
	}

	switch engine {
	case EngineTypeMock:
		return NewMockBackend(), nil

	case EngineTypeHTTP:
		if config.BaseURL == "" {
			return nil, fmt.Errorf("http TTS backend needs tts.base_url")
		}
		return NewHTTPBackend(config), nil

	case EngineTypeGoogle:
		return newGoogleBackend(ctx)

	case EngineTypeESpeak:
		return newESpeakBackend()

	default:
		return nil, fmt.Errorf("unsupported TTS engine type: %s", config.Type)
	}
}

// bestEngine prefers the lesson server, then Google, then a local eSpeak.
func bestEngine(config Config) EngineType {
	if config.BaseURL != "" {
		return EngineTypeHTTP
	}
	if hasGoogleCredentials() {
		return EngineTypeGoogle
	}
	if _, err := findESpeakExecutable(); err == nil {
		return EngineTypeESpeak
	}
	return EngineTypeMock
}

// AvailableEngines returns engines usable on this machine.
func AvailableEngines(config Config) []EngineType {
	engines := []EngineType{EngineTypeMock}

	if config.BaseURL != "" {
		engines = append(engines, EngineTypeHTTP)
	}
	if hasGoogleCredentials() {
		engines = append(engines, EngineTypeGoogle)
	}
	if _, err := findESpeakExecutable(); err == nil {
		engines = append(engines, EngineTypeESpeak)
	}

	return engines
}
