package tts

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// SilentWAV encodes d of silence as a 16-bit mono PCM WAV file.
func SilentWAV(d time.Duration, sampleRate int) ([]byte, error) {
	format := beep.Format{SampleRate: beep.SampleRate(sampleRate), NumChannels: 1, Precision: 2}

	// the encoder seeks back to patch the header, so it needs a real file
	f, err := os.CreateTemp("", "letternest-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := wav.Encode(f, beep.Silence(format.SampleRate.N(d)), format); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	return os.ReadFile(f.Name())
}
