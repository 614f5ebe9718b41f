package tts

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// Clip is a fully decoded narration. It is immutable and can be replayed
// any number of times through Streamer.
type Clip struct {
	buffer *beep.Buffer
}

// NewClip buffers everything s produces.
func NewClip(format beep.Format, s beep.Streamer) *Clip {
	buf := beep.NewBuffer(format)
	buf.Append(s)
	return &Clip{buffer: buf}
}

// DecodeClip decodes WAV or MP3 bytes, sniffing the container from the
// first bytes.
func DecodeClip(data []byte) (*Clip, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode audio: empty payload")
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	if isWAV(data) {
		streamer, format, err = wav.Decode(bytes.NewReader(data))
	} else {
		streamer, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	}
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	defer streamer.Close()

	return NewClip(format, streamer), nil
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// Streamer returns a fresh handle positioned at the start of the clip.
func (c *Clip) Streamer() beep.StreamSeeker {
	return c.buffer.Streamer(0, c.buffer.Len())
}

func (c *Clip) Format() beep.Format {
	return c.buffer.Format()
}

// Samples is the clip length in samples.
func (c *Clip) Samples() int {
	return c.buffer.Len()
}

func (c *Clip) Duration() time.Duration {
	return c.buffer.Format().SampleRate.D(c.buffer.Len())
}
