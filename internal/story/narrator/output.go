package narrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"letternest/internal/story/tts"
)

// Track is one playable handle on a clip. A new track starts paused at
// position zero.
type Track interface {
	Start()
	Pause()
	Rewind()
	Close()
	Position() time.Duration
	Duration() time.Duration
}

// Output opens tracks on an audio device.
type Output interface {
	Open(clip *tts.Clip) (Track, error)
}

// Speaker plays tracks through the default audio device. The device is
// initialised on first use at the first clip's sample rate; later clips
// with another rate are resampled.
type Speaker struct {
	once    sync.Once
	initErr error
	rate    beep.SampleRate
}

func NewSpeaker() *Speaker {
	return &Speaker{}
}

func (s *Speaker) Open(clip *tts.Clip) (Track, error) {
	format := clip.Format()
	s.once.Do(func() {
		s.rate = format.SampleRate
		s.initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if s.initErr != nil {
		return nil, fmt.Errorf("init speaker: %w", s.initErr)
	}

	t := &speakerTrack{
		stream: clip.Streamer(),
		format: format,
		length: clip.Samples(),
		rate:   s.rate,
	}
	t.attach(true)
	return t, nil
}

type speakerTrack struct {
	stream beep.StreamSeeker
	format beep.Format
	length int
	rate   beep.SampleRate

	// guarded by the speaker lock
	ctrl    *beep.Ctrl
	drained bool
	closed  bool
}

// attach hands a fresh control chain to the mixer. The mixer drops a chain
// once its streamer runs dry, so replaying after the end needs a new one.
func (t *speakerTrack) attach(paused bool) {
	var source beep.Streamer = t.stream
	if t.format.SampleRate != t.rate {
		source = beep.Resample(4, t.format.SampleRate, t.rate, t.stream)
	}
	ctrl := &beep.Ctrl{Streamer: source, Paused: paused}

	speaker.Lock()
	t.ctrl = ctrl
	t.drained = false
	speaker.Unlock()

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		// runs inside the mixer, which already holds the speaker lock
		if t.ctrl == ctrl {
			t.drained = true
		}
	})))
}

func (t *speakerTrack) Start() {
	speaker.Lock()
	if t.closed {
		speaker.Unlock()
		return
	}
	drained := t.drained
	t.ctrl.Paused = false
	speaker.Unlock()

	if drained {
		t.attach(false)
	}
}

func (t *speakerTrack) Pause() {
	speaker.Lock()
	t.ctrl.Paused = true
	speaker.Unlock()
}

func (t *speakerTrack) Rewind() {
	speaker.Lock()
	t.ctrl.Paused = true
	_ = t.stream.Seek(0)
	speaker.Unlock()
}

// Close detaches the track from the mixer; a nil streamer is dropped on the
// next mix pass.
func (t *speakerTrack) Close() {
	speaker.Lock()
	t.closed = true
	t.ctrl.Paused = true
	t.ctrl.Streamer = nil
	speaker.Unlock()
}

func (t *speakerTrack) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return t.format.SampleRate.D(t.stream.Position())
}

func (t *speakerTrack) Duration() time.Duration {
	return t.format.SampleRate.D(t.length)
}
