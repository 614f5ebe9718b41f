package tts

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type cacheEntry struct {
	text  string
	voice string
	clip  *Clip
}

// CacheStats reports cache effectiveness for the current session.
type CacheStats struct {
	Hits    int
	Misses  int
	Holding bool
}

// Cache keeps the most recent synthesis keyed by (text, voice). It holds
// at most one entry and allows one synthesis in flight.
type Cache struct {
	synth   Synthesizer
	speed   float64
	emotion string
	log     *logrus.Entry

	mu       sync.Mutex
	entry    *cacheEntry
	inflight bool
	epoch    uint64
	hits     int
	misses   int
}

func NewCache(synth Synthesizer, speed float64, emotion string, log *logrus.Entry) *Cache {
	return &Cache{
		synth:   synth,
		speed:   speed,
		emotion: emotion,
		log:     log.WithField("component", "synthesis-cache"),
	}
}

// Ensure returns the clip for text in voice, synthesizing it on a miss.
// Callers get a new playback handle from Clip.Streamer each time. A miss
// while another synthesis is pending returns ErrSynthesisPending. A failed
// synthesis leaves the previous entry in place.
func (c *Cache) Ensure(ctx context.Context, text, voice string) (*Clip, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	c.mu.Lock()
	if e := c.entry; e != nil && e.text == text && e.voice == voice {
		c.hits++
		c.mu.Unlock()
		return e.clip, nil
	}
	if c.inflight {
		c.mu.Unlock()
		return nil, ErrSynthesisPending
	}
	c.inflight = true
	c.misses++
	epoch := c.epoch
	c.mu.Unlock()

	clip, err := c.synthesize(ctx, text, voice)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight = false
	if err != nil {
		return nil, err
	}
	if epoch == c.epoch {
		c.entry = &cacheEntry{text: text, voice: voice, clip: clip}
	}
	return clip, nil
}

func (c *Cache) synthesize(ctx context.Context, text, voice string) (*Clip, error) {
	log := c.log.WithFields(logrus.Fields{"voice": voice, "chars": len(text)})
	log.Debug("synthesizing narration")

	data, err := c.synth.Synthesize(ctx, SynthRequest{
		Text:    text,
		Voice:   voice,
		Speed:   c.speed,
		Emotion: c.emotion,
	})
	if err != nil {
		log.WithError(err).Warn("synthesis failed")
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	clip, err := DecodeClip(data)
	if err != nil {
		log.WithError(err).Warn("synthesized audio could not be decoded")
		return nil, err
	}

	log.WithField("duration", clip.Duration()).Debug("narration ready")
	return clip, nil
}

// Reset drops the cached entry. A synthesis already in flight will still
// return its clip to the caller but will not be stored.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
	c.epoch++
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Holding: c.entry != nil}
}
