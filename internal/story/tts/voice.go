package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Voice is a narrator voice offered by a backend.
type Voice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// UnmarshalJSON accepts both {id, label} and {name, displayName} shapes.
func (v *Voice) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Label        string `json:"label"`
		DisplayName  string `json:"displayName"`
		DisplayName2 string `json:"display_name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.ID = firstNonEmpty(raw.ID, raw.Name)
	v.Label = firstNonEmpty(raw.Label, raw.DisplayName, raw.DisplayName2, v.ID)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}

// FallbackVoices is the built-in catalog used until a backend answers.
func FallbackVoices() []Voice {
	return []Voice{
		{ID: "af_heart", Label: "Heart (US, female)"},
		{ID: "af_bella", Label: "Bella (US, female)"},
		{ID: "af_nicole", Label: "Nicole (US, female)"},
		{ID: "af_sky", Label: "Sky (US, female)"},
		{ID: "am_adam", Label: "Adam (US, male)"},
		{ID: "am_michael", Label: "Michael (US, male)"},
		{ID: "am_puck", Label: "Puck (US, male)"},
		{ID: "am_santa", Label: "Santa (US, male)"},
		{ID: "bf_emma", Label: "Emma (UK, female)"},
		{ID: "bf_lily", Label: "Lily (UK, female)"},
		{ID: "bm_george", Label: "George (UK, male)"},
		{ID: "bm_fable", Label: "Fable (UK, male)"},
	}
}

// Catalog holds the voices available for narration and the current pick.
type Catalog struct {
	mu        sync.RWMutex
	lister    VoiceLister
	voices    []Voice
	selected  string
	preferred string
	picked    bool
	log       *logrus.Entry
}

// NewCatalog starts from the fallback list. preferred is selected whenever
// the current list offers it, otherwise the first voice is.
func NewCatalog(lister VoiceLister, preferred string, log *logrus.Entry) *Catalog {
	c := &Catalog{
		lister:    lister,
		voices:    FallbackVoices(),
		preferred: preferred,
		log:       log.WithField("component", "voice-catalog"),
	}
	c.selected = c.voices[0].ID
	if preferred != "" && c.indexOf(preferred) >= 0 {
		c.selected = preferred
	}
	return c
}

// Refresh asks the backend for its voices. Failures keep the current list
// and are only logged.
func (c *Catalog) Refresh(ctx context.Context) {
	if c.lister == nil {
		return
	}

	voices, err := c.lister.ListVoices(ctx)
	if err == nil && len(voices) == 0 {
		err = ErrNoVoices
	}
	if err != nil {
		c.log.WithError(err).Warn("voice list unavailable, keeping current catalog")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.voices = voices
	if !c.picked && c.preferred != "" && c.indexOf(c.preferred) >= 0 {
		c.selected = c.preferred
	} else if c.indexOf(c.selected) < 0 {
		next := voices[0].ID
		if c.preferred != "" && c.indexOf(c.preferred) >= 0 {
			next = c.preferred
		}
		c.log.WithFields(logrus.Fields{
			"previous": c.selected,
			"selected": next,
		}).Info("selected voice not offered by backend, reselecting")
		c.selected = next
	}
	c.log.WithField("voices", len(voices)).Debug("voice catalog refreshed")
}

func (c *Catalog) Voices() []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

func (c *Catalog) Selected() Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.voices[c.indexOf(c.selected)]
}

// Select makes id the current voice.
func (c *Catalog) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownVoice, id)
	}
	c.selected = id
	c.picked = true
	return nil
}

// Prefer makes id the voice to use whenever the list offers it, including
// after a later Refresh. It reports whether id is offered right now.
func (c *Catalog) Prefer(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preferred = id
	c.picked = false
	if c.indexOf(id) < 0 {
		return false
	}
	c.selected = id
	return true
}

// Next returns the voice after the current one, wrapping around. It does
// not change the selection.
func (c *Catalog) Next() Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexOf(c.selected)
	return c.voices[(i+1)%len(c.voices)]
}

// indexOf requires c.mu to be held.
func (c *Catalog) indexOf(id string) int {
	for i, v := range c.voices {
		if v.ID == id {
			return i
		}
	}
	return -1
}
