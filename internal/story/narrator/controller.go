package narrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"letternest/internal/story/tts"
)

// Listener receives playback events. Calls are made without the controller
// lock held, from whichever goroutine caused the event.
type Listener interface {
	StateChanged(State)
	Highlight(index int)
	Finished()
	Failed(err error)
}

type Options struct {
	// Tick is the highlight sampling interval.
	Tick time.Duration
	// SynthTimeout bounds each synthesis and voice list request.
	SynthTimeout time.Duration
	// Autoplay starts playback as soon as narration audio is ready.
	Autoplay bool
}

// Snapshot is a consistent view of the controller for rendering.
type Snapshot struct {
	State    State
	Index    int
	Words    []string
	Voice    tts.Voice
	Loading  bool
	Err      error
	Position time.Duration
	Duration time.Duration
}

// Controller drives narrated playback of one topic at a time: it keeps the
// synthesized clip for the selected voice, plays it through an Output and
// moves a word highlight along with the playback position.
type Controller struct {
	cache  *tts.Cache
	voices *tts.Catalog
	out    Output
	opts   Options
	log    *logrus.Entry

	jobs  sync.WaitGroup
	loops sync.WaitGroup

	mu       sync.Mutex
	listener Listener
	session  string
	ctx      context.Context
	cancel   context.CancelFunc
	text     string
	words    []string
	state    State
	index    int
	lastErr  error

	clip      *tts.Clip
	clipVoice string
	track     Track

	// gen changes whenever the wanted (text, voice) pair changes.
	gen           uint64
	wantVoice     string
	loading       bool
	loadingGen    uint64
	resync        bool
	playWhenReady bool

	tickID   uint64
	stopTick context.CancelFunc
}

func New(cache *tts.Cache, voices *tts.Catalog, out Output, opts Options, log *logrus.Entry) *Controller {
	if opts.Tick <= 0 {
		opts.Tick = 100 * time.Millisecond
	}
	if opts.SynthTimeout <= 0 {
		opts.SynthTimeout = 30 * time.Second
	}
	return &Controller{
		cache:  cache,
		voices: voices,
		out:    out,
		opts:   opts,
		log:    log.WithField("component", "narrator"),
		state:  Idle,
		index:  -1,
	}
}

func (c *Controller) SetListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

// Open starts a narration session for text, closing any previous one.
// Narration is synthesized for the selected voice right away while the
// voice catalog refreshes alongside; if the refresh moves the selection the
// narration is synthesized again for the new voice. Empty text leaves the
// controller idle with controls disabled.
func (c *Controller) Open(ctx context.Context, text string) {
	c.Close()

	c.mu.Lock()
	var b batch
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.session = uuid.NewString()
	c.text = text
	c.words = Tokenize(text)
	c.gen++
	session, sessionCtx := c.session, c.ctx

	log := c.log.WithFields(logrus.Fields{"session": session, "words": len(c.words)})
	if len(c.words) == 0 {
		c.mu.Unlock()
		log.Info("narration has no text, controls disabled")
		return
	}
	c.prepare(c.opts.Autoplay, &b)
	l := c.listener
	c.mu.Unlock()
	b.dispatch(l)
	log.Debug("narration session opened")

	c.jobs.Add(1)
	go func() {
		defer c.jobs.Done()

		refreshCtx, cancel := context.WithTimeout(sessionCtx, c.opts.SynthTimeout)
		c.voices.Refresh(refreshCtx)
		cancel()

		c.locked(func(b *batch) {
			if session != c.session || len(c.words) == 0 {
				return
			}
			if c.voices.Selected().ID == c.wantVoice {
				return
			}
			playAfter := c.opts.Autoplay || c.playWhenReady || c.state == Playing
			c.switchVoice(playAfter, b)
		})
	}()
}

// Close stops playback and releases the track, the highlight loop, any
// pending request and the cached narration.
func (c *Controller) Close() {
	c.mu.Lock()
	var b batch
	if c.session != "" {
		c.log.WithField("session", c.session).Debug("narration session closed")
	}
	c.gen++
	c.stopTicker()
	c.releaseTrack()
	c.clip = nil
	c.clipVoice = ""
	c.text = ""
	c.words = nil
	c.session = ""
	c.resync = false
	c.playWhenReady = false
	c.wantVoice = ""
	c.lastErr = nil
	c.setIndex(-1, &b)
	c.setState(Idle, &b)
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.cache.Reset()
	l := c.listener
	c.mu.Unlock()
	b.dispatch(l)
}

// Play starts or resumes playback. Without ready audio it does not play;
// after a failed synthesis it issues a new one.
func (c *Controller) Play() {
	c.locked(func(b *batch) { c.play(b) })
}

func (c *Controller) Pause() {
	c.locked(func(b *batch) {
		if c.state != Playing {
			return
		}
		c.track.Pause()
		c.stopTicker()
		c.setState(Paused, b)
	})
}

// Stop halts playback at position zero and clears the highlight.
func (c *Controller) Stop() {
	c.locked(func(b *batch) { c.stop(b) })
}

// Restart stops, makes sure narration exists for the selected voice and
// plays it from the first word.
func (c *Controller) Restart() {
	c.locked(func(b *batch) {
		if len(c.words) == 0 {
			return
		}
		c.stop(b)
		if c.clip != nil && !c.loading && c.clipVoice == c.voices.Selected().ID {
			c.setIndex(0, b)
			c.play(b)
			return
		}
		c.prepare(true, b)
	})
}

// SelectVoice switches the narrator. The current track is released and
// narration is synthesized again for the same text; playback stays paused
// unless autoplay is on.
func (c *Controller) SelectVoice(id string) error {
	prev := c.voices.Selected().ID
	if err := c.voices.Select(id); err != nil {
		return err
	}
	if prev == id {
		return nil
	}

	c.locked(func(b *batch) {
		if len(c.words) == 0 {
			return
		}
		c.switchVoice(c.opts.Autoplay, b)
	})
	return nil
}

// Enabled reports whether there is any text to narrate.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.words) > 0
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		State:   c.state,
		Index:   c.index,
		Words:   append([]string(nil), c.words...),
		Voice:   c.voices.Selected(),
		Loading: c.loading,
		Err:     c.lastErr,
	}
	if c.clip != nil {
		s.Duration = c.clip.Duration()
	}
	if c.track != nil {
		s.Position = c.track.Position()
	}
	return s
}

// Wait blocks until background voice refreshes and syntheses settle.
func (c *Controller) Wait() {
	c.jobs.Wait()
}

// Shutdown closes the session and waits for every goroutine to exit.
func (c *Controller) Shutdown() {
	c.Close()
	c.jobs.Wait()
	c.loops.Wait()
}

func (c *Controller) locked(fn func(b *batch)) {
	c.mu.Lock()
	var b batch
	fn(&b)
	l := c.listener
	c.mu.Unlock()
	b.dispatch(l)
}

// The methods below require c.mu.

func (c *Controller) play(b *batch) {
	if len(c.words) == 0 || c.state == Playing || c.state == Loading {
		return
	}
	if c.clip == nil {
		if c.state == Idle {
			c.prepare(false, b)
		}
		return
	}
	if c.track == nil {
		track, err := c.out.Open(c.clip)
		if err != nil {
			c.log.WithError(err).Warn("audio output unavailable")
			c.lastErr = err
			b.failed(err)
			return
		}
		c.track = track
	}
	c.track.Start()
	c.setState(Playing, b)
	c.startTicker()
}

// switchVoice drops the narration for the previous voice and requests it
// for the selected one.
func (c *Controller) switchVoice(playAfter bool, b *batch) {
	c.log.WithFields(logrus.Fields{"session": c.session, "voice": c.voices.Selected().ID}).Debug("voice changed")
	c.gen++
	c.stopTicker()
	c.releaseTrack()
	c.playWhenReady = false
	c.setIndex(-1, b)
	c.prepare(playAfter, b)
}

func (c *Controller) stop(b *batch) {
	c.stopTicker()
	c.playWhenReady = false
	if c.track != nil {
		c.track.Rewind()
	}
	c.setIndex(-1, b)
	if c.clip != nil && c.state != Loading {
		c.setState(Stopped, b)
	}
}

// prepare requests narration for the current text and voice. While another
// synthesis is in flight the request is parked and re-issued when it
// resolves.
func (c *Controller) prepare(playAfter bool, b *batch) {
	if len(c.words) == 0 {
		return
	}
	if playAfter {
		c.playWhenReady = true
	}
	c.wantVoice = c.voices.Selected().ID
	c.setState(Loading, b)
	if c.loading {
		if c.loadingGen != c.gen {
			c.resync = true
		}
		return
	}

	c.loading = true
	c.loadingGen = c.gen
	c.resync = false
	gen, session, text, voice, ctx := c.gen, c.session, c.text, c.voices.Selected().ID, c.ctx

	c.jobs.Add(1)
	go c.synthesize(ctx, gen, session, text, voice)
}

func (c *Controller) synthesize(ctx context.Context, gen uint64, session, text, voice string) {
	defer c.jobs.Done()

	sctx, cancel := context.WithTimeout(ctx, c.opts.SynthTimeout)
	clip, err := c.cache.Ensure(sctx, text, voice)
	cancel()

	c.mu.Lock()
	var b batch
	c.loading = false
	log := c.log.WithFields(logrus.Fields{"session": session, "voice": voice})
	switch {
	case c.resync:
		c.resync = false
		log.Debug("narration outdated, synthesizing again")
		c.prepare(false, &b)
	case gen != c.gen || session != c.session:
		log.Debug("ignoring stale narration")
	case err != nil:
		log.WithError(err).Warn("narration unavailable")
		c.lastErr = err
		c.playWhenReady = false
		if c.clip != nil {
			c.setState(Ready, &b)
		} else {
			c.setState(Idle, &b)
		}
		b.failed(err)
	default:
		c.install(clip, voice, &b)
	}
	l := c.listener
	c.mu.Unlock()
	b.dispatch(l)
}

func (c *Controller) install(clip *tts.Clip, voice string, b *batch) {
	c.releaseTrack()
	c.clip = clip
	c.clipVoice = voice
	c.lastErr = nil
	c.setState(Ready, b)
	if c.playWhenReady {
		c.playWhenReady = false
		c.setIndex(0, b)
		c.play(b)
	}
}

func (c *Controller) releaseTrack() {
	if c.track != nil {
		c.track.Close()
		c.track = nil
	}
}

func (c *Controller) startTicker() {
	c.stopTicker()
	ctx, cancel := context.WithCancel(c.ctx)
	c.stopTick = cancel
	c.tickID++
	id := c.tickID

	c.loops.Add(1)
	go func() {
		defer c.loops.Done()
		ticker := time.NewTicker(c.opts.Tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.tick(id)
			}
		}
	}()
}

func (c *Controller) stopTicker() {
	if c.stopTick != nil {
		c.stopTick()
		c.stopTick = nil
	}
	c.tickID++
}

// tick samples the playback position once. It takes c.mu itself.
func (c *Controller) tick(id uint64) {
	c.mu.Lock()
	if id != c.tickID || c.state != Playing || c.track == nil {
		c.mu.Unlock()
		return
	}

	var b batch
	pos, total := c.track.Position(), c.track.Duration()
	if pos >= total {
		c.stopTicker()
		c.track.Rewind()
		c.setIndex(-1, &b)
		c.setState(Ready, &b)
		b.finished()
		c.log.WithField("session", c.session).Debug("narration finished")
	} else if idx := WordIndex(pos, total, len(c.words)); idx > c.index {
		c.setIndex(idx, &b)
	}
	l := c.listener
	c.mu.Unlock()
	b.dispatch(l)
}

func (c *Controller) setState(s State, b *batch) {
	if c.state == s {
		return
	}
	c.state = s
	*b = append(*b, func(l Listener) { l.StateChanged(s) })
}

func (c *Controller) setIndex(i int, b *batch) {
	if c.index == i {
		return
	}
	c.index = i
	*b = append(*b, func(l Listener) { l.Highlight(i) })
}

// batch collects listener calls made while c.mu is held.
type batch []func(Listener)

func (b *batch) finished() {
	*b = append(*b, func(l Listener) { l.Finished() })
}

func (b *batch) failed(err error) {
	*b = append(*b, func(l Listener) { l.Failed(err) })
}

func (b batch) dispatch(l Listener) {
	if l == nil {
		return
	}
	for _, fn := range b {
		fn(l)
	}
}
