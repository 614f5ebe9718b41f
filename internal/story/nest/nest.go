package nest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"letternest/internal/api"
	"letternest/internal/cli/scheme/colours"
	"letternest/internal/config"
	"letternest/internal/domain/library"
	"letternest/internal/store"
	"letternest/internal/story/narrator"
	"letternest/internal/story/tts"
)

// LetterNest main application structure
type LetterNest struct {
	settings config.Settings
	log      *logrus.Entry

	state  *store.Store
	client *api.Client
	topics *library.Cache

	ctx    context.Context
	Cancel context.CancelFunc

	// narration is built on first use so browsing does not dial a TTS backend
	narrationOnce sync.Once
	narrationErr  error
	backend       tts.Backend
	voices        *tts.Catalog
	controller    *narrator.Controller

	closeOnce sync.Once
}

func NewLetterNest(settings config.Settings) (*LetterNest, error) {
	ctx, cancel := context.WithCancel(context.Background())
	log := logrus.WithField("component", "letternest")

	state, err := store.Open(ctx, settings.StatePath, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open local state: %w", err)
	}

	session, err := api.NewSession(ctx, state)
	if err != nil {
		state.Close()
		cancel()
		return nil, err
	}
	session.OnExpired(func() {
		colours.Warning.Println("🔑 Your login has expired. Run 'letternest admin login' to sign in again.")
	})

	client := api.New(settings.API.BaseURL, settings.API.Timeout, session, log)

	return &LetterNest{
		settings: settings,
		log:      log,
		state:    state,
		client:   client,
		topics:   library.NewCache(settings.Library.CacheDir, settings.Library.MaxAge, client, settings.API.BaseURL, log),
		ctx:      ctx,
		Cancel:   cancel,
	}, nil
}

// Close stops narration and releases local state.
func (ln *LetterNest) Close() {
	ln.closeOnce.Do(func() {
		ln.Cancel()
		if ln.controller != nil {
			ln.controller.Shutdown()
		}
		if closer, ok := ln.backend.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				ln.log.WithError(err).Debug("closing TTS backend")
			}
		}
		if err := ln.state.Close(); err != nil {
			ln.log.WithError(err).Debug("closing local state")
		}
	})
}

func (ln *LetterNest) ShowWelcome() {
	fmt.Println()
	colours.Title.Println("🌟 Welcome to LetterNest! 🌟")
	fmt.Println()
	colours.Info.Println("📚 Available commands:")
	fmt.Println("  • letternest list       - Browse letter lessons")
	fmt.Println("  • letternest play <id>  - Watch or listen to a lesson")
	fmt.Println("  • letternest voices     - See the narrator voices")
	fmt.Println("  • letternest progress   - Count your stars")
	fmt.Println("  • letternest cache      - Manage the offline lesson list")
	fmt.Println("  • letternest admin      - Create and edit lessons")
	fmt.Println()
	ln.printStars()
	colours.Prompt.Println("✨ Ready to learn your ABCs? ✨")
}

// narration wires the TTS backend, voice catalog and controller.
func (ln *LetterNest) narration() (*narrator.Controller, *tts.Catalog, error) {
	ln.narrationOnce.Do(func() {
		cfg := ln.settings.TTS
		backend, err := tts.NewBackend(ln.ctx, ln.ttsConfig())
		if err != nil {
			ln.narrationErr = fmt.Errorf("create TTS backend: %w", err)
			return
		}
		ln.log.WithField("engine", backend.Name()).Debug("TTS backend ready")

		ln.backend = backend
		ln.voices = tts.NewCatalog(backend, cfg.Voice, ln.log)
		cache := tts.NewCache(backend, cfg.Speed, cfg.Emotion, ln.log)
		ln.controller = narrator.New(cache, ln.voices, narrator.NewSpeaker(), narrator.Options{
			Tick:         ln.settings.Player.Tick,
			SynthTimeout: cfg.Timeout,
			Autoplay:     ln.settings.Player.Autoplay,
		}, ln.log)
	})
	return ln.controller, ln.voices, ln.narrationErr
}

func (ln *LetterNest) ttsConfig() tts.Config {
	cfg := ln.settings.TTS
	return tts.Config{
		Type:       cfg.Type,
		BaseURL:    cfg.BaseURL,
		VoicesPath: cfg.VoicesPath,
		SynthPath:  cfg.SynthPath,
		Voice:      cfg.Voice,
		Speed:      cfg.Speed,
		Emotion:    cfg.Emotion,
		Timeout:    cfg.Timeout,
	}
}

// library returns the lesson list, or the built-in samples when offline.
func (ln *LetterNest) library(offline bool) (*library.Library, error) {
	if offline {
		return library.Samples(), nil
	}
	lib, err := ln.topics.Library(ln.ctx)
	if err != nil {
		return nil, fmt.Errorf("load lessons (try --offline): %w", err)
	}
	return lib, nil
}

// redirectLogs sends log output to a file while a full-screen view owns the
// terminal. The returned func restores the previous output.
func (ln *LetterNest) redirectLogs() func() {
	path := filepath.Join(filepath.Dir(ln.settings.StatePath), "letternest.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logrus.SetOutput(io.Discard)
		return func() { logrus.SetOutput(os.Stderr) }
	}
	logrus.SetOutput(f)
	return func() {
		logrus.SetOutput(os.Stderr)
		f.Close()
	}
}

func (ln *LetterNest) explain(err error) error {
	if errors.Is(err, api.ErrSessionExpired) {
		return fmt.Errorf("%w (run 'letternest admin login')", err)
	}
	return err
}
