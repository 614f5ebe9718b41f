package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPBackend talks to the lesson server's TTS endpoints: a voice list
// answered with {"voices": [...]} and a synthesis endpoint that returns raw
// audio bytes.
type HTTPBackend struct {
	voicesURL  string
	synthURL   string
	httpClient *http.Client
	log        *logrus.Entry
}

func NewHTTPBackend(cfg Config) *HTTPBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPBackend{
		voicesURL: cfg.BaseURL + cfg.VoicesPath,
		synthURL:  cfg.BaseURL + cfg.SynthPath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: logrus.WithField("component", "tts-http"),
	}
}

func (h *HTTPBackend) Name() string { return "http" }

type voiceListResponse struct {
	Voices *[]Voice `json:"voices"`
}

func (h *HTTPBackend) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.voicesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build voice list request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch voice list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, backendError(resp)
	}

	var body voiceListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode voice list: %w", err)
	}
	if body.Voices == nil {
		return nil, ErrNoVoices
	}

	voices := make([]Voice, 0, len(*body.Voices))
	for _, v := range *body.Voices {
		if v.ID != "" {
			voices = append(voices, v)
		}
	}
	return voices, nil
}

func (h *HTTPBackend) Synthesize(ctx context.Context, sr SynthRequest) ([]byte, error) {
	payload, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("encode synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.synthURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request synthesis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, backendError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}

	h.log.WithFields(logrus.Fields{
		"voice":   sr.Voice,
		"bytes":   len(audio),
		"elapsed": time.Since(started).Round(time.Millisecond),
	}).Debug("synthesis complete")
	return audio, nil
}

// backendError reads the optional {"error": "..."} diagnostic body.
func backendError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var diag struct {
		Error string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &diag) == nil {
		msg = diag.Error
	}
	return &BackendError{Status: resp.StatusCode, Message: msg}
}
