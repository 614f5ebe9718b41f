package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/texttospeech/apiv1"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

// Google requests are limited to 5000 bytes of input.
const googleChunkLimit = 4800

// GoogleBackend synthesizes through Google Cloud Text-to-Speech.
type GoogleBackend struct {
	client   *texttospeech.Client
	language string
	log      *logrus.Entry
}

func newGoogleBackend(ctx context.Context) (*GoogleBackend, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	return &GoogleBackend{
		client:   client,
		language: "en-US",
		log:      logrus.WithField("component", "tts-google"),
	}, nil
}

func (g *GoogleBackend) Name() string { return "google" }

func (g *GoogleBackend) Close() error {
	return g.client.Close()
}

func (g *GoogleBackend) ListVoices(ctx context.Context) ([]Voice, error) {
	resp, err := g.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: g.language})
	if err != nil {
		return nil, err
	}
	voices := make([]Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		gender := strings.ToLower(v.SsmlGender.String())
		voices = append(voices, Voice{
			ID:    v.Name,
			Label: fmt.Sprintf("%s (%s)", v.Name, gender),
		})
	}
	return voices, nil
}

// Synthesize returns MP3 audio. Long text is sent in chunks and the MP3
// frames are concatenated.
func (g *GoogleBackend) Synthesize(ctx context.Context, sr SynthRequest) ([]byte, error) {
	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding: texttospeechpb.AudioEncoding_MP3,
	}

	// Chirp voices often don't support speakingRate/pitch/SSML, skip them
	if !strings.Contains(strings.ToLower(sr.Voice), "chirp") && sr.Speed > 0 {
		audioCfg.SpeakingRate = sr.Speed
	}

	var out bytes.Buffer
	chunks := splitIntoChunks(sr.Text, googleChunkLimit)
	for chunkIndex, chunk := range chunks {
		req := &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: languageOf(sr.Voice, g.language),
				Name:         sr.Voice,
			},
			AudioConfig: audioCfg,
		}
		resp, err := g.client.SynthesizeSpeech(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize chunk %d: %w", chunkIndex, err)
		}
		out.Write(resp.AudioContent)
	}

	g.log.WithFields(logrus.Fields{"voice": sr.Voice, "chunks": len(chunks)}).Debug("synthesis complete")
	return out.Bytes(), nil
}

// languageOf extracts "en-GB" from voice names like "en-GB-Chirp3-HD-Umbriel".
func languageOf(voice, fallback string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return fallback
	}
	return parts[0] + "-" + parts[1]
}

func splitIntoChunks(text string, limit int) []string {
	var chunks []string
	runes := []rune(text) // safe for UTF-8
	for i := 0; i < len(runes); i += limit {
		end := i + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// hasGoogleCredentials checks if Google Cloud credentials are available
func hasGoogleCredentials() bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok
}
