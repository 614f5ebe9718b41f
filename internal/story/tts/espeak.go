// Cross-platform eSpeak implementation
package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ESpeakBackend synthesizes WAV audio with a local eSpeak/eSpeak-NG binary.
type ESpeakBackend struct {
	path string
	log  *logrus.Entry
}

func newESpeakBackend() (*ESpeakBackend, error) {
	espeakPath, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}

	if err := exec.Command(espeakPath, "--version").Run(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}

	return &ESpeakBackend{
		path: espeakPath,
		log:  logrus.WithField("component", "tts-espeak"),
	}, nil
}

func findESpeakExecutable() (string, error) {
	candidates := []string{"espeak-ng", "espeak"}

	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("eSpeak executable not found in PATH")
}

func (e *ESpeakBackend) Name() string { return "espeak" }

func (e *ESpeakBackend) Synthesize(ctx context.Context, sr SynthRequest) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.path, espeakArgs(sr)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("espeak: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func espeakArgs(sr SynthRequest) []string {
	args := []string{"--stdout"}

	if sr.Voice != "" && sr.Voice != "default" {
		args = append(args, "-v", sr.Voice)
	}

	// words per minute, default is 175
	speed := sr.Speed
	if speed <= 0 {
		speed = 1.0
	}
	args = append(args, "-s", strconv.Itoa(int(175*speed)))

	// "--" keeps text starting with a dash from being read as a flag
	return append(args, "--", sr.Text)
}

func (e *ESpeakBackend) ListVoices(ctx context.Context) ([]Voice, error) {
	output, err := exec.CommandContext(ctx, e.path, "--voices").Output()
	if err != nil {
		return nil, err
	}

	return parseESpeakVoices(string(output)), nil
}

func parseESpeakVoices(output string) []Voice {
	lines := strings.Split(output, "\n")
	voices := make([]Voice, 0)

	for i, line := range lines {
		// Skip header line
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		// Parse voice line: Pty Language Age/Gender VoiceName          File          Other Languages
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			voices = append(voices, Voice{
				ID:    fields[1],
				Label: fmt.Sprintf("%s (%s)", fields[3], fields[1]),
			})
		}
	}

	return voices
}
