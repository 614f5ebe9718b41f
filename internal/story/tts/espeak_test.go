package tts

import (
	"reflect"
	"testing"
	"time"
)

func TestParseESpeakVoices(t *testing.T) {
	output := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en-gb           --/M      English_(Great_Britain) gmw/en            (en 2)
 5  en-us           --/M      English_(America)  gmw/en-US            (en 3)
`
	voices := parseESpeakVoices(output)
	if len(voices) != 3 {
		t.Fatalf("expected 3 voices, got %v", voices)
	}
	if voices[2].ID != "en-us" || voices[2].Label != "English_(America) (en-us)" {
		t.Fatalf("unexpected voice %+v", voices[2])
	}
}

func TestESpeakArgs(t *testing.T) {
	got := espeakArgs(SynthRequest{Text: "-dash first", Voice: "en-us", Speed: 2})
	want := []string{"--stdout", "-v", "en-us", "-s", "350", "--", "-dash first"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = espeakArgs(SynthRequest{Text: "hi", Voice: "default"})
	want = []string{"--stdout", "-s", "175", "--", "hi"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLanguageOf(t *testing.T) {
	cases := map[string]string{
		"en-GB-Chirp3-HD-Umbriel": "en-GB",
		"fr-FR-Neural2-A":         "fr-FR",
		"af_heart":                "en-US",
	}
	for voice, want := range cases {
		if got := languageOf(voice, "en-US"); got != want {
			t.Fatalf("languageOf(%q) = %q, want %q", voice, got, want)
		}
	}
}

func TestSplitIntoChunks(t *testing.T) {
	chunks := splitIntoChunks("abcdefg", 3)
	if !reflect.DeepEqual(chunks, []string{"abc", "def", "g"}) {
		t.Fatalf("unexpected chunks %v", chunks)
	}
}

func TestReadingTime(t *testing.T) {
	if got := ReadingTime("one two three", 1.0); got != 1200*time.Millisecond {
		t.Fatalf("expected 1.2s, got %v", got)
	}
	if got := ReadingTime("one two three", 2.0); got != 600*time.Millisecond {
		t.Fatalf("expected 0.6s, got %v", got)
	}
}
