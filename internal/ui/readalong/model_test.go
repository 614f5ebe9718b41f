package readalong

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"letternest/internal/domain/lesson"
	"letternest/internal/story/narrator"
	"letternest/internal/story/tts"
)

type fakePlayer struct {
	calls []string
	snap  narrator.Snapshot
}

func (p *fakePlayer) Play()    { p.calls = append(p.calls, "play"); p.snap.State = narrator.Playing }
func (p *fakePlayer) Pause()   { p.calls = append(p.calls, "pause"); p.snap.State = narrator.Paused }
func (p *fakePlayer) Stop()    { p.calls = append(p.calls, "stop"); p.snap.State = narrator.Stopped }
func (p *fakePlayer) Restart() { p.calls = append(p.calls, "restart"); p.snap.State = narrator.Playing }

func (p *fakePlayer) SelectVoice(id string) error {
	p.calls = append(p.calls, "voice:"+id)
	p.snap.Voice = tts.Voice{ID: id, Label: id}
	return nil
}

func (p *fakePlayer) Snapshot() narrator.Snapshot { return p.snap }

type voiceList []tts.Voice

func (v voiceList) Voices() []tts.Voice { return v }

var foxTopic = lesson.Topic{ID: 6, Title: "F is for Fox", Letter: "F"}

func newTestModel(words ...string) (Model, *fakePlayer) {
	p := &fakePlayer{snap: narrator.Snapshot{
		State: narrator.Ready,
		Index: -1,
		Words: words,
		Voice: tts.Voice{ID: "af_heart", Label: "Heart"},
	}}
	voices := voiceList{{ID: "af_heart", Label: "Heart"}, {ID: "bm_george", Label: "George"}}
	return New(foxTopic, p, voices, NewBridge()), p
}

func press(m Model, key tea.KeyMsg) Model {
	updated, _ := m.Update(key)
	return updated.(Model)
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestSpaceTogglesPlayback(t *testing.T) {
	m, p := newTestModel("The", "quick", "brown", "fox")

	m = press(m, runeKey(' '))
	m = press(m, runeKey(' '))

	if strings.Join(p.calls, ",") != "play,pause" {
		t.Fatalf("calls = %v, want play then pause", p.calls)
	}
	if m.snap.State != narrator.Paused {
		t.Errorf("state = %s, want Paused", m.snap.State)
	}
}

func TestStopRestartAndVoiceKeys(t *testing.T) {
	m, p := newTestModel("The", "quick", "brown", "fox")

	m = press(m, runeKey('s'))
	m = press(m, runeKey('r'))
	m = press(m, runeKey('v'))
	m = press(m, runeKey('v'))

	want := "stop,restart,voice:bm_george,voice:af_heart"
	if got := strings.Join(p.calls, ","); got != want {
		t.Fatalf("calls = %s, want %s", got, want)
	}
}

func TestControlsDisabledWithoutText(t *testing.T) {
	m, p := newTestModel()

	m = press(m, runeKey(' '))
	m = press(m, runeKey('r'))
	if len(p.calls) != 0 {
		t.Fatalf("expected no player calls, got %v", p.calls)
	}
	if !strings.Contains(m.View(), "no story") {
		t.Error("view should explain that there is nothing to read")
	}
	if _, cmd := m.Update(runeKey('q')); cmd == nil {
		t.Error("q should still close the view")
	}
}

func TestHighlightRendersCurrentWord(t *testing.T) {
	m, p := newTestModel("The", "quick", "brown", "fox")
	p.snap.State = narrator.Playing
	p.snap.Index = 1

	updated, cmd := m.Update(HighlightMsg{Index: 1})
	model := updated.(Model)
	if cmd == nil {
		t.Error("expected the view to keep listening for events")
	}
	if model.snap.Index != 1 {
		t.Errorf("index = %d, want 1", model.snap.Index)
	}
	view := model.View()
	if !strings.Contains(view, "quick") || !strings.Contains(view, "Pause") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestFailureShowsRetryHint(t *testing.T) {
	m, _ := newTestModel("Bees", "buzz")

	updated, _ := m.Update(FailedMsg{Err: errors.New("HTTP 500")})
	model := updated.(Model)
	if !strings.Contains(model.View(), "try again") {
		t.Error("expected a retry hint after a failure")
	}

	model = press(model, runeKey(' '))
	if model.errText != "" {
		t.Error("pressing play should clear the error")
	}
}

func TestFinishedClosesView(t *testing.T) {
	m, _ := newTestModel("Ants", "march")

	updated, cmd := m.Update(FinishedMsg{})
	if !updated.(Model).Finished() {
		t.Error("model should report the finished narration")
	}
	if cmd == nil {
		t.Error("expected a quit command")
	}
}

func TestBridgeDeliversEvents(t *testing.T) {
	b := NewBridge()
	go b.Highlight(2)

	msg := b.wait()()
	if hm, ok := msg.(HighlightMsg); !ok || hm.Index != 2 {
		t.Fatalf("unexpected message %#v", msg)
	}

	b.Close()
	b.Close()
	b.Finished() // must not block after close
	if msg := b.wait()(); msg != nil {
		if _, ok := msg.(FinishedMsg); !ok {
			t.Fatalf("unexpected message %#v", msg)
		}
	}
}
