package readalong

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"letternest/internal/domain/lesson"
	"letternest/internal/story/narrator"
	"letternest/internal/story/tts"
)

// Player is the narration control surface the view drives.
type Player interface {
	Play()
	Pause()
	Stop()
	Restart()
	SelectVoice(id string) error
	Snapshot() narrator.Snapshot
}

// VoiceSource lists the voices the learner can cycle through.
type VoiceSource interface {
	Voices() []tts.Voice
}

// Key bindings.
const (
	KeyPlayPause = " "
	KeyStop      = "s"
	KeyRestart   = "r"
	KeyVoice     = "v"
	KeyQuit      = "q"
	KeyEsc       = "esc"
	KeyCtrlC     = "ctrl+c"
)

// Model is the read-along view for one narrated topic.
type Model struct {
	topic  lesson.Topic
	player Player
	voices VoiceSource
	events *Bridge

	snap     narrator.Snapshot
	errText  string
	finished bool
	width    int
}

func New(topic lesson.Topic, player Player, voices VoiceSource, events *Bridge) Model {
	return Model{
		topic:  topic,
		player: player,
		voices: voices,
		events: events,
		snap:   player.Snapshot(),
		width:  80,
	}
}

// Finished reports whether the narration played through before the view
// closed.
func (m Model) Finished() bool { return m.finished }

func (m Model) Init() tea.Cmd {
	return m.events.wait()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg, HighlightMsg:
		m.snap = m.player.Snapshot()
		if m.snap.State == narrator.Playing {
			m.errText = ""
		}
		return m, m.events.wait()

	case FailedMsg:
		m.snap = m.player.Snapshot()
		m.errText = fmt.Sprintf("Narration is unavailable (%v). Press space to try again.", msg.Err)
		return m, m.events.wait()

	case FinishedMsg:
		m.snap = m.player.Snapshot()
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.snap.Words) == 0 {
		switch msg.String() {
		case KeyQuit, KeyEsc, KeyCtrlC:
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case KeyQuit, KeyEsc, KeyCtrlC:
		return m, tea.Quit

	case KeyPlayPause:
		if m.snap.State == narrator.Playing {
			m.player.Pause()
		} else {
			m.errText = ""
			m.player.Play()
		}

	case KeyStop:
		m.player.Stop()

	case KeyRestart:
		m.errText = ""
		m.player.Restart()

	case KeyVoice:
		if next, ok := m.nextVoice(); ok {
			if err := m.player.SelectVoice(next.ID); err != nil {
				m.errText = err.Error()
			}
		}
	}

	m.snap = m.player.Snapshot()
	return m, nil
}

func (m Model) nextVoice() (tts.Voice, bool) {
	voices := m.voices.Voices()
	if len(voices) < 2 {
		return tts.Voice{}, false
	}
	for i, v := range voices {
		if v.ID == m.snap.Voice.ID {
			return voices[(i+1)%len(voices)], true
		}
	}
	return voices[0], true
}

func (m Model) View() string {
	var sections []string

	header := titleStyle.Render(m.topic.Title)
	if m.topic.Letter != "" {
		header = letterStyle.Render(strings.ToUpper(m.topic.Letter)) + "  " + header
	}
	sections = append(sections, header, "")
	sections = append(sections, m.renderText())
	sections = append(sections, m.renderStatus())
	if m.errText != "" {
		sections = append(sections, errorStyle.Render(m.errText))
	}
	sections = append(sections, "", m.renderFooter())
	return strings.Join(sections, "\n")
}

func (m Model) renderText() string {
	if len(m.snap.Words) == 0 {
		return statusStyle.Render("This lesson has no story to read yet.")
	}
	width := m.width - 6
	if width < 20 {
		width = 20
	}

	words := make([]string, len(m.snap.Words))
	for i, w := range m.snap.Words {
		if i == m.snap.Index {
			words[i] = highlightStyle.Render(w)
		} else {
			words[i] = wordStyle.Render(w)
		}
	}
	text := lipgloss.NewStyle().Width(width).Render(strings.Join(words, " "))
	return textBoxStyle.Render(text)
}

func (m Model) renderStatus() string {
	state := m.snap.State.String()
	if m.snap.Loading {
		state = "preparing narration..."
	}
	parts := []string{state}
	if m.snap.Voice.ID != "" {
		parts = append(parts, "voice: "+m.snap.Voice.Label)
	}
	if m.snap.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%s / %s",
			m.snap.Position.Round(100*time.Millisecond), m.snap.Duration.Round(100*time.Millisecond)))
	}
	return statusStyle.Render(strings.Join(parts, "  |  "))
}

func (m Model) renderFooter() string {
	var parts []string
	if len(m.snap.Words) > 0 {
		action := " Play"
		if m.snap.State == narrator.Playing {
			action = " Pause"
		}
		parts = append(parts, footerKeyStyle.Render("Space")+footerDescStyle.Render(action))
		parts = append(parts, footerKeyStyle.Render("s")+footerDescStyle.Render(" Stop"))
		parts = append(parts, footerKeyStyle.Render("r")+footerDescStyle.Render(" Restart"))
		parts = append(parts, footerKeyStyle.Render("v")+footerDescStyle.Render(" Voice"))
	}
	parts = append(parts, footerKeyStyle.Render("q")+footerDescStyle.Render(" Close"))
	return strings.Join(parts, "  ")
}
