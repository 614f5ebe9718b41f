package readalong

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"letternest/internal/story/narrator"
)

// StateMsg reports a playback state change.
type StateMsg struct {
	State narrator.State
}

// HighlightMsg moves the word highlight.
type HighlightMsg struct {
	Index int
}

// FinishedMsg is sent once when narration plays to the end.
type FinishedMsg struct{}

// FailedMsg carries a recoverable narration error.
type FailedMsg struct {
	Err error
}

// Bridge turns controller callbacks into bubbletea messages.
type Bridge struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

func NewBridge() *Bridge {
	return &Bridge{
		ch:   make(chan tea.Msg, 32),
		done: make(chan struct{}),
	}
}

func (b *Bridge) StateChanged(s narrator.State) { b.send(StateMsg{State: s}) }
func (b *Bridge) Highlight(i int)               { b.send(HighlightMsg{Index: i}) }
func (b *Bridge) Finished()                     { b.send(FinishedMsg{}) }
func (b *Bridge) Failed(err error)              { b.send(FailedMsg{Err: err}) }

// Close releases any sender blocked on a view that has gone away.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	case <-b.done:
	}
}

// wait returns a command delivering the next controller event.
func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.done:
			return nil
		}
	}
}
