package library

import (
	"sort"
	"strings"

	"letternest/internal/domain/lesson"
)

// Library is a collection of letter lessons from one source.
type Library struct {
	Name   string         `json:"name"`
	URL    string         `json:"url"`
	Topics []lesson.Topic `json:"topics"`
}

// Find returns the topic with the given id.
func (l *Library) Find(id int) (lesson.Topic, bool) {
	for _, t := range l.Topics {
		if t.ID == id {
			return t, true
		}
	}
	return lesson.Topic{}, false
}

// Filter returns active topics matching letter and theme. Empty arguments
// match everything; matching ignores case.
func (l *Library) Filter(letter, theme string) []lesson.Topic {
	var out []lesson.Topic
	for _, t := range l.Topics {
		if !t.IsActive {
			continue
		}
		if letter != "" && !strings.EqualFold(t.Letter, letter) {
			continue
		}
		if theme != "" && !strings.EqualFold(t.Theme, theme) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Letter != out[j].Letter {
			return strings.ToUpper(out[i].Letter) < strings.ToUpper(out[j].Letter)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Themes lists the distinct themes of active topics in sorted order.
func (l *Library) Themes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range l.Topics {
		theme := strings.ToLower(strings.TrimSpace(t.Theme))
		if !t.IsActive || theme == "" || seen[theme] {
			continue
		}
		seen[theme] = true
		out = append(out, theme)
	}
	sort.Strings(out)
	return out
}
