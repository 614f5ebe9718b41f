package lesson

import (
	"fmt"
	"regexp"
)

// Presentation is how a topic is shown. It is one of Narrated,
// EmbeddedVideo or UploadedVideo.
type Presentation interface {
	presentation()
}

// Narrated reads the topic description aloud with a word highlight.
type Narrated struct {
	Text string
}

// EmbeddedVideo is a YouTube video shown through its embed URL.
type EmbeddedVideo struct {
	EmbedURL string
	Media    Media
}

// UploadedVideo is an mp4 served by the backend or an external URL.
type UploadedVideo struct {
	Source string
	Media  Media
}

func (Narrated) presentation()      {}
func (EmbeddedVideo) presentation() {}
func (UploadedVideo) presentation() {}

var youTubeID = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// YouTubeEmbedURL turns a watch, embed or short link into an embed URL
// carrying the autoplay and player-controls flags.
func YouTubeEmbedURL(url string, autoplay, controls bool) (string, bool) {
	if url == "" {
		return "", false
	}
	m := youTubeID.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("https://www.youtube.com/embed/%s?autoplay=%d&mute=0&controls=%d&modestbranding=1&rel=0",
		m[1], flag(autoplay), flag(controls)), true
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// PresentationFor picks the presentation for a topic. Topics without media,
// with story media, or with media that cannot be played fall back to
// narration of the description.
func PresentationFor(t Topic) Presentation {
	media, ok := t.PrimaryMedia()
	if !ok {
		return Narrated{Text: t.Description}
	}

	switch media.Kind {
	case MediaYouTube:
		if embed, ok := YouTubeEmbedURL(media.URL, media.Autoplay, media.AllowControls); ok {
			return EmbeddedVideo{EmbedURL: embed, Media: media}
		}
	case MediaUpload:
		src := media.File
		if src == "" {
			src = media.URL
		}
		if src != "" {
			return UploadedVideo{Source: src, Media: media}
		}
	}

	return Narrated{Text: t.Description}
}
