package lesson

import "time"

// MediaKind is the backend's media_type value.
type MediaKind string

const (
	MediaYouTube MediaKind = "youtube"
	MediaUpload  MediaKind = "mp4"
	MediaStory   MediaKind = "story"
)

func (k MediaKind) Valid() bool {
	switch k {
	case MediaYouTube, MediaUpload, MediaStory:
		return true
	}
	return false
}

// Media is a video (or story marker) attached to a topic.
type Media struct {
	ID            int       `json:"id"`
	TopicID       int       `json:"topic"`
	Kind          MediaKind `json:"media_type"`
	URL           string    `json:"media_url"`
	File          string    `json:"uploaded_file"`
	Autoplay      bool      `json:"autoplay"`
	AllowControls bool      `json:"allow_controls"`
	Duration      *int      `json:"duration,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Topic is one letter lesson.
type Topic struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Letter      string    `json:"letter"`
	Theme       string    `json:"theme"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	IsActive    bool      `json:"is_active"`
	Media       []Media   `json:"media"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PrimaryMedia returns the media item that drives presentation, if any.
func (t Topic) PrimaryMedia() (Media, bool) {
	if len(t.Media) == 0 {
		return Media{}, false
	}
	return t.Media[0], true
}

// Progress is the backend's per-user lesson progress record.
type Progress struct {
	ID          int       `json:"id"`
	Topic       Topic     `json:"topic"`
	StarsEarned int       `json:"stars_earned"`
	Completed   bool      `json:"completed"`
	LastWatched time.Time `json:"last_watched"`
}

// MaxStars caps the stars shown for local completions.
const MaxStars = 5

// Stars converts a completion count into the stars shown to the learner.
func Stars(completed int) int {
	if completed > MaxStars {
		return MaxStars
	}
	if completed < 0 {
		return 0
	}
	return completed
}
