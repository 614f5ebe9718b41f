package api

import (
	"context"
	"net/http"

	"letternest/internal/domain/lesson"
)

// ProgressUpdate records a learner's result for one topic.
type ProgressUpdate struct {
	TopicID     int  `json:"topic_id"`
	StarsEarned int  `json:"stars_earned"`
	Completed   bool `json:"completed"`
}

// UpdateProgress creates or replaces the logged-in user's progress for a
// topic.
func (c *Client) UpdateProgress(ctx context.Context, u ProgressUpdate) (lesson.Progress, error) {
	var p lesson.Progress
	cl, err := jsonCall("update progress", http.MethodPost, "progress/update-progress/", u)
	if err != nil {
		return p, err
	}
	err = c.do(ctx, cl, &p)
	return p, err
}

func (c *Client) ListProgress(ctx context.Context) ([]lesson.Progress, error) {
	var out []lesson.Progress
	err := c.do(ctx, call{op: "list progress", method: http.MethodGet, path: "progress/"}, &out)
	return out, err
}
