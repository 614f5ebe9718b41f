package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"letternest/internal/domain/lesson"
)

// Upload is a file sent with a multipart write.
type Upload struct {
	Filename string
	Data     []byte
}

// TopicInput is the writable part of a topic. Nil fields are left out, so
// the same input serves create and partial update.
type TopicInput struct {
	Title       *string
	Letter      *string
	Theme       *string
	Description *string
	IsActive    *bool
	Thumbnail   *Upload
}

// MediaInput is the writable part of a media item.
type MediaInput struct {
	Topic         *int
	Kind          *lesson.MediaKind
	URL           *string
	File          *Upload
	Autoplay      *bool
	AllowControls *bool
	Duration      *int
}

func String(s string) *string { return &s }
func Bool(b bool) *bool       { return &b }
func Int(n int) *int          { return &n }

func Kind(k lesson.MediaKind) *lesson.MediaKind { return &k }

func (c *Client) ListTopics(ctx context.Context) ([]lesson.Topic, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "list topics", method: http.MethodGet, path: "topics/"}, &raw); err != nil {
		return nil, err
	}
	return decodeTopicList(raw)
}

// decodeTopicList accepts a bare array or a paginated {"results": [...]}.
func decodeTopicList(raw json.RawMessage) ([]lesson.Topic, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var page struct {
			Results []lesson.Topic `json:"results"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("list topics: decode page: %w", err)
		}
		return page.Results, nil
	}
	var topics []lesson.Topic
	if err := json.Unmarshal(raw, &topics); err != nil {
		return nil, fmt.Errorf("list topics: decode response: %w", err)
	}
	return topics, nil
}

func (c *Client) GetTopic(ctx context.Context, id int) (lesson.Topic, error) {
	var t lesson.Topic
	err := c.do(ctx, call{op: "get topic", method: http.MethodGet, path: fmt.Sprintf("topics/%d/", id)}, &t)
	return t, err
}

func (c *Client) CreateTopic(ctx context.Context, in TopicInput) (lesson.Topic, error) {
	var t lesson.Topic
	cl, err := in.call("create topic", http.MethodPost, "topics/")
	if err != nil {
		return t, err
	}
	err = c.do(ctx, cl, &t)
	return t, err
}

func (c *Client) UpdateTopic(ctx context.Context, id int, in TopicInput) (lesson.Topic, error) {
	var t lesson.Topic
	cl, err := in.call("update topic", http.MethodPatch, fmt.Sprintf("topics/%d/", id))
	if err != nil {
		return t, err
	}
	err = c.do(ctx, cl, &t)
	return t, err
}

func (c *Client) DeleteTopic(ctx context.Context, id int) error {
	return c.do(ctx, call{op: "delete topic", method: http.MethodDelete, path: fmt.Sprintf("topics/%d/", id)}, nil)
}

func (c *Client) CreateMedia(ctx context.Context, in MediaInput) (lesson.Media, error) {
	var m lesson.Media
	cl, err := in.call("create media", http.MethodPost, "media/")
	if err != nil {
		return m, err
	}
	err = c.do(ctx, cl, &m)
	return m, err
}

func (c *Client) UpdateMedia(ctx context.Context, id int, in MediaInput) (lesson.Media, error) {
	var m lesson.Media
	cl, err := in.call("update media", http.MethodPatch, fmt.Sprintf("media/%d/", id))
	if err != nil {
		return m, err
	}
	err = c.do(ctx, cl, &m)
	return m, err
}

func (in TopicInput) call(op, method, path string) (call, error) {
	f := newForm()
	f.text("title", in.Title)
	f.text("letter", in.Letter)
	f.text("theme", in.Theme)
	f.text("description", in.Description)
	f.flag("is_active", in.IsActive)
	f.file("thumbnail", in.Thumbnail)
	return f.call(op, method, path)
}

func (in MediaInput) call(op, method, path string) (call, error) {
	f := newForm()
	f.number("topic", in.Topic)
	if in.Kind != nil {
		f.text("media_type", String(string(*in.Kind)))
	}
	f.text("media_url", in.URL)
	f.file("uploaded_file", in.File)
	f.flag("autoplay", in.Autoplay)
	f.flag("allow_controls", in.AllowControls)
	f.number("duration", in.Duration)
	return f.call(op, method, path)
}

// form builds a multipart body, remembering the first write error.
type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) text(name string, v *string) {
	if v == nil || f.err != nil {
		return
	}
	f.err = f.w.WriteField(name, *v)
}

func (f *form) flag(name string, v *bool) {
	if v == nil {
		return
	}
	f.text(name, String(strconv.FormatBool(*v)))
}

func (f *form) number(name string, v *int) {
	if v == nil {
		return
	}
	f.text(name, String(strconv.Itoa(*v)))
}

func (f *form) file(name string, u *Upload) {
	if u == nil || f.err != nil {
		return
	}
	part, err := f.w.CreateFormFile(name, u.Filename)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(u.Data)
}

func (f *form) call(op, method, path string) (call, error) {
	if f.err == nil {
		f.err = f.w.Close()
	}
	if f.err != nil {
		return call{}, fmt.Errorf("%s: build form: %w", op, f.err)
	}
	return call{
		op:          op,
		method:      method,
		path:        path,
		contentType: f.w.FormDataContentType(),
		body:        f.buf.Bytes(),
	}, nil
}
