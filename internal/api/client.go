package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrSessionExpired is returned when the backend rejected both the access
// token and the refresh token. The session has been cleared.
var ErrSessionExpired = errors.New("session expired, please log in again")

// StatusError is a non-success response from the backend.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// Client talks to the lessons REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	log        *logrus.Entry
}

func New(baseURL string, timeout time.Duration, session *Session, log *logrus.Entry) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if session == nil {
		session = &Session{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		session:    session,
		log:        log.WithField("component", "api"),
	}
}

func (c *Client) Session() *Session { return c.session }

// call describes one request. The body is kept as bytes so it can be sent
// again after a token refresh.
type call struct {
	op          string
	method      string
	path        string
	contentType string
	body        []byte
}

func jsonCall(op, method, path string, v any) (call, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return call{}, fmt.Errorf("%s: encode request: %w", op, err)
	}
	return call{op: op, method: method, path: path, contentType: "application/json", body: body}, nil
}

// do sends an authorized request. A 401 with a refresh token available
// refreshes the access token and retries exactly once.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	resp, err := c.send(ctx, cl, c.session.Tokens().Access)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if refresh := c.session.Tokens().Refresh; refresh != "" {
			resp.Body.Close()
			access, err := c.refresh(ctx, refresh)
			if err != nil {
				return err
			}
			if resp, err = c.send(ctx, cl, access); err != nil {
				return err
			}
		}
	}
	defer resp.Body.Close()

	return decodeResponse(cl.op, resp, out)
}

func (c *Client) send(ctx context.Context, cl call, access string) (*http.Response, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.url(cl.path), body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cl.op, err)
	}
	c.log.WithFields(logrus.Fields{
		"op":      cl.op,
		"status":  resp.StatusCode,
		"elapsed": time.Since(started).Round(time.Millisecond),
	}).Debug("request complete")
	return resp, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func decodeResponse(op string, resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
