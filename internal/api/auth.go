package api

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges credentials for a token pair and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	cl, err := jsonCall("login", http.MethodPost, "token/", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, cl, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var t Tokens
	if err := decodeResponse(cl.op, resp, &t); err != nil {
		return err
	}
	if t.Access == "" {
		return fmt.Errorf("login: response carried no access token")
	}
	if err := c.session.set(ctx, t); err != nil {
		return fmt.Errorf("login: save tokens: %w", err)
	}
	c.log.WithField("user", username).Info("logged in")
	return nil
}

// Logout forgets both tokens.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.session.clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// refresh obtains a new access token. A rejected refresh clears the session
// and returns ErrSessionExpired.
func (c *Client) refresh(ctx context.Context, refresh string) (string, error) {
	cl, err := jsonCall("refresh token", http.MethodPost, "token/refresh/", map[string]string{
		"refresh": refresh,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.send(ctx, cl, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Access string `json:"access"`
	}
	if err := decodeResponse(cl.op, resp, &body); err != nil || body.Access == "" {
		c.log.WithError(err).Warn("refresh rejected, clearing session")
		if cerr := c.session.expire(ctx); cerr != nil {
			c.log.WithError(cerr).Warn("could not clear stored tokens")
		}
		return "", ErrSessionExpired
	}

	if err := c.session.setAccess(ctx, body.Access); err != nil {
		return "", fmt.Errorf("refresh token: save tokens: %w", err)
	}
	c.log.Debug("access token refreshed")
	return body.Access, nil
}
