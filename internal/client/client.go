// Package client talks to the chat server's JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/civicdesk/tomas/internal/model/chat"
	"github.com/civicdesk/tomas/internal/model/persona"
)

// maxBodyBytes bounds how much of a reply body is read.
const maxBodyBytes = 4 << 20

// Reply is a 2xx answer from the chat endpoint. Exactly one of Markdown and
// Error is meaningful: Error carries an application-level failure reported by
// the server, which is not a transport problem.
type Reply struct {
	Markdown string
	Error    string
}

// StatusError reports a non-2xx reply. Message is the server supplied error
// text, or "Server error: {status}" when the body carried none.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Client posts messages to a chat endpoint such as http://host/api/chat.
type Client struct {
	endpoint string
	http     *http.Client
}

// New returns a client for endpoint. A nil httpClient uses a client without
// timeout; requests run until the caller's context ends.
func New(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Endpoint returns the chat URL this client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send posts message as {"message": message}.
func (c *Client) Send(ctx context.Context, message string) (Reply, error) {
	payload, err := json.Marshal(chat.Request{Message: message})
	if err != nil {
		return Reply{}, errors.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Reply{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Reply{}, errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, statusError(resp.StatusCode, body)
	}

	var decoded chat.Response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Reply{}, errors.Wrap(err, "decode response")
	}
	if decoded.Error != "" {
		return Reply{Error: decoded.Error}, nil
	}
	return Reply{Markdown: decoded.Response}, nil
}

// statusError extracts the error text of a non-2xx body on a best-effort
// basis. A body that is not JSON never produces a secondary error.
func statusError(status int, body []byte) *StatusError {
	msg := fmt.Sprintf("Server error: %d", status)

	var decoded chat.Response
	if err := json.Unmarshal(body, &decoded); err == nil && strings.TrimSpace(decoded.Error) != "" {
		msg = decoded.Error
	}
	return &StatusError{Status: status, Message: msg}
}

// Persona fetches the assistant persona served next to the chat endpoint
// (…/api/chat → …/api/persona).
func (c *Client) Persona(ctx context.Context) (persona.Persona, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return persona.Persona{}, errors.Wrap(err, "parse endpoint")
	}
	u.Path = strings.TrimSuffix(u.Path, "/chat") + "/persona"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return persona.Persona{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return persona.Persona{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return persona.Persona{}, errors.Errorf("persona: unexpected status %d", resp.StatusCode)
	}

	var p persona.Persona
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&p); err != nil {
		return persona.Persona{}, errors.Wrap(err, "decode persona")
	}
	return p, nil
}
