package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdesk/tomas/internal/model/chat"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/chat", srv.Client())
}

func TestSendPostsMessage(t *testing.T) {
	var got chat.Request
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"**hi**"}`))
	})

	reply, err := c.Send(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Message)
	assert.Equal(t, Reply{Markdown: "**hi**"}, reply)
}

func TestSendApplicationError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"agent unavailable"}`))
	})

	reply, err := c.Send(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "agent unavailable", reply.Error)
	assert.Empty(t, reply.Markdown)
}

func TestSendStatusErrorWithJSONBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"message is required"}`))
	})

	_, err := c.Send(context.Background(), "Hello")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Equal(t, "message is required", se.Message)
}

func TestSendStatusErrorFallsBackToGenericMessage(t *testing.T) {
	for name, body := range map[string]string{
		"html":        "<html>bad gateway</html>",
		"empty":       "",
		"no error":    `{"detail":"x"}`,
		"blank error": `{"error":"  "}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(body))
			})

			_, err := c.Send(context.Background(), "Hello")
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "Server error: 502", se.Error())
		})
	}
}

func TestSendMalformedSuccessBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.Send(context.Background(), "Hello")
	require.Error(t, err)
	var se *StatusError
	assert.NotErrorAs(t, err, &se)
}

func TestSendNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/api/chat"
	srv.Close()

	_, err := New(endpoint, nil).Send(context.Background(), "Hello")
	require.Error(t, err)
}

func TestPersona(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/persona", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"tomas","name":"Tomás","openingLine":"Hello"}`))
	})

	p, err := c.Persona(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Tomás", p.Name)
	assert.Equal(t, "Hello", p.OpeningLine)
}
