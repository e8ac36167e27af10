package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "fc-key", srv.Client(), zerolog.Nop())
}

func TestSearchSendsQueryAndFormatsFichas(t *testing.T) {
	var got searchRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "Bearer fc-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"data":[
			{"url":"https://www.chileatiende.gob.cl/fichas/3076-certificado","title":"Fonasa certificate","markdown":"Download it online."},
			{"url":"https://www.chileatiende.gob.cl/fichas/file.pdf","title":"PDF","markdown":"x"},
			{"url":"https://example.com/other","title":"Other","markdown":"y"}
		]}`))
	})

	out, err := c.Search(context.Background(), "renew my driver license")
	require.NoError(t, err)

	assert.Equal(t, "ChileAtiende: renew my driver license", got.Query)
	assert.Equal(t, 2, got.Limit)
	assert.Equal(t, "cl", got.Country)
	assert.Equal(t, []string{"markdown", "links"}, got.ScrapeOptions.Formats)

	assert.Contains(t, out, "# Result No. 1")
	assert.Contains(t, out, `"Fonasa certificate"`)
	assert.Contains(t, out, "Download it online.")
	assert.NotContains(t, out, "Result No. 2")
}

func TestSearchNoRelevantResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[{"url":"https://example.com/a"}]}`))
	})

	out, err := c.Search(context.Background(), "winter bonus")
	require.NoError(t, err)
	assert.Equal(t, NoResults, out)
}

func TestSearchNoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	})

	out, err := c.Search(context.Background(), "winter bonus")
	require.NoError(t, err)
	assert.Equal(t, NoData, out)
}

func TestSearchRejectsShortQuery(t *testing.T) {
	c := NewClient("http://unused", "k", nil, zerolog.Nop())
	_, err := c.Search(context.Background(), " id ")
	assert.ErrorIs(t, err, ErrQueryTooShort)
}

func TestSearchHTTPFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Search(context.Background(), "winter bonus")
	assert.Error(t, err)
}

func TestFormatFallbacks(t *testing.T) {
	out := Format([]Result{{}})
	assert.Contains(t, out, "Title not available")
	assert.Contains(t, out, "URL not available")
	assert.Contains(t, out, "Content not available")
}
