// Package search looks up ChileAtiende procedure pages through Firecrawl.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// Instruction prefixes every query so results stay on the ChileAtiende site.
	Instruction = "ChileAtiende: "

	fichasPrefix   = "https://www.chileatiende.gob.cl/fichas"
	minQueryLength = 5
	resultLimit    = 2

	// NoResults is returned when nothing relevant survives filtering.
	NoResults = "No relevant ChileAtiende pages were found for your search."
	// NoData is returned when Firecrawl answered without any data.
	NoData = "The search returned no results."
)

// ErrQueryTooShort rejects queries shorter than five characters.
var ErrQueryTooShort = errors.Errorf("search query must be at least %d characters", minQueryLength)

const resultTemplate = `
# Result No. %d

## Page name:
"%s"

## URL:
%s

## Content:
%s

`

// Client calls the Firecrawl search API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient returns a Firecrawl client. A nil httpClient gets a 30 s timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		logger:  logger.With().Str("component", "search").Logger(),
	}
}

type searchRequest struct {
	Query         string        `json:"query"`
	Limit         int           `json:"limit"`
	Country       string        `json:"country"`
	Lang          string        `json:"lang"`
	ScrapeOptions scrapeOptions `json:"scrapeOptions"`
}

type scrapeOptions struct {
	Formats []string `json:"formats"`
}

type searchResponse struct {
	Success bool     `json:"success"`
	Data    []Result `json:"data"`
	Error   string   `json:"error,omitempty"`
}

// Result is one page returned by Firecrawl.
type Result struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

// Search queries ChileAtiende and returns the matching procedure pages
// formatted as markdown.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLength {
		c.logger.Warn().Str("query", query).Msg("search query too short")
		return "", ErrQueryTooShort
	}

	payload, err := json.Marshal(searchRequest{
		Query:         Instruction + query,
		Limit:         resultLimit,
		Country:       "cl",
		Lang:          "en",
		ScrapeOptions: scrapeOptions{Formats: []string{"markdown", "links"}},
	})
	if err != nil {
		return "", errors.Wrap(err, "encode search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/search", bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "build search request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug().Str("query", Instruction+query).Msg("firecrawl search")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "firecrawl search")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", errors.Wrap(err, "read search response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("firecrawl search: status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", errors.Wrap(err, "decode search response")
	}
	if len(decoded.Data) == 0 {
		c.logger.Warn().Msg("firecrawl returned no data")
		return NoData, nil
	}

	filtered := Filter(decoded.Data)
	c.logger.Debug().Int("results", len(decoded.Data)).Int("fichas", len(filtered)).Msg("filtered search results")
	if len(filtered) == 0 {
		return NoResults, nil
	}

	c.logger.Info().Int("results", len(filtered)).Msg("search completed")
	return Format(filtered), nil
}

// Filter keeps ChileAtiende procedure pages ("fichas") that are not PDFs.
func Filter(results []Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if strings.HasPrefix(r.URL, fichasPrefix) && !strings.HasSuffix(r.URL, "pdf") {
			out = append(out, r)
		}
	}
	return out
}

// Format renders results with the numbered result template.
func Format(results []Result) string {
	var sb strings.Builder
	for i, r := range results {
		sb.WriteString(fmt.Sprintf(resultTemplate,
			i+1,
			orDefault(r.Title, "Title not available"),
			orDefault(r.URL, "URL not available"),
			orDefault(r.Markdown, "Content not available"),
		))
	}
	return sb.String()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
