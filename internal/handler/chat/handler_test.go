package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	modelchat "github.com/civicdesk/tomas/internal/model/chat"
	"github.com/civicdesk/tomas/internal/model/persona"
	"github.com/civicdesk/tomas/internal/service/ai"
	chatservice "github.com/civicdesk/tomas/internal/service/chat"
)

type fakeGenerator struct {
	reply    string
	err      error
	history  [][]modelchat.Message
	messages []string
}

func (g *fakeGenerator) Reply(_ context.Context, _ *persona.Persona, history []modelchat.Message, message string) (string, error) {
	g.history = append(g.history, history)
	g.messages = append(g.messages, message)
	return g.reply, g.err
}

func setupRouter(gen ai.Generator) (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService()
	store := persona.NewMemoryStore(persona.Seed())
	handler := New(chatSvc, store, gen, zerolog.Nop())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func postChat(r http.Handler, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) modelchat.Response {
	t.Helper()
	var out modelchat.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestChatReturnsMarkdownResponse(t *testing.T) {
	gen := &fakeGenerator{reply: "**hi**"}
	r, _ := setupRouter(gen)

	resp := postChat(r, `{"message":"Hello"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := decode(t, resp); got.Response != "**hi**" || got.Error != "" {
		t.Fatalf("unexpected body: %+v", got)
	}
	if len(gen.messages) != 1 || gen.messages[0] != "Hello" {
		t.Fatalf("unexpected generator input: %v", gen.messages)
	}
}

func TestChatKeepsSessionHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "answer"}
	r, chatSvc := setupRouter(gen)

	first := postChat(r, `{"message":"first"}`)
	cookies := first.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie {
		t.Fatalf("expected session cookie, got %v", cookies)
	}

	second := postChat(r, `{"message":"second"}`, cookies[0])
	if len(second.Result().Cookies()) != 0 {
		t.Fatal("known session must not be replaced")
	}

	if len(gen.history[1]) != 2 {
		t.Fatalf("expected two earlier turns, got %d", len(gen.history[1]))
	}
	if gen.history[1][0].Content != "first" || gen.history[1][1].Sender != modelchat.SenderBot {
		t.Fatalf("unexpected history: %+v", gen.history[1])
	}

	transcript, err := chatSvc.LoadTranscript(context.Background(), cookies[0].Value)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 4 {
		t.Fatalf("expected 4 stored messages, got %d", len(transcript))
	}
}

func TestChatUnknownSessionCookieStartsFresh(t *testing.T) {
	r, _ := setupRouter(&fakeGenerator{reply: "ok"})

	resp := postChat(r, `{"message":"Hello"}`, &http.Cookie{Name: SessionCookie, Value: "stale"})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value == "stale" {
		t.Fatalf("expected a new session cookie, got %v", cookies)
	}
}

func TestChatGenerationFailureIsApplicationError(t *testing.T) {
	r, _ := setupRouter(&fakeGenerator{err: errors.New("model down")})

	resp := postChat(r, `{"message":"Hello"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := decode(t, resp); got.Error != GenerationFailed || got.Response != "" {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestChatRejectsBadRequests(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"invalid json":  {body: `{`, want: "invalid request body"},
		"empty message": {body: `{"message":""}`, want: "message is required"},
		"whitespace":    {body: `{"message":"   "}`, want: "message is required"},
		"missing field": {body: `{}`, want: "message is required"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{reply: "x"}
			r, _ := setupRouter(gen)

			resp := postChat(r, tc.body)

			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
			if got := decode(t, resp); got.Error != tc.want {
				t.Fatalf("expected error %q, got %+v", tc.want, got)
			}
			if len(gen.messages) != 0 {
				t.Fatal("generator must not run for rejected requests")
			}
		})
	}
}

func TestChatWithoutGenerator(t *testing.T) {
	r, _ := setupRouter(nil)

	resp := postChat(r, `{"message":"Hello"}`)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if got := decode(t, resp); got.Error != "assistant unavailable" {
		t.Fatalf("unexpected body: %+v", got)
	}
}
