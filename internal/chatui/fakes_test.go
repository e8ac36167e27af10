package chatui

import (
	"context"
	"sync"

	"github.com/civicdesk/tomas/internal/client"
	"github.com/civicdesk/tomas/internal/speech"
)

type fakeView struct {
	mu       sync.Mutex
	entries  []Entry
	cleared  int
	loading  bool
	focused  bool
	speaking map[string]bool
}

func newFakeView() *fakeView {
	return &fakeView{focused: true, speaking: make(map[string]bool)}
}

func (v *fakeView) AppendMessage(e Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, e)
}

func (v *fakeView) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cleared++
}

func (v *fakeView) SetLoading(loading bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = loading
	if loading {
		v.focused = false
	}
}

func (v *fakeView) FocusInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.focused = true
}

func (v *fakeView) SetSpeaking(button string, speaking bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.speaking[button] = speaking
}

func (v *fakeView) snapshot() (entries []Entry, loading, focused bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Entry(nil), v.entries...), v.loading, v.focused
}

func (v *fakeView) speakingButtons() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []string
	for b, on := range v.speaking {
		if on {
			out = append(out, b)
		}
	}
	return out
}

type fakeClient struct {
	mu    sync.Mutex
	calls []string
	send  func(ctx context.Context, message string) (client.Reply, error)
}

func (c *fakeClient) Send(ctx context.Context, message string) (client.Reply, error) {
	c.mu.Lock()
	c.calls = append(c.calls, message)
	c.mu.Unlock()
	return c.send(ctx, message)
}

func (c *fakeClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// fakeSpeaker keeps completion callbacks so tests decide when utterances end.
type fakeSpeaker struct {
	mu      sync.Mutex
	started []speech.Utterance
	dones   map[string]func(error)
	cancels int
	fail    error
}

func newFakeSpeaker() *fakeSpeaker {
	return &fakeSpeaker{dones: make(map[string]func(error))}
}

func (s *fakeSpeaker) Speak(u speech.Utterance, done func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.started = append(s.started, u)
	s.dones[u.ID] = done
	return nil
}

func (s *fakeSpeaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
}

// end fires the completion callback of the i-th started utterance.
func (s *fakeSpeaker) end(i int, err error) {
	s.mu.Lock()
	done := s.dones[s.started[i].ID]
	s.mu.Unlock()
	done(err)
}

func (s *fakeSpeaker) counts() (started, cancels int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.started), s.cancels
}
