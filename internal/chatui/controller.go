// Package chatui holds the chat screen logic independent of how it is drawn:
// the transcript, the single in-flight request and the read-aloud toggle.
package chatui

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/civicdesk/tomas/internal/client"
	"github.com/civicdesk/tomas/internal/model/chat"
	"github.com/civicdesk/tomas/internal/render"
	"github.com/civicdesk/tomas/internal/speech"
)

// ChatClient sends one user message and returns the server's reply.
type ChatClient interface {
	Send(ctx context.Context, message string) (client.Reply, error)
}

// Renderer turns markdown into sanitized HTML.
type Renderer interface {
	Markdown(src string) (string, error)
}

// Entry is a transcript line as handed to the View.
type Entry struct {
	chat.Message
	// Speakable marks entries that carry an audio button. Only bot entries do.
	Speakable bool
	// Text is the plain text read aloud and shown by text-only views.
	Text string
}

// View draws the chat screen. Methods may be called from any goroutine.
type View interface {
	AppendMessage(e Entry)
	ClearInput()
	// SetLoading shows the loading indicator and disables the input and send
	// controls while true.
	SetLoading(loading bool)
	FocusInput()
	SetSpeaking(button string, speaking bool)
}

// Voice holds the utterance parameters.
type Voice struct {
	Lang  string
	Rate  float64
	Pitch float64
}

// DefaultVoice matches the assistant's English voice.
var DefaultVoice = Voice{Lang: "en-US", Rate: 1.0, Pitch: 1.2}

// Options configures a Controller.
type Options struct {
	Voice  Voice
	Logger zerolog.Logger
}

// Controller coordinates the view, the chat endpoint and the speech engine.
type Controller struct {
	view    View
	client  ChatClient
	render  Renderer
	speaker speech.Speaker
	voice   Voice
	logger  zerolog.Logger

	mu         sync.Mutex
	transcript []Entry
	pending    bool
	utterance  string // id of the utterance currently playing
	speaking   string // button marked speaking
}

// New returns a controller with an empty transcript and no speech playing.
func New(view View, c ChatClient, r Renderer, s speech.Speaker, opts Options) *Controller {
	voice := opts.Voice
	if voice == (Voice{}) {
		voice = DefaultVoice
	}
	return &Controller{
		view:    view,
		client:  c,
		render:  r,
		speaker: s,
		voice:   voice,
		logger:  opts.Logger.With().Str("component", "chatui").Logger(),
	}
}

// Greet appends the initial bot message. markdown is rendered like any reply;
// when rendering fails the text is shown as is.
func (c *Controller) Greet(markdown string) {
	content, isHTML := markdown, false
	if html, err := c.render.Markdown(markdown); err == nil {
		content, isHTML = html, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendLocked(chat.SenderBot, content, isHTML)
}

// Submit sends text to the chat endpoint and appends the reply. Blank text is
// ignored, as is a submission while another request is in flight. Whatever
// the outcome, the input is re-enabled and focused before Submit returns.
func (c *Controller) Submit(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		c.logger.Debug().Msg("submit ignored, request in flight")
		return
	}
	c.pending = true
	c.logger.Info().Str("message", text).Msg("sending user message")
	c.appendLocked(chat.SenderUser, text, false)
	c.view.ClearInput()
	c.view.SetLoading(true)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.pending = false
		c.view.SetLoading(false)
		c.view.FocusInput()
	}()

	content, isHTML := c.exchange(ctx, text)

	c.mu.Lock()
	c.appendLocked(chat.SenderBot, content, isHTML)
	c.mu.Unlock()
}

// exchange performs the request and maps every outcome onto bot content.
func (c *Controller) exchange(ctx context.Context, text string) (string, bool) {
	reply, err := c.client.Send(ctx, text)
	if err != nil {
		c.logger.Error().Err(err).Msg("communication error")
		return "Communication error: " + err.Error(), false
	}

	if reply.Error != "" {
		c.logger.Error().Str("error", reply.Error).Msg("error received from backend")
		return "Error: " + reply.Error, false
	}

	html, err := c.render.Markdown(reply.Markdown)
	if err != nil {
		c.logger.Error().Err(err).Msg("render reply")
		return "Communication error: " + err.Error(), false
	}
	c.logger.Info().Int("bytes", len(html)).Msg("bot response added")
	return html, true
}

func (c *Controller) appendLocked(sender chat.Sender, content string, isHTML bool) {
	e := Entry{
		Message: chat.Message{
			ID:        uuid.NewString(),
			Sender:    sender,
			Content:   content,
			HTML:      isHTML,
			CreatedAt: time.Now().UTC(),
		},
		Speakable: sender == chat.SenderBot,
		Text:      content,
	}
	if isHTML {
		e.Text = render.Text(content)
	}

	c.transcript = append(c.transcript, e)
	c.view.AppendMessage(e)
}

// ToggleSpeech reads text aloud bound to button, or stops it. Clicking the
// button that is speaking stops playback; clicking any other button stops the
// current playback and starts text in its place.
func (c *Controller) ToggleSpeech(text, button string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.utterance != "" {
		c.speaker.Cancel()
		prev := c.speaking
		c.utterance, c.speaking = "", ""
		if prev != "" {
			c.view.SetSpeaking(prev, false)
		}
		c.logger.Info().Str("button", prev).Msg("speech stopped")
		if prev == button {
			return
		}
	}

	id := uuid.NewString()
	u := speech.Utterance{
		ID:    id,
		Text:  text,
		Lang:  c.voice.Lang,
		Rate:  c.voice.Rate,
		Pitch: c.voice.Pitch,
	}

	c.utterance, c.speaking = id, button
	c.view.SetSpeaking(button, true)
	c.logger.Info().Str("button", button).Str("text", preview(text)).Msg("speech started")

	if err := c.speaker.Speak(u, func(err error) { c.finishSpeech(id, err) }); err != nil {
		c.logger.Error().Err(err).Str("button", button).Msg("speech synthesis error")
		c.utterance, c.speaking = "", ""
		c.view.SetSpeaking(button, false)
	}
}

// SpeakMessage toggles speech for the transcript entry id. It reports false
// when id is not a speakable entry.
func (c *Controller) SpeakMessage(id string) bool {
	c.mu.Lock()
	var text string
	found := false
	for _, e := range c.transcript {
		if e.ID == id && e.Speakable {
			text, found = e.Text, true
			break
		}
	}
	c.mu.Unlock()

	if !found {
		return false
	}
	c.ToggleSpeech(text, id)
	return true
}

// finishSpeech handles the terminal event of utterance id. Events of
// utterances that were already cancelled or replaced are ignored.
func (c *Controller) finishSpeech(id string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.utterance != id {
		return
	}
	button := c.speaking
	c.utterance, c.speaking = "", ""
	c.view.SetSpeaking(button, false)

	switch {
	case err == nil:
		c.logger.Info().Str("button", button).Msg("speech finished")
	case errors.Is(err, speech.ErrCanceled):
		c.logger.Debug().Str("button", button).Msg("speech canceled")
	default:
		c.logger.Error().Err(err).Str("button", button).Msg("speech synthesis error")
	}
}

// StopSpeech cancels any playback.
func (c *Controller) StopSpeech() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.utterance == "" {
		return
	}
	c.speaker.Cancel()
	if c.speaking != "" {
		c.view.SetSpeaking(c.speaking, false)
	}
	c.utterance, c.speaking = "", ""
}

// Transcript returns a copy of the displayed messages in order.
func (c *Controller) Transcript() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.transcript...)
}

// Speaking returns the button currently marked speaking.
func (c *Controller) Speaking() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking, c.speaking != ""
}

// Pending reports whether a request is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func preview(s string) string {
	const n = 50
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
