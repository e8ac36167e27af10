package chatui

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdesk/tomas/internal/client"
	"github.com/civicdesk/tomas/internal/speech"
)

func newSpeechController() (*Controller, *fakeView, *fakeSpeaker) {
	view := newFakeView()
	sp := newFakeSpeaker()
	return newController(view, replyWith(client.Reply{}, nil), sp), view, sp
}

func TestToggleSpeechStartsFromIdle(t *testing.T) {
	c, view, sp := newSpeechController()

	c.ToggleSpeech("hello there", "b1")

	started, cancels := sp.counts()
	assert.Equal(t, 1, started)
	assert.Zero(t, cancels)
	assert.Equal(t, []string{"b1"}, view.speakingButtons())

	u := sp.started[0]
	assert.Equal(t, "hello there", u.Text)
	assert.Equal(t, "en-US", u.Lang)
	assert.Equal(t, 1.0, u.Rate)
	assert.Equal(t, 1.2, u.Pitch)

	button, ok := c.Speaking()
	assert.True(t, ok)
	assert.Equal(t, "b1", button)
}

func TestToggleSpeechSameButtonStops(t *testing.T) {
	c, view, sp := newSpeechController()

	c.ToggleSpeech("hello", "b1")
	c.ToggleSpeech("hello", "b1")

	started, cancels := sp.counts()
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, cancels)
	assert.Empty(t, view.speakingButtons())
	_, ok := c.Speaking()
	assert.False(t, ok)

	// the engine reports the cancellation afterwards; nothing changes
	sp.end(0, speech.ErrCanceled)
	assert.Empty(t, view.speakingButtons())
}

func TestToggleSpeechOtherButtonSwitches(t *testing.T) {
	c, view, sp := newSpeechController()

	c.ToggleSpeech("first", "b1")
	c.ToggleSpeech("second", "b2")

	started, cancels := sp.counts()
	assert.Equal(t, 2, started)
	assert.Equal(t, 1, cancels)
	assert.Equal(t, []string{"b2"}, view.speakingButtons())
	assert.Equal(t, "second", sp.started[1].Text)

	// late end of the first utterance must not clear the second button
	sp.end(0, speech.ErrCanceled)
	assert.Equal(t, []string{"b2"}, view.speakingButtons())
	button, _ := c.Speaking()
	assert.Equal(t, "b2", button)
}

func TestToggleSpeechReturnsToIdleOnEnd(t *testing.T) {
	c, view, sp := newSpeechController()

	c.ToggleSpeech("hello", "b1")
	sp.end(0, nil)

	assert.Empty(t, view.speakingButtons())
	_, ok := c.Speaking()
	assert.False(t, ok)

	// a click after the end starts again without cancelling
	c.ToggleSpeech("hello", "b1")
	started, cancels := sp.counts()
	assert.Equal(t, 2, started)
	assert.Zero(t, cancels)
	assert.Equal(t, []string{"b1"}, view.speakingButtons())
}

func TestToggleSpeechEngineErrorResetsButton(t *testing.T) {
	c, view, sp := newSpeechController()

	c.ToggleSpeech("hello", "b1")
	sp.end(0, errors.New("audio device busy"))

	assert.Empty(t, view.speakingButtons())
	assert.Empty(t, c.Transcript(), "speech errors are not shown to the user")
}

func TestToggleSpeechStartFailureResetsButton(t *testing.T) {
	c, view, sp := newSpeechController()
	sp.fail = errors.New("no engine")

	c.ToggleSpeech("hello", "b1")

	assert.Empty(t, view.speakingButtons())
	_, ok := c.Speaking()
	assert.False(t, ok)
}

func TestToggleSpeechAtMostOneSpeaking(t *testing.T) {
	c, view, sp := newSpeechController()

	for _, b := range []string{"b1", "b2", "b3", "b2", "b1"} {
		c.ToggleSpeech("text "+b, b)
		assert.LessOrEqual(t, len(view.speakingButtons()), 1)
	}
	assert.Equal(t, []string{"b1"}, view.speakingButtons())

	started, cancels := sp.counts()
	assert.Equal(t, 5, started)
	assert.Equal(t, 4, cancels)
}

func TestSpeakMessageOnlyForBotEntries(t *testing.T) {
	c, view, sp := newSpeechController()
	c.Greet("Hello **there**")

	entries := c.Transcript()
	require.Len(t, entries, 1)

	assert.True(t, c.SpeakMessage(entries[0].ID))
	assert.Equal(t, []string{entries[0].ID}, view.speakingButtons())
	assert.Equal(t, "Hello there", sp.started[0].Text)

	assert.False(t, c.SpeakMessage("missing"))
}

func TestSpeakMessageRejectsUserEntries(t *testing.T) {
	view := newFakeView()
	sp := newFakeSpeaker()
	c := newController(view, replyWith(client.Reply{Markdown: "ok"}, nil), sp)

	c.Submit(t.Context(), "Hello")
	entries := c.Transcript()
	require.Len(t, entries, 2)

	assert.False(t, c.SpeakMessage(entries[0].ID))
	assert.True(t, c.SpeakMessage(entries[1].ID))
}

func TestStopSpeech(t *testing.T) {
	c, view, sp := newSpeechController()

	c.StopSpeech()
	_, cancels := sp.counts()
	assert.Zero(t, cancels)

	c.ToggleSpeech("hello", "b1")
	c.StopSpeech()

	_, cancels = sp.counts()
	assert.Equal(t, 1, cancels)
	assert.Empty(t, view.speakingButtons())
}
