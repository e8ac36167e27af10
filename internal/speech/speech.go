// Package speech plays assistant messages aloud through a local engine.
package speech

import (
	"github.com/pkg/errors"
)

// ErrCanceled is reported to an utterance's completion callback when it was
// stopped by Cancel rather than finishing on its own.
var ErrCanceled = errors.New("speech canceled")

// Utterance is one text-to-speech playback request.
type Utterance struct {
	ID    string
	Text  string
	Lang  string  // BCP 47 tag, e.g. en-US
	Rate  float64 // 1.0 is the engine's normal speed
	Pitch float64 // 1.0 is the engine's normal pitch
}

// Speaker is the shared speech engine.
//
// Speak starts u and returns immediately. done is invoked exactly once for
// every utterance Speak accepted, with nil when playback finished, ErrCanceled
// when it was cancelled, or the engine error. done is never invoked before
// Speak returns. Cancel stops whatever is playing; it is a no-op when idle.
type Speaker interface {
	Speak(u Utterance, done func(error)) error
	Cancel()
}
