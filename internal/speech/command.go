package speech

import (
	"context"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	baseWordsPerMinute = 175
	baseEspeakPitch    = 50
)

// CommandSpeaker speaks through an external TTS program such as espeak-ng or
// macOS say. Only one process runs at a time.
type CommandSpeaker struct {
	command string
	logger  zerolog.Logger

	mu     sync.Mutex
	active *playback
	wg     sync.WaitGroup
}

type playback struct {
	id     string
	cancel context.CancelFunc
}

// NewCommandSpeaker returns a speaker that runs command for each utterance.
func NewCommandSpeaker(command string, logger zerolog.Logger) *CommandSpeaker {
	return &CommandSpeaker{
		command: command,
		logger:  logger.With().Str("component", "speech").Str("command", command).Logger(),
	}
}

// Available reports whether the configured program can be found on PATH.
func (s *CommandSpeaker) Available() bool {
	_, err := exec.LookPath(s.command)
	return err == nil
}

// Speak starts the TTS program for u.
func (s *CommandSpeaker) Speak(u Utterance, done func(error)) error {
	if strings.TrimSpace(u.Text) == "" {
		return errors.New("speech text is empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, s.command, Args(s.command, u)...)
	if err := cmd.Start(); err != nil {
		cancel()
		return errors.Wrapf(err, "start %s", s.command)
	}

	pb := &playback{id: u.ID, cancel: cancel}

	s.mu.Lock()
	if s.active != nil {
		s.active.cancel()
	}
	s.active = pb
	s.mu.Unlock()

	s.logger.Debug().Str("utterance", u.ID).Int("pid", cmd.Process.Pid).Msg("speech started")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := cmd.Wait()
		canceled := ctx.Err() != nil
		cancel()

		s.mu.Lock()
		if s.active == pb {
			s.active = nil
		}
		s.mu.Unlock()

		switch {
		case canceled:
			done(ErrCanceled)
		case err != nil:
			done(errors.Wrapf(err, "%s exited", s.command))
		default:
			done(nil)
		}
	}()

	return nil
}

// Cancel kills the running TTS process, if any.
func (s *CommandSpeaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.logger.Debug().Str("utterance", s.active.id).Msg("speech canceled")
		s.active.cancel()
		s.active = nil
	}
}

// Wait blocks until every started process has exited and reported.
func (s *CommandSpeaker) Wait() {
	s.wg.Wait()
}

// Args maps u onto the flags understood by the named TTS program. Programs
// without a known flag set receive the text as their only argument.
func Args(command string, u Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	wpm := strconv.Itoa(int(math.Round(baseWordsPerMinute * rate)))

	switch filepath.Base(command) {
	case "espeak-ng", "espeak":
		args := []string{"-s", wpm}
		if u.Pitch > 0 {
			pitch := int(math.Round(baseEspeakPitch * u.Pitch))
			args = append(args, "-p", strconv.Itoa(min(max(pitch, 0), 99)))
		}
		if u.Lang != "" {
			args = append(args, "-v", strings.ToLower(u.Lang))
		}
		return append(args, "--", u.Text)
	case "say":
		return []string{"-r", wpm, "--", u.Text}
	default:
		return []string{u.Text}
	}
}
