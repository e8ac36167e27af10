package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/civicdesk/tomas/internal/chatui"
	"github.com/civicdesk/tomas/internal/client"
	"github.com/civicdesk/tomas/internal/config"
	"github.com/civicdesk/tomas/internal/model/persona"
	"github.com/civicdesk/tomas/internal/render"
	"github.com/civicdesk/tomas/internal/speech"
	"github.com/civicdesk/tomas/internal/tui"
)

type options struct {
	endpoint      string
	speech        bool
	speechCommand string
	lang          string
	rate          float64
	pitch         float64
	logFile       string
	debug         bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	_ = godotenv.Load()

	var opts options
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to Tomás, the ChileAtiende assistant, from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return errors.Wrap(err, "load configuration")
			}
			applyFlags(cmd, &cfg.Client, opts)
			return run(cmd.Context(), cfg.Client, opts)
		},
		SilenceUsage: true,
	}

	f := cmd.Flags()
	f.StringVar(&opts.endpoint, "endpoint", "", "chat endpoint URL (default $CHAT_ENDPOINT)")
	f.BoolVar(&opts.speech, "speech", true, "read replies aloud on request")
	f.StringVar(&opts.speechCommand, "speech-command", "", "speech synthesis binary (default $SPEECH_COMMAND)")
	f.StringVar(&opts.lang, "lang", "", "utterance language (default $SPEECH_LANG)")
	f.Float64Var(&opts.rate, "rate", 0, "utterance rate, 1.0 is normal (default $SPEECH_RATE)")
	f.Float64Var(&opts.pitch, "pitch", 0, "utterance pitch, 1.0 is normal (default $SPEECH_PITCH)")
	f.StringVar(&opts.logFile, "log-file", "chat.log", "file that receives the client log")
	f.BoolVar(&opts.debug, "debug", false, "log at debug level")
	return cmd
}

// applyFlags overrides the environment with the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.ClientConfig, opts options) {
	f := cmd.Flags()
	if f.Changed("endpoint") {
		cfg.Endpoint = opts.endpoint
	}
	if f.Changed("speech") {
		cfg.SpeechEnabled = opts.speech
	}
	if f.Changed("speech-command") {
		cfg.SpeechCommand = opts.speechCommand
	}
	if f.Changed("lang") {
		cfg.SpeechLang = opts.lang
	}
	if f.Changed("rate") && opts.rate > 0 {
		cfg.SpeechRate = opts.rate
	}
	if f.Changed("pitch") && opts.pitch > 0 {
		cfg.SpeechPitch = opts.pitch
	}
}

func run(ctx context.Context, cfg config.ClientConfig, opts options) error {
	logFile, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	defer logFile.Close()

	level := zerolog.InfoLevel
	if opts.debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(logFile).Level(level).With().Timestamp().Logger()

	httpClient := &http.Client{Timeout: 2 * time.Minute}
	api := client.New(cfg.Endpoint, httpClient)
	log.Info().Str("endpoint", api.Endpoint()).Msg("chat client starting")

	bot := greeting(ctx, api)
	speaker := newSpeaker(cfg)

	view := tui.NewProgramView()
	ctrl := chatui.New(view, api, render.New(), speaker, chatui.Options{
		Voice: chatui.Voice{
			Lang:  cfg.SpeechLang,
			Rate:  cfg.SpeechRate,
			Pitch: cfg.SpeechPitch,
		},
		Logger: log.Logger,
	})

	p := tea.NewProgram(tui.New(ctx, ctrl, bot.Name, bot.OpeningLine), tea.WithAltScreen(), tea.WithContext(ctx))
	view.Attach(p)

	_, err = p.Run()
	ctrl.StopSpeech()
	if cs, ok := speaker.(*speech.CommandSpeaker); ok {
		cs.Wait()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run chat screen")
	}
	log.Info().Msg("chat client stopped")
	return nil
}

// greeting asks the server who is answering. The built-in persona is used when
// the server cannot be reached, so the screen still opens with a greeting.
func greeting(ctx context.Context, api *client.Client) persona.Persona {
	fallback := persona.Seed()[0]

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := api.Persona(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("persona unavailable, using built-in greeting")
		return fallback
	}
	if p.Name == "" {
		p.Name = fallback.Name
	}
	if p.OpeningLine == "" {
		p.OpeningLine = fallback.OpeningLine
	}
	return p
}

func newSpeaker(cfg config.ClientConfig) speech.Speaker {
	if !cfg.SpeechEnabled {
		log.Info().Msg("speech disabled")
		return &speech.Silent{}
	}
	cs := speech.NewCommandSpeaker(cfg.SpeechCommand, log.Logger)
	if !cs.Available() {
		log.Warn().Str("command", cfg.SpeechCommand).Msg("speech command not found, replies will not be read aloud")
		return &speech.Silent{}
	}
	return cs
}
