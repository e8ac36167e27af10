package ai

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/civicdesk/tomas/internal/model/chat"
	"github.com/civicdesk/tomas/internal/model/persona"
)

// Generator produces the assistant's markdown reply to message given the
// earlier turns of the conversation.
type Generator interface {
	Reply(ctx context.Context, p *persona.Persona, history []chat.Message, message string) (string, error)
}

// Searcher looks up reference material for a query.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Service runs the prompt template → chat model chain.
type Service struct {
	chain        compose.Runnable[map[string]any, *schema.Message]
	searcher     Searcher
	historyLimit int
	logger       zerolog.Logger
}

// Options configures a Service.
type Options struct {
	// Searcher is optional; without it replies rely on the model alone.
	Searcher     Searcher
	HistoryLimit int
	Logger       zerolog.Logger
}

// NewService compiles the chat chain around chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel, opts Options) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "compile chat chain")
	}

	return &Service{
		chain:        runnable,
		searcher:     opts.Searcher,
		historyLimit: opts.HistoryLimit,
		logger:       opts.Logger.With().Str("component", "ai").Logger(),
	}, nil
}

// Reply generates the assistant answer for message.
func (s *Service) Reply(ctx context.Context, p *persona.Persona, history []chat.Message, message string) (string, error) {
	input := map[string]any{
		"system":  BuildSystemPrompt(p, s.reference(ctx, message)),
		"history": s.buildHistoryMessages(history),
		"query":   message,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", errors.Wrap(err, "run chat chain")
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", errors.New("model returned an empty reply")
	}

	s.logger.Info().Str("persona", p.ID).Int("length", len(content)).Msg("generated response")
	return content, nil
}

// reference runs the search tool. Failures are logged and yield no material.
func (s *Service) reference(ctx context.Context, query string) string {
	if s.searcher == nil {
		return ""
	}
	out, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("search unavailable, answering without reference material")
		return ""
	}
	return out
}

func (s *Service) buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 || s.historyLimit <= 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > s.historyLimit {
		startIdx = len(messages) - s.historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderBot:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
