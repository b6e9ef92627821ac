package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/advice-chat/internal/analysis/topic"
	"github.com/zhouzirui/advice-chat/internal/config"
)

// Service answers questions through an eino chain backed by a chat model.
type Service struct {
	prompts *PromptManager
	chain   compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the Ark chat model from cfg and compiles the chain.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel)
}

// NewServiceWithModel compiles the advice chain around chatModel.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile advice chain: %w", err)
	}

	return &Service{
		prompts: NewPromptManager(),
		chain:   runnable,
	}, nil
}

// Advise runs the chain for one question.
func (s *Service) Advise(ctx context.Context, message string) (string, error) {
	decision := topic.Analyze(message)

	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": s.prompts.BuildSystemPrompt(decision),
		"query":  message,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run advice chain: %w", err)
	}

	advice := strings.TrimSpace(response.Content)
	if advice == "" {
		return "", ErrEmptyAdvice
	}

	log.Debug().Str("topic", string(decision.Topic)).Int("length", len(advice)).Msg("generated advice")
	return advice, nil
}
