package services

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ChatTurn is one prior exchange handed to the model, oldest first.
type ChatTurn struct {
	Role    string
	Content string
}

// CompletionService produces an assistant reply for a system prompt and a
// conversation so far. Implementations return ("", nil) when the provider
// answered but produced no usable text; callers substitute their own
// fallback copy.
type CompletionService interface {
	Complete(ctx context.Context, system string, turns []ChatTurn, maxTokens int64) (string, error)
}

type OpenAICompletionService struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAICompletionService(apiKey, model string) *OpenAICompletionService {
	chatModel := openai.ChatModel(model)
	if model == "" {
		chatModel = openai.ChatModelGPT4oMini
	}

	return &OpenAICompletionService{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  chatModel,
	}
}

func (s *OpenAICompletionService) Complete(
	ctx context.Context,
	system string,
	turns []ChatTurn,
	maxTokens int64,
) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	messages = append(messages, openai.SystemMessage(system))
	for _, turn := range turns {
		if turn.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(turn.Content))
		} else {
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     s.model,
		Messages:  messages,
		MaxTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
