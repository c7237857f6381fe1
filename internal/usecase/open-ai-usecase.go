package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fathomhq/fathom/config"
	"github.com/fathomhq/fathom/internal/action"
	"github.com/fathomhq/fathom/internal/model"
	"github.com/fathomhq/fathom/pkg/tokencount"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	OpenAIRoleSystem    = "system"
	OpenAIRoleUser      = "user"
	OpenAIRoleAssistant = "assistant"
	OpenAIRoleTool      = "tool"
)

// OpenAIUsecase is the model endpoint adapter: it converts the conversation
// transcript and the action schemas to the chat-completions wire shape and
// maps the response back to at most one text segment plus one tool-use
// segment.
type OpenAIUsecase struct {
	cfg    config.OpenAI
	client *openai.Client
	logger *zap.Logger
}

func NewOpenAIUsecase(cfg config.OpenAI, logger *zap.Logger) *OpenAIUsecase {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}
	return &OpenAIUsecase{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}
}

func (o *OpenAIUsecase) Complete(
	ctx context.Context,
	systemPrompt string,
	transcript []model.Message,
	tools []action.Schema,
) (model.Reply, error) {
	messages, err := toChatMessages(systemPrompt, transcript)
	if err != nil {
		return model.Reply{}, err
	}
	o.logPromptSize(messages)

	req := openai.ChatCompletionRequest{
		Model:       o.cfg.OpenAIModel,
		Temperature: o.cfg.ModelTemperature,
		TopP:        1,
		N:           1,
		MaxTokens:   o.cfg.MaxTokens,
		Messages:    messages,
		Tools:       toChatTools(tools),
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return model.Reply{}, fmt.Errorf("model request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Reply{}, errors.New("model returned no choices")
	}
	return fromChatMessage(resp.Choices[0].Message)
}

func (o *OpenAIUsecase) logPromptSize(messages []openai.ChatCompletionMessage) {
	tokens, err := tokencount.Count(messages, o.cfg.OpenAIModel)
	if err != nil {
		o.logger.Debug("failed to count prompt tokens", zap.Error(err))
		return
	}
	o.logger.Debug(
		"model request",
		zap.Int("messages", len(messages)),
		zap.Int("prompt_tokens", tokens),
	)
	if o.cfg.TokenBudget > 0 && tokens > o.cfg.TokenBudget {
		o.logger.Warn(
			"prompt tokens exceed budget",
			zap.Int("prompt_tokens", tokens),
			zap.Int("budget", o.cfg.TokenBudget),
		)
	}
}

func toChatMessages(systemPrompt string, transcript []model.Message) ([]openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(transcript)+1)
	messages = append(
		messages, openai.ChatCompletionMessage{
			Role:    OpenAIRoleSystem,
			Content: systemPrompt,
		},
	)
	for _, message := range transcript {
		chatMessage, err := toChatMessage(message)
		if err != nil {
			return nil, err
		}
		messages = append(messages, chatMessage)
	}
	return messages, nil
}

func toChatMessage(message model.Message) (openai.ChatCompletionMessage, error) {
	switch message.Role {
	case model.MessageRoleUser:
		return openai.ChatCompletionMessage{
			Role:    OpenAIRoleUser,
			Content: message.Text,
		}, nil
	case model.MessageRoleAssistant:
		chatMessage := openai.ChatCompletionMessage{
			Role:    OpenAIRoleAssistant,
			Content: message.Text,
		}
		if message.ToolUse != nil {
			inputJSON, err := json.Marshal(message.ToolUse.Input)
			if err != nil {
				return openai.ChatCompletionMessage{}, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			chatMessage.ToolCalls = []openai.ToolCall{
				{
					ID:   message.ToolUse.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      message.ToolUse.Name,
						Arguments: string(inputJSON),
					},
				},
			}
		}
		return chatMessage, nil
	case model.MessageRoleToolResult:
		if message.ToolResult == nil {
			return openai.ChatCompletionMessage{}, errors.New("tool result message without tool result")
		}
		return openai.ChatCompletionMessage{
			Role:       OpenAIRoleTool,
			Content:    message.ToolResult.Content,
			ToolCallID: message.ToolResult.ToolUseID,
		}, nil
	default:
		return openai.ChatCompletionMessage{}, fmt.Errorf("unknown message role %q", message.Role)
	}
}

func toChatTools(schemas []action.Schema) []openai.Tool {
	tools := make([]openai.Tool, 0, len(schemas))
	for _, schema := range schemas {
		tools = append(
			tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        schema.Name,
					Description: schema.Description,
					Parameters:  schema.InputSchema,
				},
			},
		)
	}
	return tools
}

func fromChatMessage(message openai.ChatCompletionMessage) (model.Reply, error) {
	reply := model.Reply{
		Text: message.Content,
	}
	if len(message.ToolCalls) == 0 {
		return reply, nil
	}
	call := message.ToolCalls[0]
	input := make(map[string]any)
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
			return model.Reply{}, fmt.Errorf("failed to decode tool call arguments: %w", err)
		}
	}
	reply.ToolUse = &model.ToolUse{
		ID:    call.ID,
		Name:  call.Function.Name,
		Input: input,
	}
	return reply, nil
}
