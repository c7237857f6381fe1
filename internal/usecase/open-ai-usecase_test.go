package usecase

import (
	"testing"

	"github.com/fathomhq/fathom/internal/action"
	"github.com/fathomhq/fathom/internal/model"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToChatMessages(t *testing.T) {
	transcript := []model.Message{
		{Role: model.MessageRoleUser, Text: "what time is it"},
		{
			Role: model.MessageRoleAssistant,
			Text: "Let me check.",
			ToolUse: &model.ToolUse{
				ID:    "call_1",
				Name:  "get_time",
				Input: map[string]any{},
			},
		},
		{
			Role: model.MessageRoleToolResult,
			ToolResult: &model.ToolResult{
				ToolUseID: "call_1",
				Content:   "14:23:05",
			},
		},
	}

	messages, err := toChatMessages("be helpful", transcript)
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, OpenAIRoleSystem, messages[0].Role)
	assert.Equal(t, "be helpful", messages[0].Content)

	assert.Equal(t, OpenAIRoleUser, messages[1].Role)
	assert.Equal(t, "what time is it", messages[1].Content)

	assert.Equal(t, OpenAIRoleAssistant, messages[2].Role)
	require.Len(t, messages[2].ToolCalls, 1)
	assert.Equal(t, "call_1", messages[2].ToolCalls[0].ID)
	assert.Equal(t, "get_time", messages[2].ToolCalls[0].Function.Name)
	assert.JSONEq(t, "{}", messages[2].ToolCalls[0].Function.Arguments)

	assert.Equal(t, OpenAIRoleTool, messages[3].Role)
	assert.Equal(t, "call_1", messages[3].ToolCallID)
	assert.Equal(t, "14:23:05", messages[3].Content)
}

func TestToChatMessage_UnknownRole(t *testing.T) {
	_, err := toChatMessage(model.Message{Role: "bogus"})
	require.Error(t, err)
}

func TestToChatMessage_ToolResultWithoutPayload(t *testing.T) {
	_, err := toChatMessage(model.Message{Role: model.MessageRoleToolResult})
	require.Error(t, err)
}

func TestToChatTools(t *testing.T) {
	schemas := []action.Schema{
		{
			Name:        "get_weather",
			Description: "Fetches the weather.",
			InputSchema: action.InputSchema{
				Type: "object",
				Properties: map[string]action.Property{
					"location": {Type: "string"},
				},
				Required: []string{"location"},
			},
		},
	}

	tools := toChatTools(schemas)
	require.Len(t, tools, 1)
	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	assert.Equal(t, "get_weather", tools[0].Function.Name)
	assert.Equal(t, "Fetches the weather.", tools[0].Function.Description)
	assert.Equal(t, schemas[0].InputSchema, tools[0].Function.Parameters)
}

func TestFromChatMessage_Text(t *testing.T) {
	reply, err := fromChatMessage(
		openai.ChatCompletionMessage{
			Role:    OpenAIRoleAssistant,
			Content: "Good morning.",
		},
	)
	require.NoError(t, err)
	assert.Equal(t, "Good morning.", reply.Text)
	assert.Nil(t, reply.ToolUse)
}

func TestFromChatMessage_ToolCall(t *testing.T) {
	reply, err := fromChatMessage(
		openai.ChatCompletionMessage{
			Role: OpenAIRoleAssistant,
			ToolCalls: []openai.ToolCall{
				{
					ID:   "call_1",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      "get_weather",
						Arguments: `{"location": "Boise"}`,
					},
				},
			},
		},
	)
	require.NoError(t, err)
	require.NotNil(t, reply.ToolUse)
	assert.Equal(t, "call_1", reply.ToolUse.ID)
	assert.Equal(t, "get_weather", reply.ToolUse.Name)
	assert.Equal(t, map[string]any{"location": "Boise"}, reply.ToolUse.Input)
}

func TestFromChatMessage_BadArguments(t *testing.T) {
	_, err := fromChatMessage(
		openai.ChatCompletionMessage{
			Role: OpenAIRoleAssistant,
			ToolCalls: []openai.ToolCall{
				{
					ID:       "call_1",
					Function: openai.FunctionCall{Name: "get_weather", Arguments: "{not json"},
				},
			},
		},
	)
	require.Error(t, err)
}
