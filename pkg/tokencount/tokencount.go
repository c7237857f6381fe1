// Package tokencount estimates the token footprint of a chat completion
// request. Estimates follow the OpenAI cookbook accounting: a fixed
// per-message overhead plus the encoded length of each field.
package tokencount

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

const (
	tokensPerMessage = 4
	tokensPerReply   = 3
)

func Count(messages []openai.ChatCompletionMessage, modelName string) (int, error) {
	enc, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		// Unknown model ids fall back to the common chat encoding.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, fmt.Errorf("failed to get token encoding: %w", err)
		}
	}

	total := tokensPerReply
	for _, message := range messages {
		total += tokensPerMessage
		total += len(enc.Encode(message.Role, nil, nil))
		total += len(enc.Encode(message.Content, nil, nil))
		for _, call := range message.ToolCalls {
			total += len(enc.Encode(call.Function.Name, nil, nil))
			total += len(enc.Encode(call.Function.Arguments, nil, nil))
		}
	}
	return total, nil
}
