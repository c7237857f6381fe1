package action

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Property describes one named parameter of an action input schema.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// InputSchema is the JSON-schema subset presented to the model.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Schema is the full descriptor of an action: a stable name, a
// natural-language description the model uses to decide when to invoke it,
// and the typed input description.
type Schema struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// Action is a named capability the model may invoke.
type Action interface {
	Schema() Schema
	Execute(ctx context.Context, input map[string]any) (string, error)
}

// decodeInput maps the loosely-typed input the model produced onto a typed
// request struct. Weak typing tolerates e.g. numbers arriving as float64.
func decodeInput(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(
		&mapstructure.DecoderConfig{
			Result:           out,
			TagName:          "json",
			WeaklyTypedInput: true,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to build input decoder: %w", err)
	}
	if err = dec.Decode(input); err != nil {
		return fmt.Errorf("failed to decode action input: %w", err)
	}
	return nil
}
