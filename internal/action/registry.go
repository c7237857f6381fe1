package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrDuplicateAction = errors.New("action already registered")
	ErrUnknownAction   = errors.New("action not found")
)

// Registry holds the executable action set. It is assembled once at startup
// and read-only afterwards, so concurrent lookups need no locking.
type Registry struct {
	actions map[string]Action
	order   []string
}

func NewRegistry(actions ...Action) (*Registry, error) {
	r := &Registry{
		actions: make(map[string]Action),
	}
	for _, a := range actions {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(a Action) error {
	name := a.Schema().Name
	if name == "" {
		return fmt.Errorf("action has an empty name")
	}
	if _, ok := r.actions[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, name)
	}
	r.actions[name] = a
	r.order = append(r.order, name)
	return nil
}

// Schemas returns all action descriptors in registration order.
func (r *Registry) Schemas() []Schema {
	schemas := make([]Schema, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, r.actions[name].Schema())
	}
	return schemas
}

func (r *Registry) Execute(ctx context.Context, name string, input map[string]any) (string, error) {
	a, ok := r.actions[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	result, err := a.Execute(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to execute action %s: %w", name, err)
	}
	return result, nil
}

// Dispatch runs an action and contains every fault: unknown names and
// execution failures come back as an {"error": ...} payload in the result,
// so the caller always has a well-formed tool result to hand to the model.
// The error return mirrors what the payload reports and is informational
// only; the result is valid either way.
func (r *Registry) Dispatch(ctx context.Context, name string, input map[string]any) (string, error) {
	result, err := r.Execute(ctx, name, input)
	if err != nil {
		return ErrorPayload(err), err
	}
	return result, nil
}

// ErrorPayload renders an error as the structured tool-result content the
// model receives in place of an action's output.
func ErrorPayload(err error) string {
	payload, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return `{"error": "internal error"}`
	}
	return string(payload)
}
