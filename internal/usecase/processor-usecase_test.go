package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fathomhq/fathom/internal/action"
	"github.com/fathomhq/fathom/internal/metrics"
	"github.com/fathomhq/fathom/internal/model"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedModel replays a fixed sequence of replies and records every
// transcript it was called with.
type scriptedModel struct {
	replies     []model.Reply
	err         error
	calls       int
	transcripts [][]model.Message
}

func (m *scriptedModel) Complete(
	_ context.Context, _ string, transcript []model.Message, _ []action.Schema,
) (model.Reply, error) {
	m.transcripts = append(m.transcripts, append([]model.Message(nil), transcript...))
	if m.err != nil {
		return model.Reply{}, m.err
	}
	reply := m.replies[m.calls]
	m.calls++
	return reply, nil
}

type stubMacroLookup struct {
	macros []model.Macro
	err    error
}

func (s *stubMacroLookup) GetUserMacros(context.Context, uuid.UUID) ([]model.Macro, error) {
	return s.macros, s.err
}

type stubComposer struct {
	prompt string
	err    error
	macros []model.Macro
}

func (s *stubComposer) GetSystemPrompt(macros []model.Macro) (string, error) {
	s.macros = macros
	return s.prompt, s.err
}

type fixedAction struct {
	name   string
	result string
	err    error
	inputs []map[string]any
}

func (f *fixedAction) Schema() action.Schema {
	return action.Schema{
		Name: f.name,
		InputSchema: action.InputSchema{
			Type:       "object",
			Properties: map[string]action.Property{},
			Required:   []string{},
		},
	}
}

func (f *fixedAction) Execute(_ context.Context, input map[string]any) (string, error) {
	f.inputs = append(f.inputs, input)
	return f.result, f.err
}

func newTestProcessor(t *testing.T, m ModelClient, actions ...action.Action) *Processor {
	t.Helper()
	registry, err := action.NewRegistry(actions...)
	require.NoError(t, err)
	return NewProcessor(
		ProcessorDeps{
			Model:    m,
			Macros:   &stubMacroLookup{},
			Prompts:  &stubComposer{prompt: "system"},
			Registry: registry,
			Metrics:  metrics.New(prometheus.NewRegistry()),
			Logger:   zap.NewNop(),
		},
	)
}

func TestProcessor_PlainTextAnswer(t *testing.T) {
	m := &scriptedModel{
		replies: []model.Reply{
			{Text: "Good morning."},
		},
	}
	p := newTestProcessor(t, m)

	answer, actionsPerformed, err := p.HandleMessage(context.Background(), uuid.New(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Good morning.", answer)
	assert.Empty(t, actionsPerformed)
	assert.Equal(t, 1, m.calls)
}

func TestProcessor_StripsAnalysisTags(t *testing.T) {
	m := &scriptedModel{
		replies: []model.Reply{
			{Text: "<input_analysis>the user wants the time</input_analysis>It is noon."},
		},
	}
	p := newTestProcessor(t, m)

	answer, _, err := p.HandleMessage(context.Background(), uuid.New(), "what time is it")
	require.NoError(t, err)
	assert.Equal(t, "It is noon.", answer)
}

func TestProcessor_SingleToolRound(t *testing.T) {
	m := &scriptedModel{
		replies: []model.Reply{
			{
				Text: "Let me check.",
				ToolUse: &model.ToolUse{
					ID:    "call_1",
					Name:  "get_time",
					Input: map[string]any{},
				},
			},
			{Text: "It is 14:23:05."},
		},
	}
	clock := &fixedAction{name: "get_time", result: "14:23:05"}
	p := newTestProcessor(t, m, clock)

	answer, actionsPerformed, err := p.HandleMessage(context.Background(), uuid.New(), "what time is it")
	require.NoError(t, err)
	assert.Equal(t, "It is 14:23:05.", answer)
	assert.Equal(t, []string{"get_time"}, actionsPerformed)
	require.Len(t, clock.inputs, 1)

	// The second model call must see the original message plus the
	// assistant's tool request and its result, in that order.
	require.Len(t, m.transcripts, 2)
	second := m.transcripts[1]
	require.Len(t, second, 3)
	assert.Equal(t, model.MessageRoleUser, second[0].Role)
	assert.Equal(t, model.MessageRoleAssistant, second[1].Role)
	require.NotNil(t, second[1].ToolUse)
	assert.Equal(t, "call_1", second[1].ToolUse.ID)
	assert.Equal(t, model.MessageRoleToolResult, second[2].Role)
	require.NotNil(t, second[2].ToolResult)
	assert.Equal(t, "call_1", second[2].ToolResult.ToolUseID)
	assert.Equal(t, "14:23:05", second[2].ToolResult.Content)
}

func TestProcessor_MultipleToolRounds(t *testing.T) {
	m := &scriptedModel{
		replies: []model.Reply{
			{ToolUse: &model.ToolUse{ID: "call_1", Name: "get_date", Input: map[string]any{}}},
			{ToolUse: &model.ToolUse{ID: "call_2", Name: "get_time", Input: map[string]any{}}},
			{Text: "Friday, around noon."},
		},
	}
	p := newTestProcessor(
		t, m,
		&fixedAction{name: "get_date", result: "Friday, March 14, 2025"},
		&fixedAction{name: "get_time", result: "12:01:00"},
	)

	answer, actionsPerformed, err := p.HandleMessage(context.Background(), uuid.New(), "when is it")
	require.NoError(t, err)
	assert.Equal(t, "Friday, around noon.", answer)
	assert.Equal(t, []string{"get_date", "get_time"}, actionsPerformed)
	assert.Equal(t, 3, m.calls)
}

func TestProcessor_FailedActionContinuesConversation(t *testing.T) {
	m := &scriptedModel{
		replies: []model.Reply{
			{ToolUse: &model.ToolUse{ID: "call_1", Name: "get_weather", Input: map[string]any{}}},
			{Text: "I could not fetch the weather."},
		},
	}
	broken := &fixedAction{name: "get_weather", err: errors.New("upstream down")}
	p := newTestProcessor(t, m, broken)

	answer, actionsPerformed, err := p.HandleMessage(context.Background(), uuid.New(), "weather?")
	require.NoError(t, err)
	assert.Equal(t, "I could not fetch the weather.", answer)
	assert.Equal(t, []string{"get_weather"}, actionsPerformed)

	// The model sees the failure as a structured error payload.
	second := m.transcripts[1]
	require.Len(t, second, 3)
	assert.JSONEq(
		t, `{"error": "failed to execute action get_weather: upstream down"}`,
		second[2].ToolResult.Content,
	)
}

func TestProcessor_UnknownActionContinuesConversation(t *testing.T) {
	m := &scriptedModel{
		replies: []model.Reply{
			{ToolUse: &model.ToolUse{ID: "call_1", Name: "get_nonsense", Input: map[string]any{}}},
			{Text: "That tool does not exist."},
		},
	}
	p := newTestProcessor(t, m)

	answer, actionsPerformed, err := p.HandleMessage(context.Background(), uuid.New(), "do the thing")
	require.NoError(t, err)
	assert.Equal(t, "That tool does not exist.", answer)
	assert.Equal(t, []string{"get_nonsense"}, actionsPerformed)
	assert.JSONEq(
		t, `{"error": "action not found: get_nonsense"}`,
		m.transcripts[1][2].ToolResult.Content,
	)
}

func TestProcessor_ModelErrorIsFatal(t *testing.T) {
	m := &scriptedModel{err: errors.New("endpoint unreachable")}
	p := newTestProcessor(t, m)

	_, _, err := p.HandleMessage(context.Background(), uuid.New(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint unreachable")
}

func TestProcessor_SystemPromptErrorIsFatal(t *testing.T) {
	m := &scriptedModel{replies: []model.Reply{{Text: "never reached"}}}
	p := newTestProcessor(t, m)
	p.Prompts = &stubComposer{err: errors.New("template missing")}

	_, _, err := p.HandleMessage(context.Background(), uuid.New(), "hello")
	require.Error(t, err)
	assert.Zero(t, m.calls)
}

func TestProcessor_MacroLookupFailureProceedsWithoutMacros(t *testing.T) {
	m := &scriptedModel{replies: []model.Reply{{Text: "Hi."}}}
	p := newTestProcessor(t, m)
	composer := &stubComposer{prompt: "system"}
	p.Macros = &stubMacroLookup{err: errors.New("storage down")}
	p.Prompts = composer

	answer, _, err := p.HandleMessage(context.Background(), uuid.New(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi.", answer)
	assert.Nil(t, composer.macros)
}

func TestRemoveEnclosedTagData(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no tags", "plain answer", "plain answer"},
		{"single span", "<input_analysis>thinking</input_analysis>answer", "answer"},
		{"span mid-text", "before<input_analysis>x</input_analysis>after", "beforeafter"},
		{
			"multiple spans",
			"<input_analysis>a</input_analysis>one<input_analysis>b</input_analysis>two",
			"onetwo",
		},
		{"unmatched open", "answer<input_analysis>dangling", "answer<input_analysis>dangling"},
		{"unmatched close", "stray</input_analysis>answer", "stray</input_analysis>answer"},
		{
			"close before open",
			"</input_analysis>text<input_analysis>hidden</input_analysis>",
			"</input_analysis>text",
		},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, removeEnclosedTagData(tt.in, "input_analysis"))
			},
		)
	}
}
