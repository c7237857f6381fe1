package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fathomhq/fathom/internal/action"
	"github.com/fathomhq/fathom/internal/metrics"
	"github.com/fathomhq/fathom/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// analysisTag encloses model scratch-work that must never reach the user.
const analysisTag = "input_analysis"

type ModelClient interface {
	Complete(
		ctx context.Context,
		systemPrompt string,
		transcript []model.Message,
		tools []action.Schema,
	) (model.Reply, error)
}

type MacroLookup interface {
	GetUserMacros(ctx context.Context, userID uuid.UUID) ([]model.Macro, error)
}

type SystemPromptComposer interface {
	GetSystemPrompt(macros []model.Macro) (string, error)
}

type ProcessorDeps struct {
	Model    ModelClient
	Macros   MacroLookup
	Prompts  SystemPromptComposer
	Registry *action.Registry
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Processor drives one conversation turn end to end: it renders the
// macro-conditioned system prompt, calls the model, executes requested
// actions, and folds their results back into the transcript until the model
// answers in plain text. One instance serves all requests; every piece of
// conversation state is local to HandleMessage.
type Processor struct {
	ProcessorDeps
}

func NewProcessor(deps ProcessorDeps) *Processor {
	return &Processor{
		ProcessorDeps: deps,
	}
}

// HandleMessage answers a single user message and reports which actions were
// invoked along the way, in order, including failed ones. Action failures
// are surfaced to the model as error payloads and never abort the
// conversation; a failure to render the system prompt or to reach the model
// is fatal and propagates.
func (p *Processor) HandleMessage(
	ctx context.Context, userID uuid.UUID, userPrompt string,
) (string, []string, error) {
	transcript := []model.Message{
		{Role: model.MessageRoleUser, Text: userPrompt},
	}
	actionsPerformed := make([]string, 0)

	macros, err := p.Macros.GetUserMacros(ctx, userID)
	if err != nil {
		// Unknown users already come back as zero macros; anything else is
		// a lookup fault the conversation can proceed without.
		p.Logger.Warn(
			"macro lookup failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		macros = nil
	}
	systemPrompt, err := p.Prompts.GetSystemPrompt(macros)
	if err != nil {
		return "", actionsPerformed, fmt.Errorf("failed to render system prompt: %w", err)
	}

	for {
		p.Metrics.ModelCalls.Inc()
		reply, err := p.Model.Complete(ctx, systemPrompt, transcript, p.Registry.Schemas())
		if err != nil {
			return "", actionsPerformed, fmt.Errorf("model call failed: %w", err)
		}

		// No tool use: the text segment is the final answer.
		if reply.ToolUse == nil {
			return removeEnclosedTagData(reply.Text, analysisTag), actionsPerformed, nil
		}

		toolUse := reply.ToolUse
		actionsPerformed = append(actionsPerformed, toolUse.Name)

		result, execErr := p.Registry.Dispatch(ctx, toolUse.Name, toolUse.Input)
		status := "ok"
		if execErr != nil {
			status = "error"
			p.Logger.Warn(
				"action execution failed",
				zap.String("action", toolUse.Name),
				zap.Error(execErr),
			)
		}
		p.Metrics.ActionExecutions.WithLabelValues(toolUse.Name, status).Inc()

		// The assistant's request and its result are appended as a pair so
		// the next model call sees a matching tool_use/tool_result.
		transcript = append(
			transcript,
			model.Message{
				Role:    model.MessageRoleAssistant,
				Text:    reply.Text,
				ToolUse: toolUse,
			},
			model.Message{
				Role: model.MessageRoleToolResult,
				ToolResult: &model.ToolResult{
					ToolUseID: toolUse.ID,
					Content:   result,
				},
			},
		)
	}
}

// removeEnclosedTagData strips every <tag>...</tag> span from the text. An
// unmatched opening or closing tag stops the stripping and leaves the rest
// of the text untouched.
func removeEnclosedTagData(text, tag string) string {
	openTag := "<" + tag + ">"
	closeTag := "</" + tag + ">"
	for {
		start := strings.Index(text, openTag)
		if start < 0 {
			return text
		}
		offset := strings.Index(text[start:], closeTag)
		if offset < 0 {
			return text
		}
		end := start + offset + len(closeTag)
		text = text[:start] + text[end:]
	}
}
