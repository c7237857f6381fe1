package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/fathomhq/fathom/internal/model"
	"github.com/google/uuid"
)

type MacroStorage interface {
	CreateMacro(ctx context.Context, macro model.Macro) (model.Macro, error)
	GetMacro(ctx context.Context, macroID uuid.UUID) (model.Macro, error)
	UpdateMacro(ctx context.Context, macro model.Macro) error
	DeleteMacro(ctx context.Context, macroID uuid.UUID) error
	ListUserMacros(ctx context.Context, userID uuid.UUID) ([]model.Macro, error)
	DeleteUserMacros(ctx context.Context, userID uuid.UUID) error
}

// MacroParams carries the caller-supplied fields of a macro. Required
// actions reference catalog entries by id; unknown ids are skipped.
type MacroParams struct {
	Name              string
	Prompt            string
	AllowOtherActions bool
	RequiredActionIDs []uuid.UUID
}

type MacroUsecaseDeps struct {
	MacroStorage  MacroStorage
	ActionStorage ActionStorage
	UserStorage   UserStorage
}

type MacroUsecase struct {
	MacroUsecaseDeps
}

func NewMacroUsecase(deps MacroUsecaseDeps) *MacroUsecase {
	return &MacroUsecase{
		MacroUsecaseDeps: deps,
	}
}

func (m *MacroUsecase) CreateMacro(ctx context.Context, userID uuid.UUID, params MacroParams) (model.Macro, error) {
	if _, err := m.UserStorage.GetUser(ctx, userID); err != nil {
		return model.Macro{}, err
	}
	actionIDs, err := m.knownActionIDs(ctx, params.RequiredActionIDs)
	if err != nil {
		return model.Macro{}, err
	}
	return m.MacroStorage.CreateMacro(
		ctx, model.Macro{
			UserID:            userID,
			Name:              params.Name,
			Prompt:            params.Prompt,
			AllowOtherActions: params.AllowOtherActions,
			RequiredActionIDs: actionIDs,
		},
	)
}

func (m *MacroUsecase) UpdateMacro(
	ctx context.Context, userID, macroID uuid.UUID, params MacroParams,
) (model.Macro, error) {
	macro, err := m.MacroStorage.GetMacro(ctx, macroID)
	if err != nil {
		return model.Macro{}, err
	}
	if macro.UserID != userID {
		return model.Macro{}, model.ErrNotMacroOwner
	}
	actionIDs, err := m.knownActionIDs(ctx, params.RequiredActionIDs)
	if err != nil {
		return model.Macro{}, err
	}
	macro.Name = params.Name
	macro.Prompt = params.Prompt
	macro.AllowOtherActions = params.AllowOtherActions
	macro.RequiredActionIDs = actionIDs
	if err = m.MacroStorage.UpdateMacro(ctx, macro); err != nil {
		return model.Macro{}, err
	}
	return macro, nil
}

func (m *MacroUsecase) DeleteMacro(ctx context.Context, userID, macroID uuid.UUID) error {
	macro, err := m.MacroStorage.GetMacro(ctx, macroID)
	if err != nil {
		return err
	}
	if macro.UserID != userID {
		return model.ErrNotMacroOwner
	}
	return m.MacroStorage.DeleteMacro(ctx, macroID)
}

// ListUserMacros returns the user's macros with required action names
// resolved. The user must exist.
func (m *MacroUsecase) ListUserMacros(ctx context.Context, userID uuid.UUID) ([]model.Macro, error) {
	if _, err := m.UserStorage.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	macros, err := m.MacroStorage.ListUserMacros(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user macros: %w", err)
	}
	return m.resolveActionNames(ctx, macros)
}

// GetUserMacros is the lookup the conversation pipeline uses. It fails soft:
// an absent user, or any storage fault, comes back as zero macros so the
// conversation proceeds unbiased instead of aborting.
func (m *MacroUsecase) GetUserMacros(ctx context.Context, userID uuid.UUID) ([]model.Macro, error) {
	macros, err := m.ListUserMacros(ctx, userID)
	if err != nil {
		return nil, nil
	}
	return macros, nil
}

func (m *MacroUsecase) knownActionIDs(ctx context.Context, actionIDs []uuid.UUID) ([]uuid.UUID, error) {
	known := make([]uuid.UUID, 0, len(actionIDs))
	for _, actionID := range actionIDs {
		if _, err := m.ActionStorage.GetAction(ctx, actionID); err != nil {
			if errors.Is(err, model.ErrActionDoesNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to check action %s: %w", actionID, err)
		}
		known = append(known, actionID)
	}
	return known, nil
}

func (m *MacroUsecase) resolveActionNames(ctx context.Context, macros []model.Macro) ([]model.Macro, error) {
	resolved := make([]model.Macro, 0, len(macros))
	for _, macro := range macros {
		names := make([]string, 0, len(macro.RequiredActionIDs))
		for _, actionID := range macro.RequiredActionIDs {
			a, err := m.ActionStorage.GetAction(ctx, actionID)
			if err != nil {
				if errors.Is(err, model.ErrActionDoesNotExist) {
					continue
				}
				return nil, fmt.Errorf("failed to resolve action %s: %w", actionID, err)
			}
			names = append(names, a.Name)
		}
		macro.RequiredActions = names
		resolved = append(resolved, macro)
	}
	return resolved, nil
}
