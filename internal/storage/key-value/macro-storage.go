package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fathomhq/fathom/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type macroInternal struct {
	MacroID           string   `json:"macro_id"`
	UserID            string   `json:"user_id"`
	Name              string   `json:"name"`
	Prompt            string   `json:"prompt"`
	AllowOtherActions bool     `json:"allow_other_actions"`
	RequiredActionIDs []string `json:"required_action_ids"`
}

type userMacrosIDs struct {
	Macros []string `json:"macros"`
}

type MacroStorage struct {
	rdb *redis.Client
}

func NewMacroStorage(rdb *redis.Client) *MacroStorage {
	return &MacroStorage{
		rdb: rdb,
	}
}

func (m *MacroStorage) CreateMacro(ctx context.Context, macro model.Macro) (model.Macro, error) {
	macro.MacroID = uuid.New()

	if err := m.setMacroInt(ctx, toMacroInternal(macro)); err != nil {
		return model.Macro{}, fmt.Errorf("failed to set macro internal %s: %w", macro.MacroID, err)
	}

	userMacros, err := m.getUserMacrosIDs(ctx, macro.UserID)
	if err != nil {
		return model.Macro{}, fmt.Errorf("failed to get user macros ids: %w", err)
	}
	userMacros.Macros = append(userMacros.Macros, macro.MacroID.String())
	if err = m.setUserMacrosIDs(ctx, macro.UserID, userMacros); err != nil {
		return model.Macro{}, fmt.Errorf("failed to set user macros ids: %w", err)
	}
	return macro, nil
}

func (m *MacroStorage) GetMacro(ctx context.Context, macroID uuid.UUID) (model.Macro, error) {
	macroInt, err := m.getMacroInt(ctx, macroID)
	if err != nil {
		return model.Macro{}, err
	}
	return fromMacroInternal(macroInt)
}

func (m *MacroStorage) UpdateMacro(ctx context.Context, macro model.Macro) error {
	if _, err := m.getMacroInt(ctx, macro.MacroID); err != nil {
		return err
	}
	if err := m.setMacroInt(ctx, toMacroInternal(macro)); err != nil {
		return fmt.Errorf("failed to set macro internal %s: %w", macro.MacroID, err)
	}
	return nil
}

func (m *MacroStorage) DeleteMacro(ctx context.Context, macroID uuid.UUID) error {
	macro, err := m.GetMacro(ctx, macroID)
	if err != nil {
		return err
	}
	if err = m.rdb.Del(ctx, getMacroIDKey(macroID)).Err(); err != nil {
		return fmt.Errorf("failed to delete macro %s: %w", macroID, err)
	}

	userMacros, err := m.getUserMacrosIDs(ctx, macro.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user macros ids: %w", err)
	}
	kept := make([]string, 0, len(userMacros.Macros))
	for _, id := range userMacros.Macros {
		if id != macroID.String() {
			kept = append(kept, id)
		}
	}
	userMacros.Macros = kept
	if err = m.setUserMacrosIDs(ctx, macro.UserID, userMacros); err != nil {
		return fmt.Errorf("failed to set user macros ids: %w", err)
	}
	return nil
}

func (m *MacroStorage) ListUserMacros(ctx context.Context, userID uuid.UUID) ([]model.Macro, error) {
	userMacros, err := m.getUserMacrosIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user macros ids: %w", err)
	}
	macros := make([]model.Macro, 0, len(userMacros.Macros))
	for _, macroIDStr := range userMacros.Macros {
		macroID, err := uuid.Parse(macroIDStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse macroID %s: %w", macroIDStr, err)
		}
		macro, err := m.GetMacro(ctx, macroID)
		if err != nil {
			return nil, fmt.Errorf("failed to get macro %s: %w", macroID, err)
		}
		macros = append(macros, macro)
	}
	return macros, nil
}

// DeleteUserMacros removes every macro owned by the user. Used by the user
// deletion cascade.
func (m *MacroStorage) DeleteUserMacros(ctx context.Context, userID uuid.UUID) error {
	userMacros, err := m.getUserMacrosIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user macros ids: %w", err)
	}
	for _, macroIDStr := range userMacros.Macros {
		if err = m.rdb.Del(ctx, fmt.Sprintf("macro_%v", macroIDStr)).Err(); err != nil {
			return fmt.Errorf("failed to delete macro %s: %w", macroIDStr, err)
		}
	}
	if err = m.rdb.Del(ctx, getUserMacrosKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete user macros ids %s: %w", userID, err)
	}
	return nil
}

func (m *MacroStorage) getMacroInt(ctx context.Context, macroID uuid.UUID) (macroInternal, error) {
	macroRaw, err := m.rdb.Get(ctx, getMacroIDKey(macroID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return macroInternal{}, model.ErrMacroDoesNotExist
		}
		return macroInternal{}, fmt.Errorf("failed to get macro %s: %w", macroID, err)
	}
	var macroInt macroInternal
	if err = json.Unmarshal([]byte(macroRaw), &macroInt); err != nil {
		return macroInternal{}, fmt.Errorf("failed to unmarshal macro %s: %w", macroID, err)
	}
	return macroInt, nil
}

func (m *MacroStorage) setMacroInt(ctx context.Context, macroInt macroInternal) error {
	macroJSON, err := json.Marshal(macroInt)
	if err != nil {
		return fmt.Errorf("failed to marshal internal macro: %w", err)
	}
	return m.rdb.Set(ctx, fmt.Sprintf("macro_%v", macroInt.MacroID), macroJSON, 0).Err()
}

func (m *MacroStorage) getUserMacrosIDs(ctx context.Context, userID uuid.UUID) (userMacrosIDs, error) {
	raw, err := m.rdb.Get(ctx, getUserMacrosKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return userMacrosIDs{Macros: make([]string, 0)}, nil
		}
		return userMacrosIDs{}, fmt.Errorf("failed to get user macros ids %s: %w", userID, err)
	}
	var ids userMacrosIDs
	if err = json.Unmarshal([]byte(raw), &ids); err != nil {
		return userMacrosIDs{}, fmt.Errorf("failed to unmarshal user macros ids %s: %w", userID, err)
	}
	return ids, nil
}

func (m *MacroStorage) setUserMacrosIDs(ctx context.Context, userID uuid.UUID, ids userMacrosIDs) error {
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal user macros ids: %w", err)
	}
	return m.rdb.Set(ctx, getUserMacrosKey(userID), idsJSON, 0).Err()
}

func toMacroInternal(macro model.Macro) macroInternal {
	actionIDs := make([]string, 0, len(macro.RequiredActionIDs))
	for _, id := range macro.RequiredActionIDs {
		actionIDs = append(actionIDs, id.String())
	}
	return macroInternal{
		MacroID:           macro.MacroID.String(),
		UserID:            macro.UserID.String(),
		Name:              macro.Name,
		Prompt:            macro.Prompt,
		AllowOtherActions: macro.AllowOtherActions,
		RequiredActionIDs: actionIDs,
	}
}

func fromMacroInternal(macroInt macroInternal) (model.Macro, error) {
	macroID, err := uuid.Parse(macroInt.MacroID)
	if err != nil {
		return model.Macro{}, fmt.Errorf("failed to parse macroID %s: %w", macroInt.MacroID, err)
	}
	userID, err := uuid.Parse(macroInt.UserID)
	if err != nil {
		return model.Macro{}, fmt.Errorf("failed to parse userID %s: %w", macroInt.UserID, err)
	}
	actionIDs := make([]uuid.UUID, 0, len(macroInt.RequiredActionIDs))
	for _, idStr := range macroInt.RequiredActionIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return model.Macro{}, fmt.Errorf("failed to parse actionID %s: %w", idStr, err)
		}
		actionIDs = append(actionIDs, id)
	}
	return model.Macro{
		MacroID:           macroID,
		UserID:            userID,
		Name:              macroInt.Name,
		Prompt:            macroInt.Prompt,
		AllowOtherActions: macroInt.AllowOtherActions,
		RequiredActionIDs: actionIDs,
	}, nil
}

func getMacroIDKey(id uuid.UUID) string {
	return fmt.Sprintf("macro_%v", id.String())
}

func getUserMacrosKey(id uuid.UUID) string {
	return fmt.Sprintf("user_macros_%v", id.String())
}
