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

type actionInternal struct {
	ActionID    string `json:"action_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type actionsIndex struct {
	Actions []string `json:"actions"`
}

// ActionStorage persists the action catalog: the named capabilities macros
// may reference. Names are unique, enforced through a name lookup key.
type ActionStorage struct {
	rdb *redis.Client
}

func NewActionStorage(rdb *redis.Client) *ActionStorage {
	return &ActionStorage{
		rdb: rdb,
	}
}

func (a *ActionStorage) CreateAction(ctx context.Context, name, description string) (model.Action, error) {
	_, err := a.rdb.Get(ctx, getActionNameKey(name)).Result()
	if err == nil {
		return model.Action{}, model.ErrActionNameTaken
	}
	if !errors.Is(err, redis.Nil) {
		return model.Action{}, fmt.Errorf("failed to check action name %s: %w", name, err)
	}

	actionID := uuid.New()
	actionInt := actionInternal{
		ActionID:    actionID.String(),
		Name:        name,
		Description: description,
	}
	if err = a.setActionInt(ctx, actionInt); err != nil {
		return model.Action{}, err
	}
	if err = a.rdb.Set(ctx, getActionNameKey(name), actionID.String(), 0).Err(); err != nil {
		return model.Action{}, fmt.Errorf("failed to save action name %s: %w", name, err)
	}

	index, err := a.getIndex(ctx)
	if err != nil {
		return model.Action{}, err
	}
	index.Actions = append(index.Actions, actionID.String())
	if err = a.setIndex(ctx, index); err != nil {
		return model.Action{}, err
	}

	return model.Action{ActionID: actionID, Name: name, Description: description}, nil
}

func (a *ActionStorage) GetAction(ctx context.Context, actionID uuid.UUID) (model.Action, error) {
	actionInt, err := a.getActionInt(ctx, actionID)
	if err != nil {
		return model.Action{}, err
	}
	return model.Action{ActionID: actionID, Name: actionInt.Name, Description: actionInt.Description}, nil
}

func (a *ActionStorage) GetActionByName(ctx context.Context, name string) (model.Action, error) {
	actionIDStr, err := a.rdb.Get(ctx, getActionNameKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Action{}, model.ErrActionDoesNotExist
		}
		return model.Action{}, fmt.Errorf("failed to get action name %s: %w", name, err)
	}
	actionID, err := uuid.Parse(actionIDStr)
	if err != nil {
		return model.Action{}, fmt.Errorf("failed to parse actionID %s: %w", actionIDStr, err)
	}
	return a.GetAction(ctx, actionID)
}

func (a *ActionStorage) UpdateAction(ctx context.Context, action model.Action) error {
	current, err := a.getActionInt(ctx, action.ActionID)
	if err != nil {
		return err
	}
	if current.Name != action.Name {
		if err = a.rdb.Del(ctx, getActionNameKey(current.Name)).Err(); err != nil {
			return fmt.Errorf("failed to delete action name %s: %w", current.Name, err)
		}
		if err = a.rdb.Set(ctx, getActionNameKey(action.Name), action.ActionID.String(), 0).Err(); err != nil {
			return fmt.Errorf("failed to save action name %s: %w", action.Name, err)
		}
	}
	return a.setActionInt(
		ctx, actionInternal{
			ActionID:    action.ActionID.String(),
			Name:        action.Name,
			Description: action.Description,
		},
	)
}

func (a *ActionStorage) DeleteAction(ctx context.Context, actionID uuid.UUID) error {
	actionInt, err := a.getActionInt(ctx, actionID)
	if err != nil {
		return err
	}
	if err = a.rdb.Del(ctx, getActionIDKey(actionID), getActionNameKey(actionInt.Name)).Err(); err != nil {
		return fmt.Errorf("failed to delete action %s: %w", actionID, err)
	}

	index, err := a.getIndex(ctx)
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(index.Actions))
	for _, id := range index.Actions {
		if id != actionID.String() {
			kept = append(kept, id)
		}
	}
	index.Actions = kept
	return a.setIndex(ctx, index)
}

func (a *ActionStorage) ListActions(ctx context.Context) ([]model.Action, error) {
	index, err := a.getIndex(ctx)
	if err != nil {
		return nil, err
	}
	actions := make([]model.Action, 0, len(index.Actions))
	for _, actionIDStr := range index.Actions {
		actionID, err := uuid.Parse(actionIDStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse actionID %s: %w", actionIDStr, err)
		}
		action, err := a.GetAction(ctx, actionID)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func (a *ActionStorage) getActionInt(ctx context.Context, actionID uuid.UUID) (actionInternal, error) {
	raw, err := a.rdb.Get(ctx, getActionIDKey(actionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return actionInternal{}, model.ErrActionDoesNotExist
		}
		return actionInternal{}, fmt.Errorf("failed to get action %s: %w", actionID, err)
	}
	var actionInt actionInternal
	if err = json.Unmarshal([]byte(raw), &actionInt); err != nil {
		return actionInternal{}, fmt.Errorf("failed to unmarshal action %s: %w", actionID, err)
	}
	return actionInt, nil
}

func (a *ActionStorage) setActionInt(ctx context.Context, actionInt actionInternal) error {
	actionJSON, err := json.Marshal(actionInt)
	if err != nil {
		return fmt.Errorf("failed to marshal internal action: %w", err)
	}
	if err = a.rdb.Set(ctx, fmt.Sprintf("action_%v", actionInt.ActionID), actionJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to save action %s: %w", actionInt.ActionID, err)
	}
	return nil
}

func (a *ActionStorage) getIndex(ctx context.Context) (actionsIndex, error) {
	raw, err := a.rdb.Get(ctx, actionsIndexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return actionsIndex{Actions: make([]string, 0)}, nil
		}
		return actionsIndex{}, fmt.Errorf("failed to get actions index: %w", err)
	}
	var index actionsIndex
	if err = json.Unmarshal([]byte(raw), &index); err != nil {
		return actionsIndex{}, fmt.Errorf("failed to unmarshal actions index: %w", err)
	}
	return index, nil
}

func (a *ActionStorage) setIndex(ctx context.Context, index actionsIndex) error {
	indexJSON, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal actions index: %w", err)
	}
	return a.rdb.Set(ctx, actionsIndexKey, indexJSON, 0).Err()
}

const actionsIndexKey = "actions_index"

func getActionIDKey(id uuid.UUID) string {
	return fmt.Sprintf("action_%v", id.String())
}

func getActionNameKey(name string) string {
	return fmt.Sprintf("action_name_%v", name)
}
