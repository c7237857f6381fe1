package in_memory

import (
	"context"
	"sync"

	"github.com/fathomhq/fathom/internal/model"
	"github.com/google/uuid"
)

type ActionStorage struct {
	mu      sync.RWMutex
	actions map[uuid.UUID]model.Action
	byName  map[string]uuid.UUID
	order   []uuid.UUID
}

func NewActionStorage() *ActionStorage {
	return &ActionStorage{
		actions: make(map[uuid.UUID]model.Action),
		byName:  make(map[string]uuid.UUID),
	}
}

func (a *ActionStorage) CreateAction(_ context.Context, name, description string) (model.Action, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.byName[name]; ok {
		return model.Action{}, model.ErrActionNameTaken
	}
	action := model.Action{
		ActionID:    uuid.New(),
		Name:        name,
		Description: description,
	}
	a.actions[action.ActionID] = action
	a.byName[name] = action.ActionID
	a.order = append(a.order, action.ActionID)
	return action, nil
}

func (a *ActionStorage) GetAction(_ context.Context, actionID uuid.UUID) (model.Action, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	action, ok := a.actions[actionID]
	if !ok {
		return model.Action{}, model.ErrActionDoesNotExist
	}
	return action, nil
}

func (a *ActionStorage) GetActionByName(_ context.Context, name string) (model.Action, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	actionID, ok := a.byName[name]
	if !ok {
		return model.Action{}, model.ErrActionDoesNotExist
	}
	return a.actions[actionID], nil
}

func (a *ActionStorage) UpdateAction(_ context.Context, action model.Action) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	current, ok := a.actions[action.ActionID]
	if !ok {
		return model.ErrActionDoesNotExist
	}
	if current.Name != action.Name {
		delete(a.byName, current.Name)
		a.byName[action.Name] = action.ActionID
	}
	a.actions[action.ActionID] = action
	return nil
}

func (a *ActionStorage) DeleteAction(_ context.Context, actionID uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	action, ok := a.actions[actionID]
	if !ok {
		return model.ErrActionDoesNotExist
	}
	delete(a.actions, actionID)
	delete(a.byName, action.Name)

	kept := make([]uuid.UUID, 0, len(a.order))
	for _, id := range a.order {
		if id != actionID {
			kept = append(kept, id)
		}
	}
	a.order = kept
	return nil
}

func (a *ActionStorage) ListActions(_ context.Context) ([]model.Action, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	actions := make([]model.Action, 0, len(a.order))
	for _, actionID := range a.order {
		actions = append(actions, a.actions[actionID])
	}
	return actions, nil
}
