package in_memory

import (
	"context"
	"sync"

	"github.com/fathomhq/fathom/internal/model"
	"github.com/google/uuid"
)

type MacroStorage struct {
	mu     sync.RWMutex
	macros map[uuid.UUID]model.Macro
	// byUser keeps creation order per user.
	byUser map[uuid.UUID][]uuid.UUID
}

func NewMacroStorage() *MacroStorage {
	return &MacroStorage{
		macros: make(map[uuid.UUID]model.Macro),
		byUser: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *MacroStorage) CreateMacro(_ context.Context, macro model.Macro) (model.Macro, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	macro.MacroID = uuid.New()
	m.macros[macro.MacroID] = macro
	m.byUser[macro.UserID] = append(m.byUser[macro.UserID], macro.MacroID)
	return macro, nil
}

func (m *MacroStorage) GetMacro(_ context.Context, macroID uuid.UUID) (model.Macro, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	macro, ok := m.macros[macroID]
	if !ok {
		return model.Macro{}, model.ErrMacroDoesNotExist
	}
	return macro, nil
}

func (m *MacroStorage) UpdateMacro(_ context.Context, macro model.Macro) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.macros[macro.MacroID]; !ok {
		return model.ErrMacroDoesNotExist
	}
	m.macros[macro.MacroID] = macro
	return nil
}

func (m *MacroStorage) DeleteMacro(_ context.Context, macroID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	macro, ok := m.macros[macroID]
	if !ok {
		return model.ErrMacroDoesNotExist
	}
	delete(m.macros, macroID)

	ids := m.byUser[macro.UserID]
	kept := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != macroID {
			kept = append(kept, id)
		}
	}
	m.byUser[macro.UserID] = kept
	return nil
}

func (m *MacroStorage) ListUserMacros(_ context.Context, userID uuid.UUID) ([]model.Macro, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	macros := make([]model.Macro, 0, len(m.byUser[userID]))
	for _, macroID := range m.byUser[userID] {
		macros = append(macros, m.macros[macroID])
	}
	return macros, nil
}

func (m *MacroStorage) DeleteUserMacros(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, macroID := range m.byUser[userID] {
		delete(m.macros, macroID)
	}
	delete(m.byUser, userID)
	return nil
}
