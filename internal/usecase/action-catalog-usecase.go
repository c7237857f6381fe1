package usecase

import (
	"context"
	"errors"

	"github.com/fathomhq/fathom/internal/action"
	"github.com/fathomhq/fathom/internal/model"
	"github.com/google/uuid"
)

type ActionStorage interface {
	CreateAction(ctx context.Context, name, description string) (model.Action, error)
	GetAction(ctx context.Context, actionID uuid.UUID) (model.Action, error)
	GetActionByName(ctx context.Context, name string) (model.Action, error)
	UpdateAction(ctx context.Context, action model.Action) error
	DeleteAction(ctx context.Context, actionID uuid.UUID) error
	ListActions(ctx context.Context) ([]model.Action, error)
}

type ActionCatalogUsecaseDeps struct {
	ActionStorage ActionStorage
}

// ActionCatalogUsecase manages the catalog entries macros reference. The
// executable action set lives in the registry; the catalog mirrors its names
// and descriptions for the CRUD surface.
type ActionCatalogUsecase struct {
	ActionCatalogUsecaseDeps
}

func NewActionCatalogUsecase(deps ActionCatalogUsecaseDeps) *ActionCatalogUsecase {
	return &ActionCatalogUsecase{
		ActionCatalogUsecaseDeps: deps,
	}
}

func (a *ActionCatalogUsecase) ListActions(ctx context.Context) ([]model.Action, error) {
	return a.ActionStorage.ListActions(ctx)
}

func (a *ActionCatalogUsecase) CreateAction(ctx context.Context, name, description string) (model.Action, error) {
	return a.ActionStorage.CreateAction(ctx, name, description)
}

// UpdateAction overlays the non-empty fields onto the stored entry.
func (a *ActionCatalogUsecase) UpdateAction(
	ctx context.Context, actionID uuid.UUID, name, description string,
) (model.Action, error) {
	current, err := a.ActionStorage.GetAction(ctx, actionID)
	if err != nil {
		return model.Action{}, err
	}
	if name != "" {
		current.Name = name
	}
	if description != "" {
		current.Description = description
	}
	if err = a.ActionStorage.UpdateAction(ctx, current); err != nil {
		return model.Action{}, err
	}
	return current, nil
}

func (a *ActionCatalogUsecase) DeleteAction(ctx context.Context, actionID uuid.UUID) error {
	return a.ActionStorage.DeleteAction(ctx, actionID)
}

// SeedFromRegistry upserts every registered action's name and description
// into the catalog. Returns how many entries were created and updated.
func (a *ActionCatalogUsecase) SeedFromRegistry(ctx context.Context, registry *action.Registry) (created, updated int, err error) {
	for _, schema := range registry.Schemas() {
		existing, getErr := a.ActionStorage.GetActionByName(ctx, schema.Name)
		if getErr != nil {
			if !errors.Is(getErr, model.ErrActionDoesNotExist) {
				return created, updated, getErr
			}
			if _, createErr := a.ActionStorage.CreateAction(ctx, schema.Name, schema.Description); createErr != nil {
				return created, updated, createErr
			}
			created++
			continue
		}
		if existing.Description != schema.Description {
			existing.Description = schema.Description
			if updateErr := a.ActionStorage.UpdateAction(ctx, existing); updateErr != nil {
				return created, updated, updateErr
			}
			updated++
		}
	}
	return created, updated, nil
}
