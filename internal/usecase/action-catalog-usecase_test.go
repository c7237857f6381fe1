package usecase

import (
	"context"
	"testing"

	"github.com/fathomhq/fathom/internal/action"
	"github.com/fathomhq/fathom/internal/model"
	in_memory "github.com/fathomhq/fathom/internal/storage/in-memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog() *ActionCatalogUsecase {
	return NewActionCatalogUsecase(
		ActionCatalogUsecaseDeps{
			ActionStorage: in_memory.NewActionStorage(),
		},
	)
}

func TestActionCatalogUsecase_CreateAndList(t *testing.T) {
	catalog := newCatalog()
	ctx := context.Background()

	created, err := catalog.CreateAction(ctx, "get_time", "Reports the time.")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ActionID)

	_, err = catalog.CreateAction(ctx, "get_time", "duplicate")
	require.ErrorIs(t, err, model.ErrActionNameTaken)

	actions, err := catalog.ListActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "get_time", actions[0].Name)
}

func TestActionCatalogUsecase_UpdateOverlaysNonEmptyFields(t *testing.T) {
	catalog := newCatalog()
	ctx := context.Background()

	created, err := catalog.CreateAction(ctx, "get_time", "Reports the time.")
	require.NoError(t, err)

	updated, err := catalog.UpdateAction(ctx, created.ActionID, "", "Reports the local time.")
	require.NoError(t, err)
	assert.Equal(t, "get_time", updated.Name)
	assert.Equal(t, "Reports the local time.", updated.Description)

	_, err = catalog.UpdateAction(ctx, uuid.New(), "x", "y")
	require.ErrorIs(t, err, model.ErrActionDoesNotExist)
}

func TestActionCatalogUsecase_Delete(t *testing.T) {
	catalog := newCatalog()
	ctx := context.Background()

	created, err := catalog.CreateAction(ctx, "get_time", "")
	require.NoError(t, err)
	require.NoError(t, catalog.DeleteAction(ctx, created.ActionID))
	require.ErrorIs(t, catalog.DeleteAction(ctx, created.ActionID), model.ErrActionDoesNotExist)
}

func TestActionCatalogUsecase_SeedFromRegistry(t *testing.T) {
	catalog := newCatalog()
	ctx := context.Background()

	registry, err := action.NewRegistry(
		action.NewTimeAction(),
		action.NewDateAction(),
	)
	require.NoError(t, err)

	created, updated, err := catalog.SeedFromRegistry(ctx, registry)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 0, updated)

	// Seeding again is a no-op when nothing changed.
	created, updated, err = catalog.SeedFromRegistry(ctx, registry)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 0, updated)

	// A drifted description is brought back in line.
	existing, err := catalog.ActionStorage.GetActionByName(ctx, "get_time")
	require.NoError(t, err)
	existing.Description = "stale"
	require.NoError(t, catalog.ActionStorage.UpdateAction(ctx, existing))

	created, updated, err = catalog.SeedFromRegistry(ctx, registry)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, updated)
}
