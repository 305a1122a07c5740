package seeders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/entities"
	"theater-warehouse/internal/repositories/memory"
	"theater-warehouse/internal/services"
	"theater-warehouse/pkg/utils"
)

func TestSeedAll_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := Repositories{Categories: store, Equipment: store, Users: store}

	require.NoError(t, SeedAll(ctx, repos, 4, true, zap.NewNop()))
	require.NoError(t, SeedAll(ctx, repos, 4, true, zap.NewNop()))

	admin, err := store.FindUserByUsername(ctx, adminUsername)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAdmin, admin.Role)
	assert.NoError(t, utils.ComparePasswords(admin.Password, adminPassword))

	users, err := store.GetUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	flat, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, flat, 8, "дубликаты справочника не попадают в хранилище")

	tree := services.BuildCategoryTree(flat)
	require.Len(t, tree, 4)

	items, err := store.GetEquipments(ctx, entities.EquipmentFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)

	par64, err := store.FindEquipmentByInventoryNumber(ctx, "SP-001")
	require.NoError(t, err)
	require.NotNil(t, par64.SubcategoryName)
	assert.Equal(t, "Статические приборы", *par64.SubcategoryName)
	assert.Equal(t, admin.ID, *par64.CreatedBy)

	history, err := store.GetHistory(ctx, entities.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSeedAll_WithoutDemo(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, SeedAll(ctx, Repositories{Categories: store, Equipment: store, Users: store}, 4, false, zap.NewNop()))

	flat, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, flat)
}
