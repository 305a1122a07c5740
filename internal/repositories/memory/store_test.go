package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/entities"
	apperrors "theater-warehouse/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestStore_Categories(t *testing.T) {
	ctx := context.Background()
	s := New()

	lighting, err := s.CreateCategory(ctx, entities.Category{Name: "Lighting", Placement: entities.RootPlacement()})
	require.NoError(t, err)
	static, err := s.CreateCategory(ctx, entities.Category{Name: "Static", Placement: entities.SubPlacement(lighting.ID)})
	require.NoError(t, err)

	_, err = s.CreateCategory(ctx, entities.Category{Name: "Lighting", Placement: entities.RootPlacement()})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = s.CreateCategory(ctx, entities.Category{Name: "Ghost", Placement: entities.SubPlacement(99)})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	found, err := s.FindCategoryByName(ctx, "Static", entities.SubPlacement(lighting.ID))
	require.NoError(t, err)
	assert.Equal(t, static.ID, found.ID)
	_, err = s.FindCategoryByName(ctx, "Static", entities.RootPlacement())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	all, err := s.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].IsRoot(), "корни идут первыми")

	children, err := s.CountChildren(ctx, lighting.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, children)

	err = s.DeleteCategory(ctx, lighting.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	require.NoError(t, s.DeleteCategory(ctx, static.ID))
	require.NoError(t, s.DeleteCategory(ctx, lighting.ID))
	assert.ErrorIs(t, s.DeleteCategory(ctx, lighting.ID), apperrors.ErrNotFound)
}

func TestStore_Equipment(t *testing.T) {
	ctx := context.Background()
	s := New()

	lighting, err := s.CreateCategory(ctx, entities.Category{Name: "Lighting", Placement: entities.RootPlacement()})
	require.NoError(t, err)

	item := entities.Equipment{
		Name: "PAR64", CategoryID: lighting.ID, InventoryNumber: strPtr("SP-001"),
		Condition: entities.ConditionGood, Status: entities.StatusAvailable, StorageLocation: "Shelf A", Quantity: 1,
	}
	created, err := s.CreateEquipment(ctx, item)
	require.NoError(t, err)
	require.NotNil(t, created.CategoryName)
	assert.Equal(t, "Lighting", *created.CategoryName)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = s.CreateEquipment(ctx, item)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "инвентарный номер уникален")

	item.InventoryNumber = nil
	item.CategoryID = 99
	_, err = s.CreateEquipment(ctx, item)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "ссылка на несуществующую категорию")

	*created.InventoryNumber = "changed"
	again, err := s.FindEquipment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "SP-001", *again.InventoryNumber, "наружу отдаются копии")

	moved, err := s.UpdateEquipmentLocation(ctx, created.ID, "Stage")
	require.NoError(t, err)
	assert.Equal(t, "Stage", moved.StorageLocation)
	assert.True(t, moved.UpdatedAt.After(again.UpdatedAt))

	refs, err := s.CountEquipmentRefs(ctx, lighting.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refs)

	require.NoError(t, s.DeleteEquipment(ctx, created.ID))
	assert.ErrorIs(t, s.DeleteEquipment(ctx, created.ID), apperrors.ErrNotFound)
	_, err = s.FindEquipmentByInventoryNumber(ctx, "SP-001")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_HistoryIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	user, err := s.CreateUser(ctx, entities.User{Username: "admin", Email: "a@t", Role: authz.RoleAdmin})
	require.NoError(t, err)

	for _, action := range []entities.HistoryAction{entities.ActionCreated, entities.ActionUpdated, entities.ActionMoved} {
		_, err := s.AppendHistory(ctx, entities.HistoryEntry{EquipmentID: 1, UserID: user.ID, Action: action})
		require.NoError(t, err)
	}
	_, err = s.AppendHistory(ctx, entities.HistoryEntry{EquipmentID: 2, UserID: user.ID, Action: entities.ActionCreated})
	require.NoError(t, err)

	entries, err := s.GetHistory(ctx, entities.HistoryFilter{EquipmentID: ptr(uint64(1))})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, entities.ActionMoved, entries[0].Action)
	assert.Equal(t, entities.ActionCreated, entries[2].Action)
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))
	require.NotNil(t, entries[0].UserName)
	assert.Equal(t, "admin", *entries[0].UserName)
	assert.Nil(t, entries[0].EquipmentName, "оборудования нет, запись истории остаётся")

	limited, err := s.GetHistory(ctx, entities.HistoryFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, uint64(2), limited[0].EquipmentID)
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.CreateUser(ctx, entities.User{Username: "props", Email: "p@t", Role: authz.RoleUser})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, entities.User{Username: "props", Email: "other@t", Role: authz.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = s.CreateUser(ctx, entities.User{Username: "other", Email: "p@t", Role: authz.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	updated, err := s.UpdateUserRole(ctx, u.ID, authz.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleManager, updated.Role)

	byEmail, err := s.FindUserByEmail(ctx, "p@t")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleManager, byEmail.Role)

	_, err = s.UpdateUserRole(ctx, 99, authz.RoleViewer)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_SearchMatchesWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	s := New()

	lighting, err := s.CreateCategory(ctx, entities.Category{Name: "Lighting", Placement: entities.RootPlacement()})
	require.NoError(t, err)
	for _, e := range []entities.Equipment{
		{Name: "Dimmer 50%"},
		{Name: "Dimmer 500", InventoryNumber: strPtr("DM_01")},
		{Name: "Dimmer 5001", InventoryNumber: strPtr("DMX01")},
	} {
		e.CategoryID = lighting.ID
		e.Condition = entities.ConditionGood
		e.Status = entities.StatusAvailable
		e.StorageLocation = "Shelf A"
		e.Quantity = 1
		_, err := s.CreateEquipment(ctx, e)
		require.NoError(t, err)
	}

	search := func(q string) []string {
		items, err := s.GetEquipments(ctx, entities.EquipmentFilter{Search: q})
		require.NoError(t, err)
		names := make([]string, 0, len(items))
		for _, e := range items {
			names = append(names, e.Name)
		}
		return names
	}
	assert.Equal(t, []string{"Dimmer 50%"}, search("50%"))
	assert.Equal(t, []string{"Dimmer 500"}, search("dm_"))
	assert.Len(t, search("DIMMER"), 3)
}
