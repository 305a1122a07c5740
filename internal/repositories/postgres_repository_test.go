package repositories

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/entities"
	"theater-warehouse/pkg/database/postgresql"
	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/utils"
)

var testPool *pgxpool.Pool

// TestMain подключается к тестовой БД из TEST_DATABASE_URL и накатывает миграции.
// Без переменной интеграционные тесты пропускаются, остальные запускаются как обычно.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
	}
	if err := postgresql.Migrate(ctx, testPool); err != nil {
		log.Fatalf("Не удалось применить миграции: %v", err)
	}

	code := m.Run()
	testPool.Close()
	os.Exit(code)
}

// integrationPool возвращает пул с очищенными таблицами или пропускает тест.
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE TABLE movements, history, equipment, categories, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Не удалось очистить таблицы")
	return testPool
}

func seedUser(t *testing.T, pool *pgxpool.Pool, username string) *entities.User {
	t.Helper()
	u, err := NewUserRepository(pool, zap.NewNop()).CreateUser(context.Background(), entities.User{
		Username: username,
		Email:    username + "@theater.test",
		Password: "hash",
		Role:     authz.RoleUser,
	})
	require.NoError(t, err)
	return u
}

func seedEquipment(t *testing.T, repo EquipmentRepositoryInterface, e entities.Equipment) *entities.Equipment {
	t.Helper()
	if e.Condition == "" {
		e.Condition = entities.ConditionGood
	}
	if e.Status == "" {
		e.Status = entities.StatusAvailable
	}
	if e.StorageLocation == "" {
		e.StorageLocation = "Shelf A"
	}
	if e.Quantity == 0 {
		e.Quantity = 1
	}
	created, err := repo.CreateEquipment(context.Background(), e)
	require.NoError(t, err)
	return created
}

func TestCategoryRepository_Integration_Placement(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	repo := NewCategoryRepository(pool, zap.NewNop())

	lighting, err := repo.CreateCategory(ctx, entities.Category{Name: "Lighting", Placement: entities.RootPlacement()})
	require.NoError(t, err)
	assert.True(t, lighting.IsRoot())

	static, err := repo.CreateCategory(ctx, entities.Category{Name: "Static", Placement: entities.SubPlacement(lighting.ID)})
	require.NoError(t, err)
	parentID, ok := static.Placement.ParentID()
	require.True(t, ok)
	assert.Equal(t, lighting.ID, parentID)

	t.Run("одинаковое имя среди корней - конфликт", func(t *testing.T) {
		_, err := repo.CreateCategory(ctx, entities.Category{Name: "Lighting", Placement: entities.RootPlacement()})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("одинаковое имя у одного родителя - конфликт", func(t *testing.T) {
		_, err := repo.CreateCategory(ctx, entities.Category{Name: "Static", Placement: entities.SubPlacement(lighting.ID)})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	staticRoot, err := repo.CreateCategory(ctx, entities.Category{Name: "Static", Placement: entities.RootPlacement()})
	require.NoError(t, err, "имя подкатегории допустимо для корня")

	t.Run("поиск по имени учитывает размещение", func(t *testing.T) {
		found, err := repo.FindCategoryByName(ctx, "Static", entities.RootPlacement())
		require.NoError(t, err)
		assert.Equal(t, staticRoot.ID, found.ID)

		found, err = repo.FindCategoryByName(ctx, "Static", entities.SubPlacement(lighting.ID))
		require.NoError(t, err)
		assert.Equal(t, static.ID, found.ID)

		_, err = repo.FindCategoryByName(ctx, "Lighting", entities.SubPlacement(staticRoot.ID))
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("обновление отсутствующей категории", func(t *testing.T) {
		_, err := repo.UpdateCategory(ctx, entities.Category{ID: 999, Name: "X", Placement: entities.RootPlacement()})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestCategoryRepository_Integration_CountsAndDelete(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	categories := NewCategoryRepository(pool, zap.NewNop())
	equipment := NewEquipmentRepository(pool, zap.NewNop())
	admin := seedUser(t, pool, "admin")

	lighting, err := categories.CreateCategory(ctx, entities.Category{Name: "Lighting", Placement: entities.RootPlacement()})
	require.NoError(t, err)
	static, err := categories.CreateCategory(ctx, entities.Category{Name: "Static", Placement: entities.SubPlacement(lighting.ID)})
	require.NoError(t, err)
	smoke, err := categories.CreateCategory(ctx, entities.Category{Name: "Smoke", Placement: entities.RootPlacement()})
	require.NoError(t, err)

	par64 := seedEquipment(t, equipment, entities.Equipment{
		Name: "PAR64", CategoryID: lighting.ID, SubcategoryID: &static.ID, CreatedBy: &admin.ID,
	})

	all, err := categories.GetCategories(ctx)
	require.NoError(t, err)
	counts := map[uint64]int{}
	for _, c := range all {
		counts[c.ID] = c.EquipmentCount
	}
	assert.Equal(t, 1, counts[lighting.ID])
	assert.Equal(t, 1, counts[static.ID], "подкатегория считается по subcategory_id")
	assert.Equal(t, 0, counts[smoke.ID])
	require.Len(t, all, 3)
	assert.True(t, all[0].IsRoot() && all[1].IsRoot(), "корни идут первыми")

	refs, err := categories.CountEquipmentRefs(ctx, static.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refs)
	children, err := categories.CountChildren(ctx, lighting.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, children)

	assert.ErrorIs(t, categories.DeleteCategory(ctx, lighting.ID), apperrors.ErrConflict)
	assert.ErrorIs(t, categories.DeleteCategory(ctx, static.ID), apperrors.ErrConflict)
	assert.ErrorIs(t, categories.DeleteCategory(ctx, 999), apperrors.ErrNotFound)

	require.NoError(t, equipment.DeleteEquipment(ctx, par64.ID))
	require.NoError(t, categories.DeleteCategory(ctx, static.ID))
	require.NoError(t, categories.DeleteCategory(ctx, lighting.ID))

	_, err = categories.FindCategory(ctx, lighting.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEquipmentRepository_Integration_Filters(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	categories := NewCategoryRepository(pool, zap.NewNop())
	repo := NewEquipmentRepository(pool, zap.NewNop())
	admin := seedUser(t, pool, "admin")

	lighting, err := categories.CreateCategory(ctx, entities.Category{Name: "Lighting", Placement: entities.RootPlacement()})
	require.NoError(t, err)
	static, err := categories.CreateCategory(ctx, entities.Category{Name: "Static", Placement: entities.SubPlacement(lighting.ID)})
	require.NoError(t, err)
	props, err := categories.CreateCategory(ctx, entities.Category{Name: "Props", Placement: entities.RootPlacement()})
	require.NoError(t, err)

	par64 := seedEquipment(t, repo, entities.Equipment{
		Name: "PAR64", CategoryID: lighting.ID, SubcategoryID: &static.ID,
		InventoryNumber: utils.Ptr("SP-001"), Performance: utils.Ptr("Лебединое озеро"), CreatedBy: &admin.ID,
	})
	dimmer := seedEquipment(t, repo, entities.Equipment{
		Name: "Dimmer 50%", CategoryID: lighting.ID, Status: entities.StatusInUse,
		Description: utils.Ptr("Диммер на 12 каналов"),
	})
	seedEquipment(t, repo, entities.Equipment{Name: "Dimmer 500", CategoryID: lighting.ID, InventoryNumber: utils.Ptr("DM_01")})
	seedEquipment(t, repo, entities.Equipment{Name: "Dimmer 5001", CategoryID: props.ID, InventoryNumber: utils.Ptr("DMX01")})

	names := func(filter entities.EquipmentFilter) []string {
		t.Helper()
		items, err := repo.GetEquipments(ctx, filter)
		require.NoError(t, err)
		res := make([]string, 0, len(items))
		for _, e := range items {
			res = append(res, e.Name)
		}
		return res
	}

	t.Run("поиск без учёта регистра", func(t *testing.T) {
		assert.Equal(t, []string{"PAR64"}, names(entities.EquipmentFilter{Search: "par"}))
		assert.Equal(t, []string{"PAR64"}, names(entities.EquipmentFilter{Search: "sp-0"}))
		assert.Equal(t, []string{"Dimmer 50%"}, names(entities.EquipmentFilter{Search: "канал"}))
	})

	t.Run("символы шаблона совпадают буквально", func(t *testing.T) {
		assert.Equal(t, []string{"Dimmer 50%"}, names(entities.EquipmentFilter{Search: "50%"}))
		assert.Equal(t, []string{"Dimmer 500"}, names(entities.EquipmentFilter{Search: "DM_"}))
	})

	t.Run("фильтры объединяются через И", func(t *testing.T) {
		status := entities.StatusInUse
		assert.Equal(t, []string{"Dimmer 50%"}, names(entities.EquipmentFilter{Search: "dimmer", Status: &status}))
		assert.Equal(t, []string{"PAR64"}, names(entities.EquipmentFilter{SubcategoryID: &static.ID}))
		assert.Equal(t, []string{"Dimmer 5001"}, names(entities.EquipmentFilter{CategoryID: &props.ID}))
		assert.Equal(t, []string{"PAR64"}, names(entities.EquipmentFilter{Performance: utils.Ptr("Лебединое озеро")}))
		assert.Len(t, names(entities.EquipmentFilter{CategoryID: &lighting.ID}), 3)
	})

	t.Run("имена из связанных таблиц", func(t *testing.T) {
		found, err := repo.FindEquipment(ctx, par64.ID)
		require.NoError(t, err)
		require.NotNil(t, found.CategoryName)
		require.NotNil(t, found.SubcategoryName)
		require.NotNil(t, found.CreatedByName)
		assert.Equal(t, "Lighting", *found.CategoryName)
		assert.Equal(t, "Static", *found.SubcategoryName)
		assert.Equal(t, "admin", *found.CreatedByName)

		found, err = repo.FindEquipmentByInventoryNumber(ctx, "SP-001")
		require.NoError(t, err)
		assert.Equal(t, par64.ID, found.ID)
	})

	t.Run("повтор инвентарного номера", func(t *testing.T) {
		_, err := repo.CreateEquipment(ctx, entities.Equipment{
			Name: "Copy", CategoryID: lighting.ID, InventoryNumber: utils.Ptr("SP-001"),
			Condition: entities.ConditionGood, Status: entities.StatusAvailable, StorageLocation: "X", Quantity: 1,
		})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("перемещение и обновление", func(t *testing.T) {
		moved, err := repo.UpdateEquipmentLocation(ctx, dimmer.ID, "Stage Left")
		require.NoError(t, err)
		assert.Equal(t, "Stage Left", moved.StorageLocation)
		assert.Equal(t, entities.StatusInUse, moved.Status)
		assert.False(t, moved.UpdatedAt.Before(dimmer.UpdatedAt))

		moved.Quantity = 4
		updated, err := repo.UpdateEquipment(ctx, *moved)
		require.NoError(t, err)
		assert.Equal(t, 4, updated.Quantity)

		_, err = repo.UpdateEquipmentLocation(ctx, 999, "Nowhere")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteEquipment(ctx, 999), apperrors.ErrNotFound)
	})
}

func TestHistoryAndMovementRepositories_Integration(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	categories := NewCategoryRepository(pool, zap.NewNop())
	equipment := NewEquipmentRepository(pool, zap.NewNop())
	history := NewHistoryRepository(pool, zap.NewNop())
	movements := NewMovementRepository(pool, zap.NewNop())
	admin := seedUser(t, pool, "admin")
	stagehand := seedUser(t, pool, "stagehand")

	lighting, err := categories.CreateCategory(ctx, entities.Category{Name: "Lighting", Placement: entities.RootPlacement()})
	require.NoError(t, err)
	par64 := seedEquipment(t, equipment, entities.Equipment{Name: "PAR64", CategoryID: lighting.ID})

	for _, e := range []entities.HistoryEntry{
		{EquipmentID: par64.ID, UserID: admin.ID, Action: entities.ActionCreated, Details: "created"},
		{EquipmentID: par64.ID, UserID: stagehand.ID, Action: entities.ActionMoved,
			OldValue: utils.Ptr("Shelf A"), NewValue: utils.Ptr("Stage Left"), Details: "moved"},
		{EquipmentID: 777, UserID: admin.ID, Action: entities.ActionDeleted, Details: "gone"},
	} {
		appended, err := history.AppendHistory(ctx, e)
		require.NoError(t, err)
		assert.NotZero(t, appended.ID)
		assert.False(t, appended.CreatedAt.IsZero())
	}

	all, err := history.GetHistory(ctx, entities.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "gone", all[0].Details, "новые записи первыми")
	assert.Nil(t, all[0].EquipmentName, "запись об удалённом оборудовании остаётся")

	byEquipment, err := history.GetHistory(ctx, entities.HistoryFilter{EquipmentID: &par64.ID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, byEquipment, 1)
	assert.Equal(t, entities.ActionMoved, byEquipment[0].Action)
	require.NotNil(t, byEquipment[0].EquipmentName)
	require.NotNil(t, byEquipment[0].UserName)
	assert.Equal(t, "PAR64", *byEquipment[0].EquipmentName)
	assert.Equal(t, "stagehand", *byEquipment[0].UserName)

	byUser, err := history.GetHistory(ctx, entities.HistoryFilter{UserID: &admin.ID})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	m, err := movements.CreateMovement(ctx, entities.Movement{
		EquipmentID: par64.ID, FromLocation: utils.Ptr("Shelf A"), ToLocation: "Stage Left",
		MovementType: entities.DefaultMovementType, UserID: stagehand.ID, Reason: utils.Ptr("Rehearsal"),
	})
	require.NoError(t, err)
	assert.NotZero(t, m.ID)

	list, err := movements.GetMovementsByEquipment(ctx, par64.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Stage Left", list[0].ToLocation)
	assert.Equal(t, "transfer", list[0].MovementType)

	require.NoError(t, equipment.DeleteEquipment(ctx, par64.ID))
	list, err = movements.GetMovementsByEquipment(ctx, par64.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "перемещения удаляются вместе с оборудованием")

	kept, err := history.GetHistory(ctx, entities.HistoryFilter{EquipmentID: &par64.ID})
	require.NoError(t, err)
	assert.Len(t, kept, 2, "журнал переживает удаление")
}

func TestUserRepository_Integration(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	repo := NewUserRepository(pool, zap.NewNop())

	admin := seedUser(t, pool, "admin")
	assert.Equal(t, authz.RoleUser, admin.Role)

	_, err := repo.CreateUser(ctx, entities.User{Username: "admin", Email: "other@theater.test", Password: "hash", Role: authz.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = repo.CreateUser(ctx, entities.User{Username: "other", Email: "admin@theater.test", Password: "hash", Role: authz.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	found, err := repo.FindUserByEmail(ctx, "admin@theater.test")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, found.ID)

	updated, err := repo.UpdateUserRole(ctx, admin.ID, authz.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAdmin, updated.Role)

	_, err = repo.UpdateUserRole(ctx, 999, authz.RoleViewer)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.FindUserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	seedUser(t, pool, "stagehand")
	users, err := repo.GetUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestSearchCondition_EscapesWildcards(t *testing.T) {
	sql, args, err := searchCondition(`50%_\`).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, `ESCAPE '\'`)
	require.Len(t, args, 3)
	for _, arg := range args {
		assert.Equal(t, `%50\%\_\\%`, arg)
	}
}
