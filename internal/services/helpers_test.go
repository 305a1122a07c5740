package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/dto"
	"theater-warehouse/internal/entities"
	"theater-warehouse/internal/repositories"
	"theater-warehouse/internal/repositories/memory"
	"theater-warehouse/pkg/utils"
)

// testEnv - сервисы поверх хранилища в памяти и по одному пользователю на каждую роль.
type testEnv struct {
	store      *memory.Store
	cache      repositories.CacheRepositoryInterface
	pipeline   *MutationPipeline
	categories CategoryServiceInterface
	equipment  *EquipmentService
	history    HistoryServiceInterface
	users      map[authz.Role]*entities.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := memory.New()
	cache := repositories.NewMemoryCacheRepository()
	pipeline := NewMutationPipeline(authz.NewGatekeeper(), store, nil, logger)

	env := &testEnv{
		store:      store,
		cache:      cache,
		pipeline:   pipeline,
		categories: NewCategoryService(store, pipeline, cache, time.Minute, logger),
		equipment:  NewEquipmentService(store, store, store, pipeline, cache, logger),
		history:    NewHistoryService(store, 100, 10, logger),
		users:      make(map[authz.Role]*entities.User),
	}
	for _, role := range authz.Roles() {
		u, err := store.CreateUser(context.Background(), entities.User{
			Username: string(role),
			Email:    string(role) + "@theater.test",
			Password: "hash",
			Role:     role,
		})
		require.NoError(t, err)
		env.users[role] = u
	}
	return env
}

func (e *testEnv) as(role authz.Role) context.Context {
	u := e.users[role]
	return utils.ContextWithActor(context.Background(), &authz.Actor{UserID: u.ID, Username: u.Username, Role: u.Role})
}

// lightingFixture создаёт "Lighting" -> "Static" и прибор PAR64 на полке "Shelf A".
func (e *testEnv) lightingFixture(t *testing.T) (root, sub *entities.Category, par64 *entities.Equipment) {
	t.Helper()
	ctx := e.as(authz.RoleAdmin)

	root, err := e.categories.CreateCategory(ctx, dto.CreateCategoryDTO{Name: "Lighting"})
	require.NoError(t, err)
	sub, err = e.categories.CreateCategory(ctx, dto.CreateCategoryDTO{Name: "Static", ParentID: &root.ID})
	require.NoError(t, err)

	par64, err = e.equipment.CreateEquipment(ctx, dto.CreateEquipmentDTO{
		Name:            "PAR64",
		CategoryID:      root.ID,
		SubcategoryID:   &sub.ID,
		Condition:       "good",
		Status:          "available",
		StorageLocation: "Shelf A",
		Quantity:        utils.Ptr(2),
	})
	require.NoError(t, err)
	return root, sub, par64
}
