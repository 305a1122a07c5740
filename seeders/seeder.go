package seeders

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/entities"
	"theater-warehouse/internal/repositories"
	"theater-warehouse/internal/services"
	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/utils"
)

type Repositories struct {
	Categories repositories.CategoryRepositoryInterface
	Equipment  repositories.EquipmentRepositoryInterface
	Users      repositories.UserRepositoryInterface
}

// SeedAll создаёт администратора и, если demo, демонстрационные категории и оборудование.
// Повторный запуск ничего не дублирует.
func SeedAll(ctx context.Context, repos Repositories, bcryptCost int, demo bool, logger *zap.Logger) error {
	admin, err := SeedAdmin(ctx, repos.Users, bcryptCost, logger)
	if err != nil {
		return fmt.Errorf("администратор: %w", err)
	}
	if !demo {
		return nil
	}

	ids, err := SeedCategories(ctx, repos.Categories, logger)
	if err != nil {
		return fmt.Errorf("категории: %w", err)
	}
	if err := SeedEquipment(ctx, repos.Equipment, ids, admin.ID, logger); err != nil {
		return fmt.Errorf("оборудование: %w", err)
	}
	return nil
}

func SeedAdmin(ctx context.Context, users repositories.UserRepositoryInterface, bcryptCost int, logger *zap.Logger) (*entities.User, error) {
	existing, err := users.FindUserByUsername(ctx, adminUsername)
	if err == nil {
		logger.Debug("администратор уже существует, пропускаем")
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(adminPassword, bcryptCost)
	if err != nil {
		return nil, err
	}
	admin, err := users.CreateUser(ctx, entities.User{
		Username: adminUsername,
		Email:    adminEmail,
		Password: hash,
		Role:     authz.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("создан администратор по умолчанию", zap.String("username", admin.Username))
	return admin, nil
}

// SeedCategories возвращает id созданных (или уже существующих) категорий по пути "корень" и "корень/подкатегория".
func SeedCategories(ctx context.Context, categories repositories.CategoryRepositoryInterface, logger *zap.Logger) (map[string]uint64, error) {
	ids := make(map[string]uint64)
	created := 0

	for _, node := range services.BuildCategoryTree(demoCategories) {
		root, isNew, err := ensureCategory(ctx, categories, node.Name, entities.RootPlacement())
		if err != nil {
			return nil, err
		}
		if isNew {
			created++
		}
		ids[node.Name] = root.ID

		for _, sub := range node.Subcategories {
			child, isNew, err := ensureCategory(ctx, categories, sub.Name, entities.SubPlacement(root.ID))
			if err != nil {
				return nil, err
			}
			if isNew {
				created++
			}
			ids[node.Name+"/"+sub.Name] = child.ID
		}
	}

	logger.Info("демо-категории готовы", zap.Int("created", created), zap.Int("total", len(ids)))
	return ids, nil
}

func ensureCategory(ctx context.Context, categories repositories.CategoryRepositoryInterface, name string, placement entities.Placement) (*entities.Category, bool, error) {
	existing, err := categories.FindCategoryByName(ctx, name, placement)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}
	c, err := categories.CreateCategory(ctx, entities.Category{Name: name, Placement: placement})
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// SeedEquipment пишет напрямую в репозиторий, без записей в истории.
func SeedEquipment(ctx context.Context, equipment repositories.EquipmentRepositoryInterface, categoryIDs map[string]uint64, createdBy uint64, logger *zap.Logger) error {
	created := 0
	for _, item := range demoEquipment {
		if _, err := equipment.FindEquipmentByInventoryNumber(ctx, item.InventoryNumber); err == nil {
			continue
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		categoryID, ok := categoryIDs[item.Category]
		if !ok {
			return fmt.Errorf("нет категории %q", item.Category)
		}
		record := entities.Equipment{
			Name:            item.Name,
			Description:     utils.TrimmedOrNil(utils.Ptr(item.Description)),
			CategoryID:      categoryID,
			InventoryNumber: utils.Ptr(item.InventoryNumber),
			Condition:       item.Condition,
			Status:          item.Status,
			StorageLocation: item.StorageLocation,
			Performance:     utils.TrimmedOrNil(utils.Ptr(item.Performance)),
			Quantity:        item.Quantity,
			CreatedBy:       utils.Ptr(createdBy),
		}
		if item.Subcategory != "" {
			subID, ok := categoryIDs[item.Category+"/"+item.Subcategory]
			if !ok {
				return fmt.Errorf("нет подкатегории %q в %q", item.Subcategory, item.Category)
			}
			record.SubcategoryID = &subID
		}

		if _, err := equipment.CreateEquipment(ctx, record); err != nil {
			return err
		}
		created++
	}
	logger.Info("демо-оборудование готово", zap.Int("created", created))
	return nil
}
