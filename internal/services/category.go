package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/dto"
	"theater-warehouse/internal/entities"
	"theater-warehouse/internal/repositories"
	apperrors "theater-warehouse/pkg/errors"
)

const (
	categoryTreeCacheKey   = "categories:tree"
	categoryTreeVersionKey = "categories:tree:version"
)

// cachedCategoryTree хранит дерево вместе с версией, под которой оно строилось.
type cachedCategoryTree struct {
	Version int64                   `json:"version"`
	Tree    []entities.CategoryNode `json:"tree"`
}

type CategoryServiceInterface interface {
	GetCategoryTree(ctx context.Context) ([]entities.CategoryNode, error)
	FindCategory(ctx context.Context, id uint64) (*entities.CategoryNode, error)
	CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (*entities.Category, error)
	UpdateCategory(ctx context.Context, id uint64, payload dto.UpdateCategoryDTO) (*entities.Category, error)
	DeleteCategory(ctx context.Context, id uint64) error
}

type CategoryService struct {
	*BaseService
	categoryRepo repositories.CategoryRepositoryInterface
	pipeline     *MutationPipeline
	cacheTTL     time.Duration
	logger       *zap.Logger
}

func NewCategoryService(
	categoryRepo repositories.CategoryRepositoryInterface,
	pipeline *MutationPipeline,
	cache repositories.CacheRepositoryInterface,
	cacheTTL time.Duration,
	logger *zap.Logger,
) CategoryServiceInterface {
	return &CategoryService{
		BaseService:  NewBaseService(cache, logger),
		categoryRepo: categoryRepo,
		pipeline:     pipeline,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

func (s *CategoryService) GetCategoryTree(ctx context.Context) ([]entities.CategoryNode, error) {
	version, cacheable := s.CacheVersion(ctx, categoryTreeVersionKey)
	if cacheable {
		var cached cachedCategoryTree
		if s.CacheGet(ctx, categoryTreeCacheKey, &cached) && cached.Version == version {
			return cached.Tree, nil
		}
	}

	flat, err := s.categoryRepo.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	tree := BuildCategoryTree(flat)

	// дерево, собранное до чужой инвалидации, не кешируем
	if current, ok := s.CacheVersion(ctx, categoryTreeVersionKey); cacheable && ok && current == version {
		s.CacheSet(ctx, categoryTreeCacheKey, cachedCategoryTree{Version: version, Tree: tree}, s.cacheTTL)
	}
	return tree, nil
}

func (s *CategoryService) FindCategory(ctx context.Context, id uint64) (*entities.CategoryNode, error) {
	category, err := s.categoryRepo.FindCategory(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("Категория не найдена")
		}
		return nil, err
	}

	node := &entities.CategoryNode{Category: *category, Subcategories: []entities.Category{}}
	if !category.IsRoot() {
		return node, nil
	}

	flat, err := s.categoryRepo.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range flat {
		if parentID, ok := c.Placement.ParentID(); ok && parentID == id {
			node.Subcategories = append(node.Subcategories, c)
		}
	}
	node.Subcategories = DedupCategories(node.Subcategories)
	return node, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (*entities.Category, error) {
	name := strings.TrimSpace(payload.Name)
	placement := entities.PlacementFromParent(payload.ParentID)

	var created *entities.Category
	_, err := s.pipeline.Run(ctx, Mutation{
		Name:       "category.create",
		Capability: authz.ManageCategories,
		Validate: func(ctx context.Context, _ *authz.Actor) error {
			if name == "" {
				return apperrors.NewValidationError("Название категории обязательно", nil)
			}
			if err := s.validatePlacement(ctx, 0, placement); err != nil {
				return err
			}
			return s.validateNameFree(ctx, 0, name, placement)
		},
		Persist: func(ctx context.Context, _ *authz.Actor) (*entities.HistoryEntry, error) {
			var err error
			created, err = s.categoryRepo.CreateCategory(ctx, entities.Category{Name: name, Placement: placement})
			if errors.Is(err, apperrors.ErrConflict) {
				return nil, apperrors.NewValidationError("Категория с таким названием уже существует", nil)
			}
			return nil, err
		},
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCategoryTree(ctx)
	return created, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uint64, payload dto.UpdateCategoryDTO) (*entities.Category, error) {
	var (
		current *entities.Category
		target  entities.Category
		updated *entities.Category
	)

	_, err := s.pipeline.Run(ctx, Mutation{
		Name:       "category.update",
		Capability: authz.ManageCategories,
		Validate: func(ctx context.Context, _ *authz.Actor) error {
			var err error
			current, err = s.categoryRepo.FindCategory(ctx, id)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return apperrors.NewNotFoundError("Категория не найдена")
				}
				return err
			}

			target = *current
			if payload.Name.Set {
				name := strings.TrimSpace(payload.Name.Value.String)
				if !payload.Name.Value.Valid || name == "" {
					return apperrors.NewValidationError("Название категории не может быть пустым", nil)
				}
				target.Name = name
			}
			if payload.ParentID.Set {
				if payload.ParentID.Value.Valid {
					target.Placement = entities.SubPlacement(payload.ParentID.Value.Uint64)
				} else {
					target.Placement = entities.RootPlacement()
				}
			}

			if err := s.validatePlacement(ctx, id, target.Placement); err != nil {
				return err
			}
			if target.Placement != current.Placement {
				if err := s.validateReparent(ctx, id, target.Placement); err != nil {
					return err
				}
			}
			return s.validateNameFree(ctx, id, target.Name, target.Placement)
		},
		Persist: func(ctx context.Context, _ *authz.Actor) (*entities.HistoryEntry, error) {
			var err error
			updated, err = s.categoryRepo.UpdateCategory(ctx, target)
			if errors.Is(err, apperrors.ErrConflict) {
				return nil, apperrors.NewValidationError("Категория с таким названием уже существует", nil)
			}
			return nil, err
		},
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCategoryTree(ctx)
	return updated, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id uint64) error {
	_, err := s.pipeline.Run(ctx, Mutation{
		Name:       "category.delete",
		Capability: authz.ManageCategories,
		Validate: func(ctx context.Context, _ *authz.Actor) error {
			if _, err := s.categoryRepo.FindCategory(ctx, id); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return apperrors.NewNotFoundError("Категория не найдена")
				}
				return err
			}
			children, err := s.categoryRepo.CountChildren(ctx, id)
			if err != nil {
				return err
			}
			refs, err := s.categoryRepo.CountEquipmentRefs(ctx, id)
			if err != nil {
				return err
			}
			if children > 0 || refs > 0 {
				return categoryInUseError(children, refs)
			}
			return nil
		},
		Persist: func(ctx context.Context, _ *authz.Actor) (*entities.HistoryEntry, error) {
			err := s.categoryRepo.DeleteCategory(ctx, id)
			if errors.Is(err, apperrors.ErrConflict) {
				return nil, apperrors.NewHttpError(http.StatusBadRequest,
					"Категория используется и не может быть удалена", err, nil)
			}
			return nil, err
		},
	})
	if err != nil {
		return err
	}
	s.invalidateCategoryTree(ctx)
	return nil
}

// validatePlacement проверяет, что родитель существует и сам является корнем.
func (s *CategoryService) validatePlacement(ctx context.Context, selfID uint64, placement entities.Placement) error {
	parentID, isSub := placement.ParentID()
	if !isSub {
		return nil
	}
	if selfID != 0 && parentID == selfID {
		return apperrors.NewValidationError("Категория не может быть родителем самой себя", nil)
	}
	parent, err := s.categoryRepo.FindCategory(ctx, parentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewValidationError(fmt.Sprintf("Родительская категория %d не найдена", parentID), nil)
		}
		return err
	}
	if !parent.IsRoot() {
		return apperrors.NewValidationError("Подкатегория не может содержать вложенные категории", nil)
	}
	return nil
}

// validateReparent не даёт сменить положение категории, если это нарушит дерево или ссылки оборудования.
func (s *CategoryService) validateReparent(ctx context.Context, id uint64, target entities.Placement) error {
	if !target.IsRoot() {
		children, err := s.categoryRepo.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return apperrors.NewValidationError("Категория с подкатегориями не может стать подкатегорией", nil)
		}
	}
	refs, err := s.categoryRepo.CountEquipmentRefs(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return apperrors.NewConflictError(fmt.Sprintf("Нельзя переместить категорию: на неё ссылается оборудование (%d)", refs))
	}
	return nil
}

func (s *CategoryService) validateNameFree(ctx context.Context, selfID uint64, name string, placement entities.Placement) error {
	existing, err := s.categoryRepo.FindCategoryByName(ctx, name, placement)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return apperrors.NewValidationError(fmt.Sprintf("Категория %q уже существует на этом уровне", name), nil)
	}
	return nil
}

func categoryInUseError(children, refs int) error {
	return apperrors.NewHttpError(http.StatusBadRequest,
		"Категория используется и не может быть удалена",
		apperrors.ErrConflict,
		map[string]int{"subcategories": children, "equipment_count": refs})
}

func (s *BaseService) invalidateCategoryTree(ctx context.Context) {
	s.CacheBumpVersion(ctx, categoryTreeVersionKey)
	s.CacheInvalidate(ctx, categoryTreeCacheKey)
}
