package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/dto"
	"theater-warehouse/internal/entities"
	"theater-warehouse/internal/repositories"
	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/utils"
)

type EquipmentServiceInterface interface {
	GetEquipments(ctx context.Context, filter entities.EquipmentFilter) ([]entities.Equipment, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error)
	UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error)
	DeleteEquipment(ctx context.Context, id uint64) error
	MoveEquipment(ctx context.Context, id uint64, payload dto.MoveEquipmentDTO) error
	GetMovements(ctx context.Context, id uint64) ([]entities.Movement, error)
	ExportEquipment(ctx context.Context, filter entities.EquipmentFilter) (*bytes.Buffer, error)
	ImportEquipment(ctx context.Context, r io.Reader) (*dto.ImportResultDTO, error)
}

type EquipmentService struct {
	*BaseService
	equipmentRepo repositories.EquipmentRepositoryInterface
	categoryRepo  repositories.CategoryRepositoryInterface
	movementRepo  repositories.MovementRepositoryInterface
	pipeline      *MutationPipeline
	logger        *zap.Logger
}

func NewEquipmentService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	movementRepo repositories.MovementRepositoryInterface,
	pipeline *MutationPipeline,
	cache repositories.CacheRepositoryInterface,
	logger *zap.Logger,
) *EquipmentService {
	return &EquipmentService{
		BaseService:   NewBaseService(cache, logger),
		equipmentRepo: equipmentRepo,
		categoryRepo:  categoryRepo,
		movementRepo:  movementRepo,
		pipeline:      pipeline,
		logger:        logger,
	}
}

func (s *EquipmentService) GetEquipments(ctx context.Context, filter entities.EquipmentFilter) ([]entities.Equipment, error) {
	return s.equipmentRepo.GetEquipments(ctx, filter)
}

func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	e, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("Оборудование не найдено")
		}
		return nil, err
	}
	return e, nil
}

func (s *EquipmentService) GetMovements(ctx context.Context, id uint64) ([]entities.Movement, error) {
	return s.movementRepo.GetMovementsByEquipment(ctx, id)
}

func (s *EquipmentService) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error) {
	candidate := entities.Equipment{
		Name:            strings.TrimSpace(payload.Name),
		Description:     utils.TrimmedOrNil(payload.Description),
		CategoryID:      payload.CategoryID,
		SubcategoryID:   payload.SubcategoryID,
		InventoryNumber: utils.TrimmedOrNil(payload.InventoryNumber),
		Condition:       entities.Condition(payload.Condition),
		Status:          entities.Status(payload.Status),
		StorageLocation: strings.TrimSpace(payload.StorageLocation),
		Performance:     utils.TrimmedOrNil(payload.Performance),
		Quantity:        1,
	}
	if payload.Quantity != nil {
		candidate.Quantity = *payload.Quantity
	}

	var created *entities.Equipment
	_, err := s.pipeline.Run(ctx, Mutation{
		Name:       "equipment.create",
		Capability: authz.Write,
		Validate: func(ctx context.Context, _ *authz.Actor) error {
			return s.validateRecord(ctx, candidate, 0)
		},
		Persist: func(ctx context.Context, actor *authz.Actor) (*entities.HistoryEntry, error) {
			candidate.CreatedBy = utils.Ptr(actor.UserID)
			var err error
			created, err = s.equipmentRepo.CreateEquipment(ctx, candidate)
			if err != nil {
				return nil, inventoryConflict(err)
			}
			return &entities.HistoryEntry{
				EquipmentID: created.ID,
				Action:      entities.ActionCreated,
				NewValue:    snapshotJSON(created),
				Details:     fmt.Sprintf("Создано оборудование: %s", created.Name),
			}, nil
		},
	})
	if created != nil {
		s.invalidateCategoryTree(ctx)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	var (
		current *entities.Equipment
		target  entities.Equipment
		changed []string
		updated *entities.Equipment
	)

	_, err := s.pipeline.Run(ctx, Mutation{
		Name:       "equipment.update",
		Capability: authz.Write,
		Validate: func(ctx context.Context, _ *authz.Actor) error {
			var err error
			if current, err = s.FindEquipment(ctx, id); err != nil {
				return err
			}
			target, changed, err = applyEquipmentPatch(*current, payload)
			if err != nil {
				return err
			}
			return s.validateRecord(ctx, target, id)
		},
		Persist: func(ctx context.Context, _ *authz.Actor) (*entities.HistoryEntry, error) {
			var err error
			updated, err = s.equipmentRepo.UpdateEquipment(ctx, target)
			if err != nil {
				return nil, inventoryConflict(err)
			}
			details := "Изменений нет"
			if len(changed) > 0 {
				details = "Изменены поля: " + strings.Join(changed, ", ")
			}
			return &entities.HistoryEntry{
				EquipmentID: id,
				Action:      entities.ActionUpdated,
				OldValue:    snapshotJSON(current),
				NewValue:    snapshotJSON(updated),
				Details:     details,
			}, nil
		},
	})
	if updated != nil {
		s.invalidateCategoryTree(ctx)
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64) error {
	var current *entities.Equipment
	deleted := false

	_, err := s.pipeline.Run(ctx, Mutation{
		Name:       "equipment.delete",
		Capability: authz.Delete,
		Validate: func(ctx context.Context, _ *authz.Actor) error {
			var err error
			current, err = s.FindEquipment(ctx, id)
			return err
		},
		Persist: func(ctx context.Context, _ *authz.Actor) (*entities.HistoryEntry, error) {
			if err := s.equipmentRepo.DeleteEquipment(ctx, id); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return nil, apperrors.NewNotFoundError("Оборудование не найдено")
				}
				return nil, err
			}
			deleted = true
			return &entities.HistoryEntry{
				EquipmentID: id,
				Action:      entities.ActionDeleted,
				OldValue:    snapshotJSON(current),
				Details:     fmt.Sprintf("Удалено оборудование: %s", current.Name),
			}, nil
		},
	})
	if deleted {
		s.invalidateCategoryTree(ctx)
	}
	return err
}

// MoveEquipment меняет только место хранения и пишет запись в журнал перемещений.
func (s *EquipmentService) MoveEquipment(ctx context.Context, id uint64, payload dto.MoveEquipmentDTO) error {
	toLocation := strings.TrimSpace(payload.ToLocation)
	reason := strings.TrimSpace(payload.Reason)
	movementType := strings.TrimSpace(payload.MovementType)
	if movementType == "" {
		movementType = entities.DefaultMovementType
	}

	var current *entities.Equipment
	_, err := s.pipeline.Run(ctx, Mutation{
		Name:       "equipment.move",
		Capability: authz.Write,
		Validate: func(ctx context.Context, _ *authz.Actor) error {
			if toLocation == "" {
				return apperrors.NewValidationError("Укажите новое место хранения", nil)
			}
			var err error
			current, err = s.FindEquipment(ctx, id)
			return err
		},
		Persist: func(ctx context.Context, actor *authz.Actor) (*entities.HistoryEntry, error) {
			oldLocation := current.StorageLocation
			if _, err := s.equipmentRepo.UpdateEquipmentLocation(ctx, id, toLocation); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return nil, apperrors.NewNotFoundError("Оборудование не найдено")
				}
				return nil, err
			}

			movement := entities.Movement{
				EquipmentID:  id,
				FromLocation: utils.Ptr(oldLocation),
				ToLocation:   toLocation,
				MovementType: movementType,
				UserID:       actor.UserID,
				Reason:       utils.TrimmedOrNil(&reason),
			}
			if _, err := s.movementRepo.CreateMovement(ctx, movement); err != nil {
				s.logger.Error("не удалось записать перемещение", zap.Uint64("equipmentID", id), zap.Error(err))
			}

			return &entities.HistoryEntry{
				EquipmentID: id,
				Action:      entities.ActionMoved,
				OldValue:    utils.Ptr(oldLocation),
				NewValue:    utils.Ptr(toLocation),
				Details:     MoveDetails(oldLocation, toLocation, reason),
			}, nil
		},
	})
	return err
}

func MoveDetails(from, to, reason string) string {
	details := fmt.Sprintf("Перемещение: %s → %s", from, to)
	if reason != "" {
		details += ". Причина: " + reason
	}
	return details
}

// validateRecord проверяет итоговую запись целиком: обязательные поля, ссылки на категории и уникальность номера.
func (s *EquipmentService) validateRecord(ctx context.Context, e entities.Equipment, selfID uint64) error {
	problems := map[string]string{}
	if strings.TrimSpace(e.Name) == "" {
		problems["name"] = "обязательное поле"
	}
	if strings.TrimSpace(e.StorageLocation) == "" {
		problems["storage_location"] = "обязательное поле"
	}
	if !e.Condition.IsValid() {
		problems["condition"] = "допустимо: excellent, good, fair, poor"
	}
	if !e.Status.IsValid() {
		problems["status"] = "допустимо: available, in_use, maintenance, broken"
	}
	if e.Quantity < 1 {
		problems["quantity"] = "должно быть не меньше 1"
	}
	if e.CategoryID == 0 {
		problems["category_id"] = "обязательное поле"
	}
	if len(problems) > 0 {
		return apperrors.NewValidationError("Ошибка валидации оборудования", problems)
	}

	category, err := s.categoryRepo.FindCategory(ctx, e.CategoryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewValidationError(fmt.Sprintf("Категория %d не найдена", e.CategoryID), nil)
		}
		return err
	}
	if !category.IsRoot() {
		return apperrors.NewValidationError("Поле category_id должно ссылаться на корневую категорию", nil)
	}

	if e.SubcategoryID != nil {
		sub, err := s.categoryRepo.FindCategory(ctx, *e.SubcategoryID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewValidationError(fmt.Sprintf("Подкатегория %d не найдена", *e.SubcategoryID), nil)
			}
			return err
		}
		if parentID, ok := sub.Placement.ParentID(); !ok || parentID != e.CategoryID {
			return apperrors.NewValidationError("Подкатегория не принадлежит выбранной категории", nil)
		}
	}

	if e.InventoryNumber != nil {
		existing, err := s.equipmentRepo.FindEquipmentByInventoryNumber(ctx, *e.InventoryNumber)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if existing != nil && existing.ID != selfID {
			return inventoryConflict(apperrors.ErrConflict)
		}
	}
	return nil
}

func inventoryConflict(err error) error {
	if errors.Is(err, apperrors.ErrConflict) {
		return apperrors.NewConflictError("Оборудование с таким инвентарным номером уже существует")
	}
	return err
}

func snapshotJSON(e *entities.Equipment) *string {
	if e == nil {
		return nil
	}
	raw, err := json.Marshal(e.Snapshot())
	if err != nil {
		return nil
	}
	return utils.Ptr(string(raw))
}
