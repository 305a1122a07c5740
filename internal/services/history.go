package services

import (
	"context"

	"go.uber.org/zap"

	"theater-warehouse/internal/entities"
	"theater-warehouse/internal/repositories"
)

type HistoryServiceInterface interface {
	GetRecent(ctx context.Context, limit int) ([]entities.HistoryEntry, error)
	GetHistory(ctx context.Context, equipmentID, userID *uint64) ([]entities.HistoryEntry, error)
}

// HistoryService - чтение журнала. Запись идёт только через MutationPipeline.
type HistoryService struct {
	historyRepo   repositories.HistoryRepositoryInterface
	maxRows       int
	recentDefault int
	logger        *zap.Logger
}

func NewHistoryService(historyRepo repositories.HistoryRepositoryInterface, maxRows, recentDefault int, logger *zap.Logger) HistoryServiceInterface {
	if maxRows <= 0 {
		maxRows = 100
	}
	if recentDefault <= 0 || recentDefault > maxRows {
		recentDefault = min(10, maxRows)
	}
	return &HistoryService{historyRepo: historyRepo, maxRows: maxRows, recentDefault: recentDefault, logger: logger}
}

// GetRecent возвращает последние limit записей; limit <= 0 означает значение по умолчанию.
func (s *HistoryService) GetRecent(ctx context.Context, limit int) ([]entities.HistoryEntry, error) {
	if limit <= 0 {
		limit = s.recentDefault
	}
	if limit > s.maxRows {
		limit = s.maxRows
	}
	return s.historyRepo.GetHistory(ctx, entities.HistoryFilter{Limit: limit})
}

func (s *HistoryService) GetHistory(ctx context.Context, equipmentID, userID *uint64) ([]entities.HistoryEntry, error) {
	return s.historyRepo.GetHistory(ctx, entities.HistoryFilter{
		EquipmentID: equipmentID,
		UserID:      userID,
		Limit:       s.maxRows,
	})
}
