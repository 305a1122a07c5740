package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"theater-warehouse/internal/entities"
)

const historyTable = "history"

// HistoryRepositoryInterface - журнал только на добавление: методов изменения и удаления нет.
type HistoryRepositoryInterface interface {
	AppendHistory(ctx context.Context, entry entities.HistoryEntry) (*entities.HistoryEntry, error)
	GetHistory(ctx context.Context, filter entities.HistoryFilter) ([]entities.HistoryEntry, error)
}

type historyRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewHistoryRepository(storage *pgxpool.Pool, logger *zap.Logger) HistoryRepositoryInterface {
	return &historyRepository{storage: storage, logger: logger}
}

func (r *historyRepository) AppendHistory(ctx context.Context, entry entities.HistoryEntry) (*entities.HistoryEntry, error) {
	query, args, err := psql.Insert(historyTable).
		Columns("equipment_id", "user_id", "action", "old_value", "new_value", "details", "created_at").
		Values(entry.EquipmentID, entry.UserID, string(entry.Action), entry.OldValue, entry.NewValue, entry.Details, sq.Expr("NOW()")).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса AppendHistory: %w", err)
	}

	if err := r.storage.QueryRow(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return nil, wrapPgError("AppendHistory", err)
	}
	return &entry, nil
}

func (r *historyRepository) GetHistory(ctx context.Context, filter entities.HistoryFilter) ([]entities.HistoryEntry, error) {
	builder := psql.Select(
		"h.id", "h.equipment_id", "h.user_id", "h.action", "h.old_value", "h.new_value", "h.details", "h.created_at",
		"e.name AS equipment_name", "u.username AS user_name",
	).
		From(historyTable + " h").
		LeftJoin("equipment e ON e.id = h.equipment_id").
		LeftJoin("users u ON u.id = h.user_id")

	if filter.EquipmentID != nil {
		builder = builder.Where(sq.Eq{"h.equipment_id": *filter.EquipmentID})
	}
	if filter.UserID != nil {
		builder = builder.Where(sq.Eq{"h.user_id": *filter.UserID})
	}
	builder = builder.OrderBy("h.created_at DESC", "h.id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для GetHistory: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgError("GetHistory", err)
	}
	defer rows.Close()

	entries := make([]entities.HistoryEntry, 0)
	for rows.Next() {
		var h entities.HistoryEntry
		if err := rows.Scan(&h.ID, &h.EquipmentID, &h.UserID, &h.Action, &h.OldValue, &h.NewValue, &h.Details, &h.CreatedAt,
			&h.EquipmentName, &h.UserName); err != nil {
			return nil, wrapPgError("scan history", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError("GetHistory", err)
	}
	return entries, nil
}
