package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"theater-warehouse/internal/entities"
)

const movementTable = "movements"

type MovementRepositoryInterface interface {
	CreateMovement(ctx context.Context, movement entities.Movement) (*entities.Movement, error)
	GetMovementsByEquipment(ctx context.Context, equipmentID uint64) ([]entities.Movement, error)
}

type movementRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewMovementRepository(storage *pgxpool.Pool, logger *zap.Logger) MovementRepositoryInterface {
	return &movementRepository{storage: storage, logger: logger}
}

func (r *movementRepository) CreateMovement(ctx context.Context, m entities.Movement) (*entities.Movement, error) {
	query, args, err := psql.Insert(movementTable).
		Columns("equipment_id", "from_location", "to_location", "movement_type", "user_id", "reason", "created_at").
		Values(m.EquipmentID, m.FromLocation, m.ToLocation, m.MovementType, m.UserID, m.Reason, sq.Expr("NOW()")).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса CreateMovement: %w", err)
	}
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&m.ID, &m.CreatedAt); err != nil {
		return nil, wrapPgError("CreateMovement", err)
	}
	return &m, nil
}

func (r *movementRepository) GetMovementsByEquipment(ctx context.Context, equipmentID uint64) ([]entities.Movement, error) {
	query, args, err := psql.Select("id", "equipment_id", "from_location", "to_location", "movement_type", "user_id", "reason", "created_at").
		From(movementTable).
		Where(sq.Eq{"equipment_id": equipmentID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для GetMovementsByEquipment: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgError("GetMovementsByEquipment", err)
	}
	defer rows.Close()

	movements := make([]entities.Movement, 0)
	for rows.Next() {
		var m entities.Movement
		if err := rows.Scan(&m.ID, &m.EquipmentID, &m.FromLocation, &m.ToLocation, &m.MovementType, &m.UserID, &m.Reason, &m.CreatedAt); err != nil {
			return nil, wrapPgError("scan movements", err)
		}
		movements = append(movements, m)
	}
	return movements, wrapPgError("GetMovementsByEquipment", rows.Err())
}
