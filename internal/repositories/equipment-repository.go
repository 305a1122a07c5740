package repositories

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"theater-warehouse/internal/entities"
	apperrors "theater-warehouse/pkg/errors"
)

const equipmentTable = "equipment"

var equipmentColumns = []string{
	"e.id", "e.name", "e.description", "e.category_id", "e.subcategory_id", "e.inventory_number",
	"e.condition", "e.status", "e.storage_location", "e.performance", "e.quantity", "e.created_by",
	"e.created_at", "e.updated_at",
	"c.name AS category_name", "sc.name AS subcategory_name", "u.username AS created_by_name",
}

type EquipmentRepositoryInterface interface {
	GetEquipments(ctx context.Context, filter entities.EquipmentFilter) ([]entities.Equipment, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	FindEquipmentByInventoryNumber(ctx context.Context, inventoryNumber string) (*entities.Equipment, error)
	CreateEquipment(ctx context.Context, equipment entities.Equipment) (*entities.Equipment, error)
	UpdateEquipment(ctx context.Context, equipment entities.Equipment) (*entities.Equipment, error)
	UpdateEquipmentLocation(ctx context.Context, id uint64, location string) (*entities.Equipment, error)
	DeleteEquipment(ctx context.Context, id uint64) error
}

type equipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &equipmentRepository{storage: storage, logger: logger}
}

func (r *equipmentRepository) baseSelect() sq.SelectBuilder {
	return psql.Select(equipmentColumns...).
		From(equipmentTable + " e").
		LeftJoin("categories c ON c.id = e.category_id").
		LeftJoin("categories sc ON sc.id = e.subcategory_id").
		LeftJoin("users u ON u.id = e.created_by")
}

func (r *equipmentRepository) scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.CategoryID, &e.SubcategoryID, &e.InventoryNumber,
		&e.Condition, &e.Status, &e.StorageLocation, &e.Performance, &e.Quantity, &e.CreatedBy,
		&e.CreatedAt, &e.UpdatedAt,
		&e.CategoryName, &e.SubcategoryName, &e.CreatedByName,
	)
	if err != nil {
		return nil, wrapPgError("scan equipment", err)
	}
	return &e, nil
}

func (r *equipmentRepository) findOne(ctx context.Context, where sq.Sqlizer) (*entities.Equipment, error) {
	query, args, err := r.baseSelect().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для equipment: %w", err)
	}
	return r.scanEquipment(r.storage.QueryRow(ctx, query, args...))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchCondition ищет подстроку без учёта регистра; % и _ в запросе совпадают буквально.
func searchCondition(search string) sq.Sqlizer {
	pattern := "%" + likeEscaper.Replace(search) + "%"
	return sq.Or{
		sq.Expr(`e.name ILIKE ? ESCAPE '\'`, pattern),
		sq.Expr(`e.description ILIKE ? ESCAPE '\'`, pattern),
		sq.Expr(`e.inventory_number ILIKE ? ESCAPE '\'`, pattern),
	}
}

func (r *equipmentRepository) GetEquipments(ctx context.Context, filter entities.EquipmentFilter) ([]entities.Equipment, error) {
	builder := r.baseSelect()

	if filter.Search != "" {
		builder = builder.Where(searchCondition(filter.Search))
	}
	if filter.CategoryID != nil {
		builder = builder.Where(sq.Eq{"e.category_id": *filter.CategoryID})
	}
	if filter.SubcategoryID != nil {
		builder = builder.Where(sq.Eq{"e.subcategory_id": *filter.SubcategoryID})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"e.status": string(*filter.Status)})
	}
	if filter.Condition != nil {
		builder = builder.Where(sq.Eq{"e.condition": string(*filter.Condition)})
	}
	if filter.Performance != nil {
		builder = builder.Where(sq.Eq{"e.performance": *filter.Performance})
	}

	query, args, err := builder.OrderBy("e.updated_at DESC", "e.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для GetEquipments: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgError("GetEquipments", err)
	}
	defer rows.Close()

	items := make([]entities.Equipment, 0)
	for rows.Next() {
		e, err := r.scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError("GetEquipments", err)
	}
	return items, nil
}

func (r *equipmentRepository) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	return r.findOne(ctx, sq.Eq{"e.id": id})
}

func (r *equipmentRepository) FindEquipmentByInventoryNumber(ctx context.Context, inventoryNumber string) (*entities.Equipment, error) {
	return r.findOne(ctx, sq.Eq{"e.inventory_number": inventoryNumber})
}

func (r *equipmentRepository) CreateEquipment(ctx context.Context, e entities.Equipment) (*entities.Equipment, error) {
	query, args, err := psql.Insert(equipmentTable).
		Columns("name", "description", "category_id", "subcategory_id", "inventory_number", "condition", "status",
			"storage_location", "performance", "quantity", "created_by", "created_at", "updated_at").
		Values(e.Name, e.Description, e.CategoryID, e.SubcategoryID, e.InventoryNumber, string(e.Condition), string(e.Status),
			e.StorageLocation, e.Performance, e.Quantity, e.CreatedBy, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса CreateEquipment: %w", err)
	}

	var id uint64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return nil, wrapPgError("CreateEquipment", err)
	}
	return r.FindEquipment(ctx, id)
}

func (r *equipmentRepository) UpdateEquipment(ctx context.Context, e entities.Equipment) (*entities.Equipment, error) {
	query, args, err := psql.Update(equipmentTable).
		Set("name", e.Name).
		Set("description", e.Description).
		Set("category_id", e.CategoryID).
		Set("subcategory_id", e.SubcategoryID).
		Set("inventory_number", e.InventoryNumber).
		Set("condition", string(e.Condition)).
		Set("status", string(e.Status)).
		Set("storage_location", e.StorageLocation).
		Set("performance", e.Performance).
		Set("quantity", e.Quantity).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": e.ID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса UpdateEquipment: %w", err)
	}
	return r.execAndReload(ctx, "UpdateEquipment", e.ID, query, args)
}

func (r *equipmentRepository) UpdateEquipmentLocation(ctx context.Context, id uint64, location string) (*entities.Equipment, error) {
	query, args, err := psql.Update(equipmentTable).
		Set("storage_location", location).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса UpdateEquipmentLocation: %w", err)
	}
	return r.execAndReload(ctx, "UpdateEquipmentLocation", id, query, args)
}

func (r *equipmentRepository) execAndReload(ctx context.Context, op string, id uint64, query string, args []interface{}) (*entities.Equipment, error) {
	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return nil, wrapPgError(op, err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}
	return r.FindEquipment(ctx, id)
}

func (r *equipmentRepository) DeleteEquipment(ctx context.Context, id uint64) error {
	query, args, err := psql.Delete(equipmentTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса DeleteEquipment: %w", err)
	}
	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return wrapPgError("DeleteEquipment", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
