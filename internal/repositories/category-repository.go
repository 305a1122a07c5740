package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"theater-warehouse/internal/entities"
	apperrors "theater-warehouse/pkg/errors"
)

const (
	categoryTable = "categories"
	// equipment_count считает оборудование, ссылающееся на категорию и как на category_id, и как на subcategory_id.
	categoryEquipmentCount = "(SELECT COUNT(*) FROM equipment e WHERE e.category_id = c.id OR e.subcategory_id = c.id) AS equipment_count"
)

var categoryColumns = []string{"c.id", "c.name", "c.parent_id", "c.created_at", categoryEquipmentCount}

type CategoryRepositoryInterface interface {
	GetCategories(ctx context.Context) ([]entities.Category, error)
	FindCategory(ctx context.Context, id uint64) (*entities.Category, error)
	FindCategoryByName(ctx context.Context, name string, placement entities.Placement) (*entities.Category, error)
	CreateCategory(ctx context.Context, category entities.Category) (*entities.Category, error)
	UpdateCategory(ctx context.Context, category entities.Category) (*entities.Category, error)
	DeleteCategory(ctx context.Context, id uint64) error
	CountChildren(ctx context.Context, id uint64) (int, error)
	CountEquipmentRefs(ctx context.Context, id uint64) (int, error)
}

type categoryRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCategoryRepository(storage *pgxpool.Pool, logger *zap.Logger) CategoryRepositoryInterface {
	return &categoryRepository{storage: storage, logger: logger}
}

func (r *categoryRepository) scanCategory(row pgx.Row) (*entities.Category, error) {
	var (
		c        entities.Category
		parentID *uint64
	)
	if err := row.Scan(&c.ID, &c.Name, &parentID, &c.CreatedAt, &c.EquipmentCount); err != nil {
		return nil, wrapPgError("scan categories", err)
	}
	c.Placement = entities.PlacementFromParent(parentID)
	return &c, nil
}

func (r *categoryRepository) findOne(ctx context.Context, querier Querier, where sq.Sqlizer) (*entities.Category, error) {
	query, args, err := psql.Select(categoryColumns...).From(categoryTable + " c").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для categories: %w", err)
	}
	return r.scanCategory(querier.QueryRow(ctx, query, args...))
}

func (r *categoryRepository) GetCategories(ctx context.Context) ([]entities.Category, error) {
	query, args, err := psql.Select(categoryColumns...).
		From(categoryTable+" c").
		OrderBy("c.parent_id IS NOT NULL", "c.name", "c.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для GetCategories: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgError("GetCategories", err)
	}
	defer rows.Close()

	categories := make([]entities.Category, 0)
	for rows.Next() {
		c, err := r.scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError("GetCategories", err)
	}
	return categories, nil
}

func (r *categoryRepository) FindCategory(ctx context.Context, id uint64) (*entities.Category, error) {
	return r.findOne(ctx, r.storage, sq.Eq{"c.id": id})
}

func (r *categoryRepository) FindCategoryByName(ctx context.Context, name string, placement entities.Placement) (*entities.Category, error) {
	return r.findOne(ctx, r.storage, sq.Eq{"c.name": name, "c.parent_id": placement.ParentPtr()})
}

func (r *categoryRepository) CreateCategory(ctx context.Context, category entities.Category) (*entities.Category, error) {
	query, args, err := psql.Insert(categoryTable).
		Columns("name", "parent_id", "created_at").
		Values(category.Name, category.Placement.ParentPtr(), sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса CreateCategory: %w", err)
	}

	var id uint64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return nil, wrapPgError("CreateCategory", err)
	}
	return r.FindCategory(ctx, id)
}

func (r *categoryRepository) UpdateCategory(ctx context.Context, category entities.Category) (*entities.Category, error) {
	query, args, err := psql.Update(categoryTable).
		Set("name", category.Name).
		Set("parent_id", category.Placement.ParentPtr()).
		Where(sq.Eq{"id": category.ID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса UpdateCategory: %w", err)
	}

	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return nil, wrapPgError("UpdateCategory", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}
	return r.FindCategory(ctx, category.ID)
}

// DeleteCategory повторяет проверки ссылок внутри транзакции, чтобы параллельная вставка оборудования не проскочила.
func (r *categoryRepository) DeleteCategory(ctx context.Context, id uint64) error {
	return WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT id FROM categories WHERE id = $1 FOR UPDATE", id); err != nil {
			return wrapPgError("DeleteCategory lock", err)
		}
		children, err := r.countChildren(ctx, tx, id)
		if err != nil {
			return err
		}
		refs, err := r.countEquipmentRefs(ctx, tx, id)
		if err != nil {
			return err
		}
		if children > 0 || refs > 0 {
			return fmt.Errorf("категория %d используется (подкатегорий: %d, оборудования: %d): %w", id, children, refs, apperrors.ErrConflict)
		}

		query, args, err := psql.Delete(categoryTable).Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("ошибка сборки запроса DeleteCategory: %w", err)
		}
		result, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return wrapPgError("DeleteCategory", err)
		}
		if result.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

func (r *categoryRepository) CountChildren(ctx context.Context, id uint64) (int, error) {
	return r.countChildren(ctx, r.storage, id)
}

func (r *categoryRepository) CountEquipmentRefs(ctx context.Context, id uint64) (int, error) {
	return r.countEquipmentRefs(ctx, r.storage, id)
}

func (r *categoryRepository) countChildren(ctx context.Context, querier Querier, id uint64) (int, error) {
	return r.count(ctx, querier, psql.Select("COUNT(*)").From(categoryTable).Where(sq.Eq{"parent_id": id}))
}

func (r *categoryRepository) countEquipmentRefs(ctx context.Context, querier Querier, id uint64) (int, error) {
	return r.count(ctx, querier, psql.Select("COUNT(*)").From(equipmentTable).
		Where(sq.Or{sq.Eq{"category_id": id}, sq.Eq{"subcategory_id": id}}))
}

func (r *categoryRepository) count(ctx context.Context, querier Querier, builder sq.SelectBuilder) (int, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки SQL count: %w", err)
	}
	var total int
	if err := querier.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, wrapPgError("count", err)
	}
	return total, nil
}
