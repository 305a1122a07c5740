package repositories

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "theater-warehouse/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// wrapPgError переводит ошибки драйвера в классы ошибок приложения.
func wrapPgError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: нарушение уникальности (%s): %w", op, pgErr.ConstraintName, apperrors.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: нарушение ссылочной целостности (%s): %w", op, pgErr.ConstraintName, apperrors.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, apperrors.ErrStorage, err)
}
