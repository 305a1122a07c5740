package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/entities"
)

const (
	userTable  = "users"
	userFields = "id, username, email, password, role, created_at, updated_at"
)

type UserRepositoryInterface interface {
	CreateUser(ctx context.Context, user entities.User) (*entities.User, error)
	FindUserByID(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByUsername(ctx context.Context, username string) (*entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
	GetUsers(ctx context.Context) ([]entities.User, error)
	UpdateUserRole(ctx context.Context, id uint64, role authz.Role) (*entities.User, error)
}

type userRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &userRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, wrapPgError("scan users", err)
	}
	return &u, nil
}

func (r *userRepository) findOne(ctx context.Context, where sq.Eq) (*entities.User, error) {
	query, args, err := psql.Select(userFields).From(userTable).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для users: %w", err)
	}
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

func (r *userRepository) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	query, args, err := psql.Insert(userTable).
		Columns("username", "email", "password", "role", "created_at", "updated_at").
		Values(user.Username, user.Email, user.Password, string(user.Role), sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING " + userFields).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса CreateUser: %w", err)
	}
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

func (r *userRepository) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

func (r *userRepository) FindUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, sq.Eq{"username": username})
}

func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, sq.Eq{"email": email})
}

func (r *userRepository) GetUsers(ctx context.Context) ([]entities.User, error) {
	query, args, err := psql.Select(userFields).From(userTable).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для GetUsers: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgError("GetUsers", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, wrapPgError("GetUsers", rows.Err())
}

func (r *userRepository) UpdateUserRole(ctx context.Context, id uint64, role authz.Role) (*entities.User, error) {
	query, args, err := psql.Update(userTable).
		Set("role", string(role)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + userFields).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса UpdateUserRole: %w", err)
	}
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}
