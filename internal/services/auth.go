package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/dto"
	"theater-warehouse/internal/entities"
	"theater-warehouse/internal/repositories"
	"theater-warehouse/pkg/config"
	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/service"
	"theater-warehouse/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Register(ctx context.Context, payload dto.RegisterDTO) (*dto.AuthResponseDTO, error)
	Authenticate(ctx context.Context, token string) (*authz.Actor, error)
	Me(ctx context.Context) (*entities.User, error)
	GetUsers(ctx context.Context) ([]entities.User, error)
	UpdateUserRole(ctx context.Context, id uint64, payload dto.UpdateRoleDTO) (*entities.User, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	jwtService service.JWTService
	pipeline   *MutationPipeline
	gatekeeper *authz.Gatekeeper
	cfg        config.AuthConfig
	logger     *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	pipeline *MutationPipeline,
	cfg config.AuthConfig,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
		pipeline:   pipeline,
		gatekeeper: authz.NewGatekeeper(),
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, strings.TrimSpace(payload.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewHttpError(http.StatusUnauthorized, "Неверное имя пользователя или пароль", apperrors.ErrInvalidCredentials, nil)
		}
		return nil, err
	}
	if err := s.checkLockout(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		s.handleFailedLoginAttempt(ctx, user.ID)
		return nil, apperrors.NewHttpError(http.StatusUnauthorized, "Неверное имя пользователя или пароль", apperrors.ErrInvalidCredentials, nil)
	}
	s.resetLoginAttempts(ctx, user.ID)

	s.logger.Info("пользователь вошёл в систему", zap.Uint64("userID", user.ID), zap.String("role", string(user.Role)))
	return s.issue(user)
}

// Register создаёт пользователя с ролью "user". Роль из запроса не принимается.
func (s *AuthService) Register(ctx context.Context, payload dto.RegisterDTO) (*dto.AuthResponseDTO, error) {
	username := strings.TrimSpace(payload.Username)
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	if _, err := s.userRepo.FindUserByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflictError("Пользователь с таким именем уже существует")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.FindUserByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflictError("Пользователь с таким email уже существует")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(payload.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.CreateUser(ctx, entities.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     authz.RoleUser,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.NewConflictError("Пользователь с таким именем или email уже существует")
		}
		return nil, err
	}

	s.logger.Info("зарегистрирован пользователь", zap.Uint64("userID", user.ID), zap.String("username", user.Username))
	return s.issue(user)
}

// Authenticate проверяет токен и перечитывает пользователя, чтобы роль всегда бралась из хранилища.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*authz.Actor, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, err
	}
	return &authz.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (s *AuthService) Me(ctx context.Context) (*entities.User, error) {
	actor, err := utils.GetActorFromContext(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	user, err := s.userRepo.FindUserByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("Пользователь не найден")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetUsers(ctx context.Context) ([]entities.User, error) {
	actor, _ := utils.GetActorFromContext(ctx)
	if err := s.gatekeeper.Authorize(actor, authz.ManageUsers); err != nil {
		return nil, err
	}
	return s.userRepo.GetUsers(ctx)
}

func (s *AuthService) UpdateUserRole(ctx context.Context, id uint64, payload dto.UpdateRoleDTO) (*entities.User, error) {
	role := authz.Role(payload.Role)

	var updated *entities.User
	_, err := s.pipeline.Run(ctx, Mutation{
		Name:       "user.role",
		Capability: authz.ManageUsers,
		Validate: func(ctx context.Context, actor *authz.Actor) error {
			if !role.IsValid() {
				return apperrors.NewValidationError(fmt.Sprintf("Неизвестная роль %q", payload.Role), nil)
			}
			if actor.UserID == id {
				return apperrors.NewValidationError("Нельзя изменить собственную роль", nil)
			}
			if _, err := s.userRepo.FindUserByID(ctx, id); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return apperrors.NewNotFoundError("Пользователь не найден")
				}
				return err
			}
			return nil
		},
		Persist: func(ctx context.Context, _ *authz.Actor) (*entities.HistoryEntry, error) {
			var err error
			updated, err = s.userRepo.UpdateUserRole(ctx, id, role)
			return nil, err
		},
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *AuthService) issue(user *entities.User) (*dto.AuthResponseDTO, error) {
	token, err := s.jwtService.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, apperrors.NewHttpError(http.StatusInternalServerError, "Не удалось выдать токен", err, nil)
	}
	return &dto.AuthResponseDTO{User: dto.UserToDTO(user), Token: token}, nil
}

func (s *AuthService) checkLockout(ctx context.Context, userID uint64) error {
	if _, err := s.cacheRepo.Get(ctx, fmt.Sprintf("lockout:%d", userID)); err == nil {
		return apperrors.NewHttpError(http.StatusTooManyRequests, "Слишком много неудачных попыток входа, попробуйте позже", apperrors.ErrTooManyAttempts, nil)
	}
	return nil
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, userID uint64) {
	if s.cfg.MaxLoginAttempts <= 0 {
		return
	}
	attemptsKey := fmt.Sprintf("login_attempts:%d", userID)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Warn("не удалось учесть неудачную попытку входа", zap.Uint64("userID", userID), zap.Error(err))
		return
	}
	if attempts == 1 {
		_, _ = s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration)
	}
	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		s.logger.Warn("учётная запись временно заблокирована", zap.Uint64("userID", userID))
		_ = s.cacheRepo.Set(ctx, fmt.Sprintf("lockout:%d", userID), "locked", s.cfg.LockoutDuration)
		_ = s.cacheRepo.Del(ctx, attemptsKey)
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, userID uint64) {
	_ = s.cacheRepo.Del(ctx, fmt.Sprintf("login_attempts:%d", userID), fmt.Sprintf("lockout:%d", userID))
}
