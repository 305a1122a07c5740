package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/dto"
	"theater-warehouse/pkg/config"
	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/service"
	"theater-warehouse/pkg/utils"
)

func newAuthService(env *testEnv) AuthServiceInterface {
	cfg := config.AuthConfig{BcryptCost: 4, MaxLoginAttempts: 3, LockoutDuration: time.Minute}
	jwtSvc := service.NewJWTService("test-secret", time.Hour, zap.NewNop())
	return NewAuthService(env.store, env.cache, jwtSvc, env.pipeline, cfg, zap.NewNop())
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)
	ctx := context.Background()

	registered, err := auth.Register(ctx, dto.RegisterDTO{Username: "  stagehand ", Email: "Stage@Theater.COM", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "stagehand", registered.User.Username)
	assert.Equal(t, "stage@theater.com", registered.User.Email)
	assert.Equal(t, string(authz.RoleUser), registered.User.Role)
	assert.NotEmpty(t, registered.Token)

	stored, err := env.store.FindUserByUsername(ctx, "stagehand")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Password, "пароль хранится только в виде хеша")

	loggedIn, err := auth.Login(ctx, dto.LoginDTO{Username: "stagehand", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	actor, err := auth.Authenticate(ctx, loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, actor.UserID)
	assert.Equal(t, authz.RoleUser, actor.Role)

	me, err := auth.Me(utils.ContextWithActor(ctx, actor))
	require.NoError(t, err)
	assert.Equal(t, "stagehand", me.Username)
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)
	ctx := context.Background()

	_, err := auth.Register(ctx, dto.RegisterDTO{Username: "viewer", Email: "new@theater.test", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, http.StatusConflict, apperrors.StatusCode(err))

	_, err = auth.Register(ctx, dto.RegisterDTO{Username: "fresh", Email: "VIEWER@theater.test", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAuthService_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)
	ctx := context.Background()

	_, err := auth.Register(ctx, dto.RegisterDTO{Username: "props", Email: "props@theater.test", Password: "secret1"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, dto.LoginDTO{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusCode(err))

	for i := 0; i < 3; i++ {
		_, err = auth.Login(ctx, dto.LoginDTO{Username: "props", Password: "wrong"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	_, err = auth.Login(ctx, dto.LoginDTO{Username: "props", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrTooManyAttempts, "после блокировки не помогает даже верный пароль")
	assert.Equal(t, http.StatusTooManyRequests, apperrors.StatusCode(err))
}

func TestAuthService_SuccessfulLoginResetsAttempts(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)
	ctx := context.Background()

	_, err := auth.Register(ctx, dto.RegisterDTO{Username: "props", Email: "props@theater.test", Password: "secret1"})
	require.NoError(t, err)

	for round := 0; round < 3; round++ {
		for i := 0; i < 2; i++ {
			_, err = auth.Login(ctx, dto.LoginDTO{Username: "props", Password: "wrong"})
			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		}
		_, err = auth.Login(ctx, dto.LoginDTO{Username: "props", Password: "secret1"})
		require.NoError(t, err)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)
	ctx := context.Background()

	_, err := auth.Authenticate(ctx, "not-a-token")
	assert.Error(t, err)

	jwtSvc := service.NewJWTService("test-secret", time.Hour, zap.NewNop())
	orphan, err := jwtSvc.GenerateToken(999, "ghost", "admin")
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, orphan)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	// роль в токене не важна: берётся роль из хранилища
	viewer := env.users[authz.RoleViewer]
	forged, err := jwtSvc.GenerateToken(viewer.ID, viewer.Username, "admin")
	require.NoError(t, err)
	actor, err := auth.Authenticate(ctx, forged)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleViewer, actor.Role)
}

func TestAuthService_UpdateUserRole(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)
	admin := env.as(authz.RoleAdmin)
	viewer := env.users[authz.RoleViewer]

	updated, err := auth.UpdateUserRole(admin, viewer.ID, dto.UpdateRoleDTO{Role: "manager"})
	require.NoError(t, err)
	assert.Equal(t, authz.RoleManager, updated.Role)

	_, err = auth.UpdateUserRole(admin, viewer.ID, dto.UpdateRoleDTO{Role: "superuser"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = auth.UpdateUserRole(admin, env.users[authz.RoleAdmin].ID, dto.UpdateRoleDTO{Role: "viewer"})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "свою роль менять нельзя")

	_, err = auth.UpdateUserRole(admin, 999, dto.UpdateRoleDTO{Role: "viewer"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = auth.UpdateUserRole(env.as(authz.RoleManager), viewer.ID, dto.UpdateRoleDTO{Role: "admin"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	users, err := auth.GetUsers(admin)
	require.NoError(t, err)
	assert.Len(t, users, len(authz.Roles()))

	_, err = auth.GetUsers(env.as(authz.RoleUser))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	entries, err := env.history.GetRecent(admin, 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "смена роли не пишется в журнал оборудования")
}
