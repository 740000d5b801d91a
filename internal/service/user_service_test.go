package service

import (
	"context"
	"testing"

	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerReq(username, email string) RegisterRequest {
	return RegisterRequest{
		Username: username,
		Email:    email,
		Password: "hunter2secret",
		Role:     model.RoleStaff,
		FullName: "Test User",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, registerReq("warehouse1", "w1@chainsense.example"))
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, user.Role)

	auth, err := env.users.Login(ctx, LoginRequest{Email: "w1@chainsense.example", Password: "hunter2secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, auth.AccessToken)
	assert.NotEmpty(t, auth.RefreshToken)
	assert.Equal(t, user.ID, auth.User.ID)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, registerReq("warehouse1", "w1@chainsense.example"))
	require.NoError(t, err)

	_, err = env.users.Register(ctx, registerReq("warehouse1", "other@chainsense.example"))
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = env.users.Register(ctx, registerReq("warehouse2", "w1@chainsense.example"))
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, registerReq("warehouse1", "w1@chainsense.example"))
	require.NoError(t, err)

	_, err = env.users.Login(ctx, LoginRequest{Email: "w1@chainsense.example", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperror.KindAccessDenied, apperror.KindOf(err))

	_, err = env.users.Login(ctx, LoginRequest{Email: "nobody@chainsense.example", Password: "hunter2secret"})
	require.Error(t, err)
	assert.Equal(t, apperror.KindAccessDenied, apperror.KindOf(err))
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, registerReq("warehouse1", "w1@chainsense.example"))
	require.NoError(t, err)
	auth, err := env.users.Login(ctx, LoginRequest{Email: "w1@chainsense.example", Password: "hunter2secret"})
	require.NoError(t, err)

	refreshed, err := env.users.Refresh(ctx, auth.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, auth.RefreshToken, refreshed.RefreshToken)

	// The consumed token is dead
	_, err = env.users.Refresh(ctx, auth.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, apperror.KindAccessDenied, apperror.KindOf(err))
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, registerReq("warehouse1", "w1@chainsense.example"))
	require.NoError(t, err)
	auth, err := env.users.Login(ctx, LoginRequest{Email: "w1@chainsense.example", Password: "hunter2secret"})
	require.NoError(t, err)

	require.NoError(t, env.users.Logout(ctx, auth.RefreshToken))

	_, err = env.users.Refresh(ctx, auth.RefreshToken)
	require.Error(t, err)
}
