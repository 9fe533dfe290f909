package service

import (
	"testing"
	"time"

	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(env *testEnv) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "unit-test-secret-at-least-32-chars!!"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(env.repos.user, cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	user := &model.User{Name: "张三", Email: "zhangsan@test.com", Password: "s3cret-pass"}
	require.NoError(t, auth.Register(user))

	// 密码落库前已被散列
	stored, err := env.repos.user.FindByEmail("zhangsan@test.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.Password)
	assert.Equal(t, model.Student, stored.Role)

	token, loggedIn, err := auth.Login("zhangsan@test.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, loggedIn.ID)

	claims, err := util.ParseJWT(token, "unit-test-secret-at-least-32-chars!!")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.UserID)
	assert.Equal(t, model.Student, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	require.NoError(t, auth.Register(&model.User{Name: "A", Email: "dup@test.com", Password: "pass-one"}))
	err := auth.Register(&model.User{Name: "B", Email: "dup@test.com", Password: "pass-two"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestLoginRejections(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	require.NoError(t, auth.Register(&model.User{Name: "C", Email: "reject@test.com", Password: "right-pass"}))

	_, _, err := auth.Login("reject@test.com", "wrong-pass")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, _, err = auth.Login("nobody@test.com", "whatever")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	// 停用账号即使密码正确也拒绝登录
	user, err := env.repos.user.FindByEmail("reject@test.com")
	require.NoError(t, err)
	require.NoError(t, env.repos.user.SetDisabled(user.ID, true))

	_, _, err = auth.Login("reject@test.com", "right-pass")
	assert.ErrorIs(t, err, util.ErrAccountDisabled)
}

func TestUpdateTimerPreference(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)
	user := env.seedUser(t, "timer@test.com")

	require.NoError(t, auth.UpdateTimerPreference(user.ID, false))

	updated, err := env.repos.user.FindByID(user.ID)
	require.NoError(t, err)
	assert.False(t, updated.TimerEnabled)

	assert.ErrorIs(t, auth.UpdateTimerPreference(9999, true), util.ErrUserNotFound)
}
