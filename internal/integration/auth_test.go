package tests

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/gatekeeper/gatekeeper/internal/models"
	"github.com/gatekeeper/gatekeeper/internal/repo"
	"github.com/gatekeeper/gatekeeper/internal/revocation"
	"github.com/gatekeeper/gatekeeper/internal/service"
	"github.com/gatekeeper/gatekeeper/internal/tokens"
)

type integrationEnv struct {
	db    *gorm.DB
	rp    repo.GormRepo
	svc   *service.AuthService
	codec *tokens.Codec
	mail  *recordingMailer
}

type recordingMailer struct {
	activations []uint
	resets      []string
}

func (m *recordingMailer) DispatchActivationEmail(_ context.Context, userID uint) {
	m.activations = append(m.activations, userID)
}

func (m *recordingMailer) DispatchResetEmail(_ context.Context, email string) {
	m.resets = append(m.resets, email)
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	dsn := os.Getenv("AUTH_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("AUTH_TEST_DATABASE_URL is required for integration tests")
	}
	redisAddr := os.Getenv("AUTH_TEST_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("AUTH_TEST_REDIS_ADDR is required for integration tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Role{}, &models.User{}))

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	t.Cleanup(func() { _ = rdb.Close() })

	rp := repo.GormRepo{DB: db}
	require.NoError(t, rp.SeedRoles(context.Background()))

	codec := &tokens.Codec{
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	mail := &recordingMailer{}
	env := &integrationEnv{
		db:    db,
		rp:    rp,
		codec: codec,
		mail:  mail,
		svc: &service.AuthService{
			Repo:       rp,
			Codec:      codec,
			Cache:      revocation.NewCache(rdb),
			Mail:       mail,
			AccessTTL:  20 * time.Minute,
			RefreshTTL: 48 * time.Hour,
		},
	}

	t.Cleanup(func() {
		db.Exec("TRUNCATE TABLE users RESTART IDENTITY CASCADE")
	})

	return env
}

func uniqueUsername() string {
	return "u" + uuid.NewString()[:12]
}

func (env *integrationEnv) registerActive(t *testing.T, password string) (string, string) {
	t.Helper()

	username := uniqueUsername()
	email := username + "@gmail.com"
	user, err := env.svc.Register(context.Background(), username, email, password, password)
	require.NoError(t, err)

	confirm, err := env.codec.Issue(user.ID, time.Hour, tokens.KindConfirmation, "")
	require.NoError(t, err)
	require.NoError(t, env.svc.Confirm(context.Background(), confirm))

	return username, email
}

func TestRegisterConfirmLogin_FullFlow(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	username := uniqueUsername()
	email := username + "@gmail.com"
	user, err := env.svc.Register(ctx, username, email, "Secret123", "Secret123")
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.Contains(t, env.mail.activations, user.ID)

	// No tokens before confirmation.
	_, err = env.svc.Login(ctx, email, "Secret123")
	assert.ErrorIs(t, err, service.ErrInactiveAccount)

	confirm, err := env.codec.Issue(user.ID, time.Hour, tokens.KindConfirmation, "")
	require.NoError(t, err)
	require.NoError(t, env.svc.Confirm(ctx, confirm))

	pair, err := env.svc.Login(ctx, email, "Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := env.codec.Verify(pair.AccessToken, tokens.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "User", claims.Role)
}

func TestRefresh_RotationRevokesOldToken(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	_, email := env.registerActive(t, "Secret123")
	pair, err := env.svc.Login(ctx, email, "Secret123")
	require.NoError(t, err)

	oldClaims, err := env.codec.Verify(pair.RefreshToken, tokens.KindRefresh)
	require.NoError(t, err)

	rotated, err := env.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	revoked, err := env.svc.IsRevoked(ctx, oldClaims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	// Replay of the rotated-out token must fail.
	_, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, service.ErrTokenRevoked)
}

func TestRevokeAccess_DenylistedUntilExpiry(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	_, email := env.registerActive(t, "Secret123")
	pair, err := env.svc.Login(ctx, email, "Secret123")
	require.NoError(t, err)

	claims, err := env.codec.Verify(pair.AccessToken, tokens.KindAccess)
	require.NoError(t, err)

	require.NoError(t, env.svc.RevokeAccess(ctx, pair.AccessToken))

	revoked, err := env.svc.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestResetPassword_FullFlow(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	_, email := env.registerActive(t, "Secret123")

	env.svc.RequestPasswordReset(ctx, email)
	assert.Contains(t, env.mail.resets, email)

	user, err := env.rp.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	reset, err := env.codec.Issue(user.ID, time.Hour, tokens.KindReset, "")
	require.NoError(t, err)

	require.NoError(t, env.svc.ResetPassword(ctx, reset, "NewSecret123", "NewSecret123"))

	_, err = env.svc.Login(ctx, email, "Secret123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	pair, err := env.svc.Login(ctx, email, "NewSecret123")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}
