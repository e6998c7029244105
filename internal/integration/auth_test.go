package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/tokenauth/internal/db"
	"github.com/Skotchmaster/tokenauth/internal/hash"
	"github.com/Skotchmaster/tokenauth/internal/repo"
	"github.com/Skotchmaster/tokenauth/internal/service"
	"github.com/Skotchmaster/tokenauth/internal/tokens"
)

type integrationEnv struct {
	db  *gorm.DB
	svc *service.AuthService
	rp  *repo.GormRepo
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	dsn := os.Getenv("AUTH_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("AUTH_TEST_DATABASE_URL is required for tests")
	}

	gdb, err := db.Open(context.Background(), db.DriverPostgres, dsn)
	require.NoError(t, err)

	h, err := hash.New(bcrypt.MinCost)
	require.NoError(t, err)
	iss, err := tokens.NewIssuer([]byte("test-jwt-secret"), time.Hour)
	require.NoError(t, err)

	rp := &repo.GormRepo{DB: gdb}
	env := &integrationEnv{
		db:  gdb,
		rp:  rp,
		svc: service.NewAuthService(rp, h, iss, nil, nil),
	}

	t.Cleanup(func() {
		truncateTables(t, gdb)
		_ = db.Close(gdb)
	})

	return env
}

func truncateTables(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	gdb.Exec("TRUNCATE TABLE tokens, users RESTART IDENTITY CASCADE")
}

func uniqueUsername() string {
	return "u_" + uuid.NewString()
}

func TestAuthService_Signup_SuccessAndConflict(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	username := uniqueUsername()

	require.NoError(t, env.svc.Signup(ctx, username, "Secret123"))

	err := env.svc.Signup(ctx, username, "Secret123")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrDuplicateUser)
}

func TestAuthService_Login_SameSecondReusesToken(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	username := uniqueUsername()
	require.NoError(t, env.svc.Signup(ctx, username, "Secret123"))

	// both logins must land in the same second for the collision path
	for time.Now().Nanosecond() > 500*int(time.Millisecond) {
		time.Sleep(10 * time.Millisecond)
	}

	first, err := env.svc.Login(ctx, username, "Secret123")
	require.NoError(t, err)
	second, err := env.svc.Login(ctx, username, "Secret123")
	require.NoError(t, err)

	if first.ExpiresAt.Equal(second.ExpiresAt) {
		assert.Equal(t, first.AccessToken, second.AccessToken)
	}

	user, err := env.rp.FindUserByUsername(ctx, username)
	require.NoError(t, err)
	stored, err := env.rp.FindTokensByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored)
}

func TestAuthService_Logout_RemovesToken(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	username := uniqueUsername()
	require.NoError(t, env.svc.Signup(ctx, username, "Secret123"))

	res, err := env.svc.Login(ctx, username, "Secret123")
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, res.AccessToken))

	_, err = env.rp.FindTokenByValue(ctx, res.AccessToken)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, env.svc.Logout(ctx, res.AccessToken))
}
