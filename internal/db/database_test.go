package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tokenauth/internal/models"
)

func TestOpen_SQLiteMemory_Migrates(t *testing.T) {
	ctx := context.Background()

	gdb, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	assert.True(t, gdb.Migrator().HasTable(&models.User{}))
	assert.True(t, gdb.Migrator().HasTable(&models.Token{}))
	assert.True(t, gdb.Migrator().HasIndex(&models.Token{}, "Token"))
	require.NoError(t, Ping(ctx, gdb))
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.db")

	gdb, err := Open(context.Background(), DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&models.User{Username: "alice", PasswordHash: "x"}).Error)
	require.NoError(t, Close(gdb))

	reopened, err := Open(context.Background(), DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(reopened) })

	var count int64
	require.NoError(t, reopened.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), DriverSQLite, "")
	require.Error(t, err)

	_, err = Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}
