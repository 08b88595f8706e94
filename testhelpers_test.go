package authentic_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/Ilopesr/authentic"
)

// setupTestDB opens a private in-memory database with the users table
// created.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	// a single connection keeps the shared in-memory db alive
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.NewCreateTable().
		Model((*authentic.User)(nil)).
		IfNotExists().
		Exec(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return db
}

func setupTestRepo(t *testing.T) authentic.RepositoryManager {
	t.Helper()
	return authentic.NewRepositoryManager(setupTestDB(t))
}

// setupTestRepoDB returns the manager together with the underlying
// handle for tests that need to pass an explicit bun.IDB.
func setupTestRepoDB(t *testing.T) (authentic.RepositoryManager, *bun.DB) {
	t.Helper()
	db := setupTestDB(t)
	return authentic.NewRepositoryManager(db), db
}

// seedUser inserts an account with a hashed password.
func seedUser(t *testing.T, repo authentic.RepositoryManager, user *authentic.User, password string) *authentic.User {
	t.Helper()

	if password != "" {
		hash, err := authentic.HashPassword(password)
		require.NoError(t, err)
		user.PasswordHash = hash
	}

	created, err := repo.Users().Register(context.Background(), user)
	require.NoError(t, err)

	return created
}

func testSettings() authentic.Settings {
	s := authentic.DefaultSettings()
	s.SigningKey = "test-signing-key"
	s.AccessTokenTTL = time.Minute * 5
	s.RefreshTokenTTL = time.Hour
	return s
}

func testStateTokens(s authentic.Settings) *authentic.StateTokenGenerator {
	return authentic.NewStateTokenGenerator(
		[]byte(s.SigningKey),
		authentic.WithStateTokenTTL(s.StateTokenTTL),
	)
}
