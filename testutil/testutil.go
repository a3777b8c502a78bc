// Package testutil prepares a throwaway Postgres database for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/Dosada05/boules-league/db"
)

const TestDatabaseEnv = "TEST_DATABASE_URL"

var tables = []string{
	"standings", "result_confirmations", "matches", "team_members",
	"teams", "registrations", "events", "users",
}

// SetupTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// every table. The test is skipped when the variable is unset.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv(TestDatabaseEnv)
	if dsn == "" {
		t.Skipf("%s is not set, skipping Postgres test", TestDatabaseEnv)
	}

	conn, err := db.Connect(dsn, 5*time.Second)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()
	if err := db.Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	for _, table := range tables {
		if _, err := conn.ExecContext(ctx, "TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE"); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	return conn
}
