package postgresql_test

import (
	"context"
	"os"
	"testing"

	"github.com/cmlabs-hris/ops-portal/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

const migrationPath = "../../../migrations/001_attendance.sql"

// newTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// the tables. Tests are skipped when no database is configured.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	schema, err := os.ReadFile(migrationPath)
	require.NoError(t, err)
	_, err = db.Exec(ctx, string(schema))
	require.NoError(t, err)

	_, err = db.Exec(ctx, "TRUNCATE TABLE attendance_records, office_settings")
	require.NoError(t, err)

	return db
}
