package sqlxstore

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/zugate/teacherdash/storage/database"
	"github.com/zugate/teacherdash/tests"
)

// TEST_DATABASE_ENGINE and TEST_DATABASE_DSN select a live database; the tests are skipped without them.
func openTestDB(t *testing.T) *sqlx.DB {
	engine, dsn := os.Getenv("TEST_DATABASE_ENGINE"), os.Getenv("TEST_DATABASE_DSN")
	if engine == "" || dsn == "" {
		t.Skip("TEST_DATABASE_ENGINE / TEST_DATABASE_DSN not set")
	}
	db, err := sqlx.Connect(engine, dsn)
	if err != nil {
		t.Fatalf("sqlx.Connect() failed: %v", err)
	}
	if err = database.EnsureSchema(db); err != nil {
		t.Fatalf("EnsureSchema() failed: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM session_token`)
		_ = db.Close()
	})
	return db
}

func TestTokenStore(t *testing.T) {
	db := openTestDB(t)
	testutil.CheckTokenStore(t, NewTokenStore(db, "test-token"))
}
