//go:build integration

package session

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPGStoreLifecycle exercises Save/Load against a real PostgreSQL
// database: empty load, first save, overwrite, nil-field overwrite.
func TestPGStoreLifecycle(t *testing.T) {
	ctx := context.Background()

	connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	store := NewPGStore(pool)

	// --- 1. Load before any save: all-nil record ---
	rec, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if rec.SessionID != nil || rec.BusinessID != nil {
		t.Fatalf("expected empty record, got %+v", rec)
	}

	// --- 2. First save ---
	sid, bid := int64(9), int64(1)
	if err := store.Save(ctx, PersistedSession{SessionID: &sid, BusinessID: &bid}); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	if rec.SessionID == nil || *rec.SessionID != 9 || rec.BusinessID == nil || *rec.BusinessID != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// --- 3. Overwrite is wholesale, last writer wins ---
	sid2, bid2 := int64(14), int64(2)
	if err := store.Save(ctx, PersistedSession{SessionID: &sid2, BusinessID: &bid2}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	rec, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load after overwrite: %v", err)
	}
	if rec.SessionID == nil || *rec.SessionID != 14 || rec.BusinessID == nil || *rec.BusinessID != 2 {
		t.Fatalf("unexpected record after overwrite: %+v", rec)
	}

	// --- 4. Nil fields overwrite too (no field-by-field merge) ---
	if err := store.Save(ctx, PersistedSession{BusinessID: &bid}); err != nil {
		t.Fatalf("save nil session: %v", err)
	}

	rec, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load after nil save: %v", err)
	}
	if rec.SessionID != nil {
		t.Fatalf("session id should be nil after overwrite, got %v", *rec.SessionID)
	}
	if rec.BusinessID == nil || *rec.BusinessID != 1 {
		t.Fatalf("unexpected business id: %+v", rec)
	}
}

func setupPostgresContainer(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("qr_test"),
		tcpostgres.WithUsername("qr"),
		tcpostgres.WithPassword("qr"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this package directory (internal/session/).
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
}
