//go:build integration

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reloquent/kvpview/internal/config"
	"github.com/reloquent/kvpview/internal/database"
)

const (
	rawSchema = "kvpview_it_raw"
	kvpSchema = "kvpview_it_kvp"
)

func dbConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	port, err := strconv.Atoi(envOrDefault("KVPVIEW_TEST_PG_PORT", "25432"))
	if err != nil {
		t.Fatalf("invalid KVPVIEW_TEST_PG_PORT: %v", err)
	}
	return config.DatabaseConfig{
		Host:     envOrDefault("KVPVIEW_TEST_PG_HOST", "localhost"),
		Port:     port,
		User:     envOrDefault("KVPVIEW_TEST_PG_USER", "postgres"),
		Password: envOrDefault("KVPVIEW_TEST_PG_PASSWORD", "postgres"),
		Name:     envOrDefault("KVPVIEW_TEST_PG_DATABASE", "kvpview_test"),
		SSLMode:  "disable",
	}
}

func skipIfNoPostgres(t *testing.T) {
	t.Helper()
	if os.Getenv("KVPVIEW_TEST_PG_HOST") == "" && os.Getenv("KVPVIEW_TEST_PG_PORT") == "" {
		t.Skip("skipping: KVPVIEW_TEST_PG_HOST/PORT not set")
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// connect returns the application's *sql.DB for the test database.
func connect(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Connect(context.Background(), dbConfig(t))
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// setupSource creates a source table and view with rows rows covering every
// column the default field catalog reads. The schemas are dropped on cleanup.
func setupSource(t *testing.T, rows int) {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbConfig(t).DSN())
	if err != nil {
		t.Fatalf("connect for setup: %v", err)
	}
	defer pool.Close()

	ddl := []string{
		`DROP SCHEMA IF EXISTS ` + kvpSchema + ` CASCADE`,
		`DROP SCHEMA IF EXISTS ` + rawSchema + ` CASCADE`,
		`CREATE SCHEMA ` + rawSchema,
		`CREATE SCHEMA ` + kvpSchema,
		`CREATE TABLE ` + rawSchema + `.arab_rankings (
			id INTEGER PRIMARY KEY,
			overall_rank_display TEXT,
			overall_score_display TEXT,
			overall_rank NUMERIC,
			overall_score NUMERIC,
			teaching_score NUMERIC,
			teaching_score_display TEXT,
			research_environment_score NUMERIC,
			research_environment_score_display TEXT,
			research_quality_score NUMERIC,
			research_quality_score_display TEXT,
			industry_score NUMERIC,
			industry_score_display TEXT,
			international_score NUMERIC,
			international_score_display TEXT,
			t1 NUMERIC, t2 NUMERIC, t3 NUMERIC, t4 NUMERIC, t5 NUMERIC,
			r1 NUMERIC, r2 NUMERIC, r3 NUMERIC,
			c1 NUMERIC, c2 NUMERIC, c3 NUMERIC, c4 NUMERIC,
			e1 NUMERIC, e2 NUMERIC,
			i1 NUMERIC, i2 NUMERIC, i3 NUMERIC, i4 NUMERIC
		)`,
		fmt.Sprintf(`INSERT INTO %s.arab_rankings
			SELECT g, g::text, (90 - g)::text, g, 90 - g,
				50, '50.0', 60, '60.0', 70, '70.0', 80, '80.0', 90, '90.0',
				1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18
			FROM generate_series(1, %d) AS g`, rawSchema, rows),
		`CREATE VIEW ` + rawSchema + `.arab_2026_source AS SELECT * FROM ` + rawSchema + `.arab_rankings`,
	}
	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}

	t.Cleanup(func() {
		pool, err := pgxpool.New(context.Background(), dbConfig(t).DSN())
		if err != nil {
			return
		}
		defer pool.Close()
		pool.Exec(context.Background(), `DROP SCHEMA IF EXISTS `+kvpSchema+` CASCADE`)
		pool.Exec(context.Background(), `DROP SCHEMA IF EXISTS `+rawSchema+` CASCADE`)
	})
}

func execSQL(t *testing.T, db *sql.DB, stmt string) {
	t.Helper()
	if _, err := db.Exec(stmt); err != nil {
		t.Fatalf("exec %q: %v", stmt, err)
	}
}

func viewDefinition(t *testing.T, db *sql.DB, name string) string {
	t.Helper()
	var def string
	err := db.QueryRow(`SELECT definition FROM pg_views WHERE schemaname = $1 AND viewname = $2`, kvpSchema, name).Scan(&def)
	if err != nil {
		t.Fatalf("reading definition of %s: %v", name, err)
	}
	return def
}
