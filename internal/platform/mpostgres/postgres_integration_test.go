//go:build integration

package mpostgres_test

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sremani/artifortress/internal/platform/mpostgres"
)

// migrationsDir resolves migrations/ relative to this file, so the test
// runs the real schema regardless of the caller's working directory.
func migrationsDir(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to resolve caller for migrations path")
	}

	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "migrations")
}

// setupContainer starts a disposable Postgres and returns a connected
// Connection with the real migrations applied against it, exercising the
// schema (triggers, partial unique indexes, FKs) rather than a mock.
func setupContainer(t *testing.T) *mpostgres.Connection {
	t.Helper()

	ctx := context.Background()

	const dbName, dbUser, dbPass = "artifortress_test", "artifortress", "artifortress"

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       dbName,
			"POSTGRES_USER":     dbUser,
			"POSTGRES_PASSWORD": dbPass,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections"),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}

	port, err := ctr.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPass, host, port.Port(), dbName)

	conn := &mpostgres.Connection{
		ConnectionStringPrimary: dsn,
		ConnectionStringReplica: dsn,
		PrimaryDBName:           dbName,
		MigrationsPath:          migrationsDir(t),
	}

	if err := conn.Connect(); err != nil {
		t.Fatalf("failed to connect and migrate: %v", err)
	}

	return conn
}

// TestIntegration_Migrations_ApplyAgainstRealPostgres proves the schema in
// migrations/000001_initial_schema.up.sql applies cleanly and enforces the
// invariants it declares: a tenant row round-trips, and a published
// package_version cannot be mutated by the deny_published_version_mutation
// trigger.
func TestIntegration_Migrations_ApplyAgainstRealPostgres(t *testing.T) {
	conn := setupContainer(t)

	ctx := context.Background()

	db, err := conn.GetDB(ctx)
	if err != nil {
		t.Fatalf("failed to get database handle: %v", err)
	}

	tenantID := "11111111-1111-1111-1111-111111111111"

	if _, err := db.ExecContext(ctx,
		`INSERT INTO tenants (id, slug, name) VALUES ($1, 'acme', 'Acme Corp')`, tenantID); err != nil {
		t.Fatalf("failed to insert tenant: %v", err)
	}

	var slug string
	if err := db.QueryRowContext(ctx, `SELECT slug FROM tenants WHERE id = $1`, tenantID).Scan(&slug); err != nil {
		t.Fatalf("failed to read back tenant: %v", err)
	}

	if slug != "acme" {
		t.Fatalf("expected slug acme, got %s", slug)
	}

	repoID := "22222222-2222-2222-2222-222222222222"
	if _, err := db.ExecContext(ctx,
		`INSERT INTO repositories (id, tenant_id, repo_key, type) VALUES ($1, $2, 'releases', 'local')`,
		repoID, tenantID); err != nil {
		t.Fatalf("failed to insert repository: %v", err)
	}

	packageID := "33333333-3333-3333-3333-333333333333"
	if _, err := db.ExecContext(ctx,
		`INSERT INTO packages (id, tenant_id, repo_id, package_type, name) VALUES ($1, $2, $3, 'generic', 'widget')`,
		packageID, tenantID, repoID); err != nil {
		t.Fatalf("failed to insert package: %v", err)
	}

	versionID := "44444444-4444-4444-4444-444444444444"
	if _, err := db.ExecContext(ctx,
		`INSERT INTO package_versions (id, tenant_id, repo_id, package_id, version, state, created_by)
		 VALUES ($1, $2, $3, $4, '1.0.0', 'published', 'tester')`,
		versionID, tenantID, repoID, packageID); err != nil {
		t.Fatalf("failed to insert published version: %v", err)
	}

	_, err = db.ExecContext(ctx, `UPDATE package_versions SET version = '2.0.0' WHERE id = $1`, versionID)
	if err == nil {
		t.Fatal("expected deny_published_version_mutation trigger to reject identity-field mutation")
	}
}
