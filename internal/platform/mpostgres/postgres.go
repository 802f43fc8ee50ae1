// Package mpostgres owns the primary/replica Postgres connection pool and
// schema-migration bootstrap shared by every repository in
// internal/adapters/postgres.
package mpostgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Connection is a hub dealing with primary/replica Postgres connections.
type Connection struct {
	ConnectionStringPrimary string
	ConnectionStringReplica string
	PrimaryDBName           string
	MigrationsPath          string

	connectionDB *dbresolver.DB
	connected    bool
}

// Connect opens the primary and replica pools, runs pending migrations
// against the primary, and pings the resolver.
func (c *Connection) Connect() error {
	dbPrimary, err := sql.Open("pgx", c.ConnectionStringPrimary)
	if err != nil {
		return fmt.Errorf("open primary database: %w", err)
	}

	dbReplica, err := sql.Open("pgx", c.ConnectionStringReplica)
	if err != nil {
		return fmt.Errorf("open replica database: %w", err)
	}

	connectionDB := dbresolver.New(
		dbresolver.WithPrimaryDBs(dbPrimary),
		dbresolver.WithReplicaDBs(dbReplica),
		dbresolver.WithLoadBalancer(dbresolver.RoundRobinLB),
	)

	if c.MigrationsPath != "" {
		driver, err := postgres.WithInstance(dbPrimary, &postgres.Config{
			MultiStatementEnabled: true,
			DatabaseName:          c.PrimaryDBName,
			SchemaName:            "public",
		})
		if err != nil {
			return fmt.Errorf("build migration driver: %w", err)
		}

		m, err := migrate.NewWithDatabaseInstance("file://"+c.MigrationsPath, c.PrimaryDBName, driver)
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	if err := connectionDB.Ping(); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	c.connectionDB = &connectionDB
	c.connected = true

	return nil
}

// GetDB returns the resolver, connecting lazily on first use.
func (c *Connection) GetDB(ctx context.Context) (dbresolver.DB, error) {
	if c.connectionDB == nil {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	return *c.connectionDB, nil
}

// Connected reports whether the pool has been successfully established.
func (c *Connection) Connected() bool { return c.connected }

// BeginTx starts a transaction against the primary, for the multi-statement
// bodies of the Publish Engine, the GC engine, and the outbox/search-job
// claim queries (spec.md §4, §5 — row-level FOR UPDATE / FOR UPDATE SKIP
// LOCKED only has meaning within one transaction).
func (c *Connection) BeginTx(ctx context.Context) (*sql.Tx, error) {
	db, err := c.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	return db.BeginTx(ctx, nil)
}

// DBTX is satisfied by both dbresolver.DB and *sql.Tx, letting repository
// methods run either directly against the pool or inside a caller-owned
// transaction without duplicating their SQL.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
