// Package database provides the tenant-scoped PostgreSQL store: a pgx
// connection pool, embedded golang-migrate migrations, and one
// repository per aggregate, each of which requires a TenantContext for
// every operation so a missing tenant scope is a compile error, not a
// runtime bug.
package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	stdsql "database/sql"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver for migrate

	"github.com/konetibalaji/benchsales-match/pkg/config"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrationsFS exposes the embedded migration files so tests can apply
// them against a scratch schema without duplicating the SQL.
func MigrationsFS() embed.FS { return migrationsFS }

// Store wraps the connection pool shared by every repository.
type Store struct {
	Pool *pgxpool.Pool

	Consultants  *ConsultantRepo
	Requirements *RequirementRepo
	Skills       *SkillRepo
	Ontology     *OntologyRepo
	Documents    *DocumentRepo
	Ingestions   *IngestionRepo
	SearchDocs   *SearchDocRepo
	Matches      *MatchRepo
	PIIVault     *PIIVaultRepo
	Analytics    *AnalyticsRepo
	Identity     *IdentityRepo
	Resumes      *ResumeRepo
}

// NewStore opens a pgxpool connection, applies migrations, and wires
// every repository against the shared pool.
func NewStore(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := runMigrations(cfg.DSN); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{
		Pool:         pool,
		Consultants:  &ConsultantRepo{pool: pool},
		Requirements: &RequirementRepo{pool: pool},
		Skills:       &SkillRepo{pool: pool},
		Ontology:     &OntologyRepo{pool: pool},
		Documents:    &DocumentRepo{pool: pool},
		Ingestions:   &IngestionRepo{pool: pool},
		SearchDocs:   &SearchDocRepo{pool: pool},
		Matches:      &MatchRepo{pool: pool},
		PIIVault:     &PIIVaultRepo{pool: pool},
		Analytics:    &AnalyticsRepo{pool: pool},
		Identity:     &IdentityRepo{pool: pool},
		Resumes:      &ResumeRepo{pool: pool},
	}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { s.Pool.Close() }

// runMigrations applies every pending embedded migration using the
// database/sql "pgx" driver golang-migrate needs, independent of the
// pgxpool connections repositories use for queries.
func runMigrations(dsn string) error {
	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating postgres migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return sourceDriver.Close()
}
