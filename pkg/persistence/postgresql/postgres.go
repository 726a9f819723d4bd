// Package postgresql provides PostgreSQL persistence for flows and flow versions.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// querier is implemented by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db          *sql.DB
	logger      *slog.Logger
	flowRepo    *FlowRepository
	versionRepo *FlowVersionRepository
}

// NewPersistence connects to databaseURL and brings the schema up to date.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:          database,
		logger:      logger,
		flowRepo:    NewFlowRepository(database, logger),
		versionRepo: NewFlowVersionRepository(database, logger),
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Flows returns the flow repository.
func (p *Persistence) Flows() persistence.FlowRepository {
	return p.flowRepo
}

// Versions returns the flow version repository.
func (p *Persistence) Versions() persistence.FlowVersionRepository {
	return p.versionRepo
}

// Transaction runs fn inside a database transaction, committing when fn returns nil.
func (p *Persistence) Transaction(ctx context.Context, fn func(ctx context.Context, repos persistence.Repositories) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	repos := &txRepositories{
		flows:    NewFlowRepository(tx, p.logger),
		versions: NewFlowVersionRepository(tx, p.logger),
	}

	if err := fn(ctx, repos); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			p.logger.ErrorContext(ctx, "failed to rollback transaction", "error", rollbackErr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

type txRepositories struct {
	flows    *FlowRepository
	versions *FlowVersionRepository
}

func (r *txRepositories) Flows() persistence.FlowRepository {
	return r.flows
}

func (r *txRepositories) Versions() persistence.FlowVersionRepository {
	return r.versions
}
