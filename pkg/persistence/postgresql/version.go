package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/lib/pq"
)

const versionColumns = `
	seq
  , code
  , flow_code
  , name
  , description
  , flow
  , organization_code
  , creator
  , created_at
`

// uniqueViolation is the PostgreSQL error code for a unique constraint violation.
const uniqueViolation = "23505"

// FlowVersionRepository handles flow version database operations.
type FlowVersionRepository struct {
	db     querier
	logger *slog.Logger
}

// NewFlowVersionRepository creates a new flow version repository over a database or a transaction.
func NewFlowVersionRepository(db querier, logger *slog.Logger) *FlowVersionRepository {
	return &FlowVersionRepository{db: db, logger: logger}
}

// Create inserts the version; its ID is the generated sequence number.
func (r *FlowVersionRepository) Create(ctx context.Context, version *models.FlowVersion) error {
	snapshotJSON, err := json.Marshal(version.Flow)
	if err != nil {
		return fmt.Errorf("failed to marshal version snapshot: %w", err)
	}

	query := `
		INSERT INTO flow_versions (code, flow_code, name, description, flow, organization_code, creator, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq
	`

	err = r.db.QueryRowContext(ctx, query,
		version.Code,
		version.FlowCode,
		version.Name,
		version.Description,
		string(snapshotJSON),
		version.OrganizationCode,
		version.Creator,
		version.CreatedAt,
	).Scan(&version.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewFlowVersionError("Create", version.FlowCode, version.Code, persistence.ErrFlowVersionExists)
		}

		return persistence.NewFlowVersionError("Create", version.FlowCode, version.Code, err)
	}

	return nil
}

// GetByFlowCodeAndCode returns one version of a flow.
func (r *FlowVersionRepository) GetByFlowCodeAndCode(ctx context.Context, flowCode, code string) (*models.FlowVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM flow_versions WHERE flow_code = $1 AND code = $2`

	version, err := scanVersion(r.db.QueryRowContext(ctx, query, flowCode, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewFlowVersionError("GetByFlowCodeAndCode", flowCode, code, persistence.ErrFlowVersionNotFound)
		}

		return nil, fmt.Errorf("failed to scan flow version: %w", err)
	}

	return version, nil
}

// GetLastVersion returns the most recently created version of a flow.
func (r *FlowVersionRepository) GetLastVersion(ctx context.Context, flowCode string) (*models.FlowVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM flow_versions WHERE flow_code = $1 ORDER BY seq DESC LIMIT 1`

	version, err := scanVersion(r.db.QueryRowContext(ctx, query, flowCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewFlowError("GetLastVersion", flowCode, persistence.ErrFlowVersionNotFound)
		}

		return nil, fmt.Errorf("failed to scan flow version: %w", err)
	}

	return version, nil
}

// ListByFlowCode returns the versions of a flow, newest first.
func (r *FlowVersionRepository) ListByFlowCode(ctx context.Context, flowCode string) ([]*models.FlowVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM flow_versions WHERE flow_code = $1 ORDER BY seq DESC`

	rows, err := r.db.QueryContext(ctx, query, flowCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow versions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	versions := make([]*models.FlowVersion, 0)

	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow version: %w", err)
		}

		versions = append(versions, version)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flow versions: %w", err)
	}

	return versions, nil
}

func scanVersion(row scanner) (*models.FlowVersion, error) {
	var (
		version      models.FlowVersion
		snapshotJSON []byte
	)

	err := row.Scan(
		&version.ID,
		&version.Code,
		&version.FlowCode,
		&version.Name,
		&version.Description,
		&snapshotJSON,
		&version.OrganizationCode,
		&version.Creator,
		&version.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(snapshotJSON, &version.Flow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal version snapshot: %w", err)
	}

	return &version, nil
}
