package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/google/uuid"
)

const flowColumns = `
	id
  , code
  , organization_code
  , name
  , description
  , icon
  , type
  , tool_set_id
  , nodes
  , edges
  , global_variable
  , enabled
  , version_code
  , creator
  , created_at
  , modifier
  , updated_at
`

type scanner interface {
	Scan(dest ...any) error
}

// FlowRepository handles flow-related database operations.
type FlowRepository struct {
	db     querier
	logger *slog.Logger
}

// NewFlowRepository creates a new flow repository over a database or a transaction.
func NewFlowRepository(db querier, logger *slog.Logger) *FlowRepository {
	return &FlowRepository{db: db, logger: logger}
}

// GetByCode returns the live flow with code.
func (r *FlowRepository) GetByCode(ctx context.Context, code string) (*models.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE code = $1 AND deleted_at IS NULL`

	flow, err := scanFlow(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewFlowError("GetByCode", code, persistence.ErrFlowNotFound)
		}

		return nil, fmt.Errorf("failed to scan flow: %w", err)
	}

	return flow, nil
}

// Save upserts the flow by code.
func (r *FlowRepository) Save(ctx context.Context, flow *models.Flow) error {
	if flow.Code == "" {
		return fmt.Errorf("failed to save flow: code is empty")
	}

	if flow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate flow ID: %w", err)
		}

		flow.ID = id.String()
	}

	nodesJSON, err := json.Marshal(nonNil(flow.Nodes))
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}

	edgesJSON, err := json.Marshal(nonNil(flow.Edges))
	if err != nil {
		return fmt.Errorf("failed to marshal edges: %w", err)
	}

	var globalVariable any
	if flow.GlobalVariable != nil {
		data, err := json.Marshal(flow.GlobalVariable)
		if err != nil {
			return fmt.Errorf("failed to marshal global variable: %w", err)
		}

		globalVariable = string(data)
	}

	query := `
		INSERT INTO flows (` + flowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			icon = EXCLUDED.icon,
			type = EXCLUDED.type,
			tool_set_id = EXCLUDED.tool_set_id,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			global_variable = EXCLUDED.global_variable,
			enabled = EXCLUDED.enabled,
			version_code = EXCLUDED.version_code,
			modifier = EXCLUDED.modifier,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
		RETURNING id
	`

	err = r.db.QueryRowContext(ctx, query,
		flow.ID,
		flow.Code,
		flow.OrganizationCode,
		flow.Name,
		flow.Description,
		flow.Icon,
		string(flow.Type),
		flow.ToolSetID,
		string(nodesJSON),
		string(edgesJSON),
		globalVariable,
		flow.Enabled,
		flow.VersionCode,
		flow.Creator,
		flow.CreatedAt,
		flow.Modifier,
		flow.UpdatedAt,
	).Scan(&flow.ID)
	if err != nil {
		return persistence.NewFlowError("Save", flow.Code, err)
	}

	return nil
}

// Remove soft deletes the flow by setting its deleted_at timestamp.
func (r *FlowRepository) Remove(ctx context.Context, flow *models.Flow) error {
	query := `UPDATE flows SET deleted_at = NOW() WHERE code = $1 AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, flow.Code)
	if err != nil {
		return persistence.NewFlowError("Remove", flow.Code, err)
	}

	return nil
}

// List returns the live flows matching opts, newest first.
func (r *FlowRepository) List(ctx context.Context, opts persistence.ListFlowsOptions) ([]*models.Flow, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := make([]any, 0, 4)

	if opts.OrganizationCode != "" {
		args = append(args, opts.OrganizationCode)
		conditions = append(conditions, fmt.Sprintf("organization_code = $%d", len(args)))
	}

	if opts.Type != "" {
		args = append(args, string(opts.Type))
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}

	query := `SELECT ` + flowColumns + ` FROM flows WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY created_at DESC, code`

	limit := opts.Limit
	if limit == 0 {
		limit = persistence.DefaultListLimit
	}

	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	flows := make([]*models.Flow, 0)

	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}

		flows = append(flows, flow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flows: %w", err)
	}

	return flows, nil
}

func scanFlow(row scanner) (*models.Flow, error) {
	var (
		flow           models.Flow
		flowType       string
		nodesJSON      []byte
		edgesJSON      []byte
		globalVariable []byte
	)

	err := row.Scan(
		&flow.ID,
		&flow.Code,
		&flow.OrganizationCode,
		&flow.Name,
		&flow.Description,
		&flow.Icon,
		&flowType,
		&flow.ToolSetID,
		&nodesJSON,
		&edgesJSON,
		&globalVariable,
		&flow.Enabled,
		&flow.VersionCode,
		&flow.Creator,
		&flow.CreatedAt,
		&flow.Modifier,
		&flow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	flow.Type = models.FlowType(flowType)

	if err := json.Unmarshal(nodesJSON, &flow.Nodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}

	if err := json.Unmarshal(edgesJSON, &flow.Edges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
	}

	if len(globalVariable) > 0 {
		if err := json.Unmarshal(globalVariable, &flow.GlobalVariable); err != nil {
			return nil, fmt.Errorf("failed to unmarshal global variable: %w", err)
		}
	}

	return &flow, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}
