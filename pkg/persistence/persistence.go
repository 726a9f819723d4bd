// Package persistence provides the storage abstraction for flows and their published versions.
package persistence

import (
	"context"

	"github.com/dukex/flowforge/pkg/models"
)

// ListFlowsOptions filters a flow listing. Zero values match everything.
type ListFlowsOptions struct {
	OrganizationCode string
	Type             models.FlowType
	Limit            int
	Offset           int
}

// FlowRepository stores live flows keyed by code.
type FlowRepository interface {
	// GetByCode returns ErrFlowNotFound when no flow has code.
	GetByCode(ctx context.Context, code string) (*models.Flow, error)
	// Save inserts or updates the flow, assigning ID on first save.
	Save(ctx context.Context, flow *models.Flow) error
	Remove(ctx context.Context, flow *models.Flow) error
	List(ctx context.Context, opts ListFlowsOptions) ([]*models.Flow, error)
}

// FlowVersionRepository stores published versions. It is append-only.
type FlowVersionRepository interface {
	// Create appends version, assigning ID. A duplicate code yields ErrFlowVersionExists.
	Create(ctx context.Context, version *models.FlowVersion) error
	GetByFlowCodeAndCode(ctx context.Context, flowCode, code string) (*models.FlowVersion, error)
	// GetLastVersion returns the most recently created version of the flow.
	GetLastVersion(ctx context.Context, flowCode string) (*models.FlowVersion, error)
	// ListByFlowCode returns the flow's versions, newest first.
	ListByFlowCode(ctx context.Context, flowCode string) ([]*models.FlowVersion, error)
}

// Repositories groups the repositories reachable inside and outside a transaction.
type Repositories interface {
	Flows() FlowRepository
	Versions() FlowVersionRepository
}

// Persistence is a storage backend.
type Persistence interface {
	Repositories

	// Transaction runs fn against repositories whose writes are committed only when fn
	// returns nil.
	Transaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// DefaultListLimit bounds listings that do not set a limit.
const DefaultListLimit = 100

// Page applies offset and limit to items. A zero limit means DefaultListLimit, a negative
// one means no limit.
func Page[T any](items []T, offset, limit int) []T {
	if limit == 0 {
		limit = DefaultListLimit
	}

	if limit < 0 {
		limit = len(items)
	}

	if offset >= len(items) {
		return []T{}
	}

	end := min(offset+limit, len(items))

	return items[max(offset, 0):end]
}
