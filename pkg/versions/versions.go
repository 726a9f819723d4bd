// Package versions produces immutable flow version snapshots and reads them back.
package versions

import (
	"context"
	"time"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/google/uuid"
)

// CodePrefix starts every version code.
const CodePrefix = "FLOWVERSION-"

// NewCode generates a fresh version code.
func NewCode() string {
	return CodePrefix + uuid.NewString()
}

// Snapshot deep copies the flow's graph into a new version named after the flow and
// attributed to its last modifier. Later edits to flow never reach the returned version.
func Snapshot(flow *models.Flow, code string, now time.Time) *models.FlowVersion {
	creator := flow.Modifier
	if creator == "" {
		creator = flow.Creator
	}

	return &models.FlowVersion{
		Code:             code,
		FlowCode:         flow.Code,
		Name:             flow.Name,
		Description:      flow.Description,
		Flow:             flow.Snapshot(),
		OrganizationCode: flow.OrganizationCode,
		Creator:          creator,
		CreatedAt:        now,
	}
}

// Store reads and appends versions. It never updates or deletes one.
type Store struct {
	repo persistence.FlowVersionRepository
}

// NewStore creates a Store over repo.
func NewStore(repo persistence.FlowVersionRepository) *Store {
	return &Store{repo: repo}
}

// Create appends a version.
func (s *Store) Create(ctx context.Context, version *models.FlowVersion) error {
	return s.repo.Create(ctx, version)
}

// GetByFlowCodeAndVersionCode returns a version or an error matching models.ErrNotFound.
func (s *Store) GetByFlowCodeAndVersionCode(ctx context.Context, flowCode, versionCode string) (*models.FlowVersion, error) {
	return s.repo.GetByFlowCodeAndCode(ctx, flowCode, versionCode)
}

// GetLastVersion returns the newest version or an error matching models.ErrNotFound.
func (s *Store) GetLastVersion(ctx context.Context, flowCode string) (*models.FlowVersion, error) {
	return s.repo.GetLastVersion(ctx, flowCode)
}

// List returns the versions of a flow, newest first.
func (s *Store) List(ctx context.Context, flowCode string) ([]*models.FlowVersion, error) {
	return s.repo.ListByFlowCode(ctx, flowCode)
}
