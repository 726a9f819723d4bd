package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/google/uuid"
)

// FlowVersionRepository handles flow version file operations.
type FlowVersionRepository struct {
	store *store
}

// Create appends the version to its flow's version file.
func (vr *FlowVersionRepository) Create(_ context.Context, version *models.FlowVersion) error {
	vr.store.mu.Lock()
	defer vr.store.mu.Unlock()

	versions, err := vr.store.readVersions(version.FlowCode)
	if err != nil {
		return err
	}

	return vr.store.appendVersions(version.FlowCode, versions, version)
}

// GetByFlowCodeAndCode retrieves one version of a flow.
func (vr *FlowVersionRepository) GetByFlowCodeAndCode(_ context.Context, flowCode, code string) (*models.FlowVersion, error) {
	vr.store.mu.Lock()
	defer vr.store.mu.Unlock()

	versions, err := vr.store.readVersions(flowCode)
	if err != nil {
		return nil, err
	}

	return findVersion(versions, flowCode, code)
}

// GetLastVersion retrieves the most recently created version of a flow.
func (vr *FlowVersionRepository) GetLastVersion(_ context.Context, flowCode string) (*models.FlowVersion, error) {
	vr.store.mu.Lock()
	defer vr.store.mu.Unlock()

	versions, err := vr.store.readVersions(flowCode)
	if err != nil {
		return nil, err
	}

	return lastVersion(versions, flowCode)
}

// ListByFlowCode returns the versions of a flow, newest first.
func (vr *FlowVersionRepository) ListByFlowCode(_ context.Context, flowCode string) ([]*models.FlowVersion, error) {
	vr.store.mu.Lock()
	defer vr.store.mu.Unlock()

	versions, err := vr.store.readVersions(flowCode)
	if err != nil {
		return nil, err
	}

	slices.Reverse(versions)

	return versions, nil
}

func findVersion(versions []*models.FlowVersion, flowCode, code string) (*models.FlowVersion, error) {
	for _, version := range versions {
		if version.Code == code {
			return version, nil
		}
	}

	return nil, persistence.NewFlowVersionError("GetByFlowCodeAndCode", flowCode, code, persistence.ErrFlowVersionNotFound)
}

func lastVersion(versions []*models.FlowVersion, flowCode string) (*models.FlowVersion, error) {
	if len(versions) == 0 {
		return nil, persistence.NewFlowError("GetLastVersion", flowCode, persistence.ErrFlowVersionNotFound)
	}

	return versions[len(versions)-1], nil
}

func (s *store) versionsPath(flowCode string) string {
	return filepath.Clean(path.Join(s.root, "versions", flowCode+".json"))
}

func (s *store) readVersions(flowCode string) ([]*models.FlowVersion, error) {
	body, err := os.ReadFile(s.versionsPath(flowCode))
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.FlowVersion{}, nil
		}

		return nil, fmt.Errorf("failed to fetch versions of flow %s: %w", flowCode, err)
	}

	var versions []*models.FlowVersion

	err = json.Unmarshal(body, &versions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal versions of flow %s: %w", flowCode, err)
	}

	return versions, nil
}

// appendVersions writes existing followed by added, rejecting duplicate codes.
func (s *store) appendVersions(flowCode string, existing []*models.FlowVersion, added ...*models.FlowVersion) error {
	for _, version := range added {
		if _, err := findVersion(existing, flowCode, version.Code); err == nil {
			return persistence.NewFlowVersionError("Create", flowCode, version.Code, persistence.ErrFlowVersionExists)
		}

		if version.ID == "" {
			version.ID = uuid.NewString()
		}

		existing = append(existing, version)
	}

	err := os.MkdirAll(path.Join(s.root, "versions"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create versions directory: %w", err)
	}

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal versions of flow %s: %w", flowCode, err)
	}

	return os.WriteFile(s.versionsPath(flowCode), data, 0600)
}
