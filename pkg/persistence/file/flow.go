package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/google/uuid"
)

// FlowRepository handles flow-related file operations.
type FlowRepository struct {
	store *store
}

// GetByCode retrieves a flow by its code from the file system.
func (fr *FlowRepository) GetByCode(_ context.Context, code string) (*models.Flow, error) {
	fr.store.mu.Lock()
	defer fr.store.mu.Unlock()

	return fr.store.readFlow(code)
}

// Save writes the flow to the file system.
func (fr *FlowRepository) Save(_ context.Context, flow *models.Flow) error {
	fr.store.mu.Lock()
	defer fr.store.mu.Unlock()

	return fr.store.writeFlow(flow)
}

// Remove deletes the flow file. Removing a missing flow is not an error.
func (fr *FlowRepository) Remove(_ context.Context, flow *models.Flow) error {
	fr.store.mu.Lock()
	defer fr.store.mu.Unlock()

	return fr.store.deleteFlow(flow.Code)
}

// List returns the flows matching opts ordered by creation time, newest first.
func (fr *FlowRepository) List(_ context.Context, opts persistence.ListFlowsOptions) ([]*models.Flow, error) {
	fr.store.mu.Lock()
	defer fr.store.mu.Unlock()

	return fr.store.listFlows(opts)
}

func (s *store) flowPath(code string) string {
	return filepath.Clean(path.Join(s.root, "flows", code+".json"))
}

func (s *store) readFlow(code string) (*models.Flow, error) {
	body, err := os.ReadFile(s.flowPath(code))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewFlowError("GetByCode", code, persistence.ErrFlowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch flow %s: %w", code, err)
	}

	var flow models.Flow

	err = json.Unmarshal(body, &flow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow %s: %w", code, err)
	}

	return &flow, nil
}

func (s *store) writeFlow(flow *models.Flow) error {
	if flow.Code == "" {
		return fmt.Errorf("failed to save flow: code is empty")
	}

	err := os.MkdirAll(path.Join(s.root, "flows"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create flows directory: %w", err)
	}

	if flow.ID == "" {
		flow.ID = uuid.NewString()
	}

	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flow %s: %w", flow.Code, err)
	}

	return os.WriteFile(s.flowPath(flow.Code), data, 0600)
}

func (s *store) deleteFlow(code string) error {
	err := os.Remove(s.flowPath(code))

	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete flow %s: %w", code, err)
	}

	return nil
}

func (s *store) listFlows(opts persistence.ListFlowsOptions) ([]*models.Flow, error) {
	jsonFiles, err := fs.Glob(os.DirFS(path.Join(s.root, "flows")), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list flow files: %w", err)
	}

	flows := make([]*models.Flow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		flow, err := s.readFlow(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if opts.OrganizationCode != "" && flow.OrganizationCode != opts.OrganizationCode {
			continue
		}

		if opts.Type != "" && flow.Type != opts.Type {
			continue
		}

		flows = append(flows, flow)
	}

	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].CreatedAt.After(flows[j].CreatedAt)
	})

	return persistence.Page(flows, opts.Offset, opts.Limit), nil
}
