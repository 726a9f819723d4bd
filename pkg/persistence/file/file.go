// Package file provides file-based persistence for flows and flow versions.
//
// Flows live in {root}/flows/{code}.json; the versions of a flow are appended to
// {root}/versions/{flow code}.json in creation order.
package file

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/dukex/flowforge/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	store    *store
	flows    *FlowRepository
	versions *FlowVersionRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	s := &store{root: strings.Replace(root, "file://", "", 1)}

	return &Persistence{
		store:    s,
		flows:    &FlowRepository{store: s},
		versions: &FlowVersionRepository{store: s},
	}
}

// Flows returns the flow repository.
func (fp *Persistence) Flows() persistence.FlowRepository {
	return fp.flows
}

// Versions returns the flow version repository.
func (fp *Persistence) Versions() persistence.FlowVersionRepository {
	return fp.versions
}

// Transaction holds the store lock while fn runs and writes fn's changes only when it
// succeeds.
func (fp *Persistence) Transaction(ctx context.Context, fn func(ctx context.Context, repos persistence.Repositories) error) error {
	fp.store.mu.Lock()
	defer fp.store.mu.Unlock()

	tx := newTransaction(fp.store)
	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.commit()
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.store.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// store performs unlocked file operations; callers hold mu.
type store struct {
	root string
	mu   sync.Mutex
}
