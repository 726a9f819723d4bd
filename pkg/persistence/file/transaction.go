package file

import (
	"context"
	"fmt"
	"slices"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/google/uuid"
)

// transaction buffers writes in memory. Reads see the buffered state layered over the
// files. It runs with the store lock held.
type transaction struct {
	store    *store
	flows    map[string]*models.Flow // nil value marks a removal
	order    []string
	versions map[string][]*models.FlowVersion
}

func newTransaction(s *store) *transaction {
	return &transaction{
		store:    s,
		flows:    make(map[string]*models.Flow),
		versions: make(map[string][]*models.FlowVersion),
	}
}

func (tx *transaction) Flows() persistence.FlowRepository {
	return &txFlows{tx: tx}
}

func (tx *transaction) Versions() persistence.FlowVersionRepository {
	return &txVersions{tx: tx}
}

func (tx *transaction) commit() error {
	for _, code := range tx.order {
		flow := tx.flows[code]
		if flow == nil {
			if err := tx.store.deleteFlow(code); err != nil {
				return err
			}

			continue
		}

		if err := tx.store.writeFlow(flow); err != nil {
			return err
		}
	}

	for flowCode, added := range tx.versions {
		existing, err := tx.store.readVersions(flowCode)
		if err != nil {
			return err
		}

		if err := tx.store.appendVersions(flowCode, existing, added...); err != nil {
			return err
		}
	}

	return nil
}

func (tx *transaction) stage(code string, flow *models.Flow) {
	if _, ok := tx.flows[code]; !ok {
		tx.order = append(tx.order, code)
	}

	tx.flows[code] = flow
}

type txFlows struct {
	tx *transaction
}

func (f *txFlows) GetByCode(_ context.Context, code string) (*models.Flow, error) {
	if flow, ok := f.tx.flows[code]; ok {
		if flow == nil {
			return nil, persistence.NewFlowError("GetByCode", code, persistence.ErrFlowNotFound)
		}

		return flow.Clone(), nil
	}

	return f.tx.store.readFlow(code)
}

func (f *txFlows) Save(_ context.Context, flow *models.Flow) error {
	if flow.Code == "" {
		return fmt.Errorf("failed to save flow: code is empty")
	}

	if flow.ID == "" {
		flow.ID = uuid.NewString()
	}

	f.tx.stage(flow.Code, flow.Clone())

	return nil
}

func (f *txFlows) Remove(_ context.Context, flow *models.Flow) error {
	f.tx.stage(flow.Code, nil)

	return nil
}

func (f *txFlows) List(_ context.Context, opts persistence.ListFlowsOptions) ([]*models.Flow, error) {
	stored, err := f.tx.store.listFlows(persistence.ListFlowsOptions{
		OrganizationCode: opts.OrganizationCode,
		Type:             opts.Type,
		Limit:            -1,
	})
	if err != nil {
		return nil, err
	}

	flows := make([]*models.Flow, 0, len(stored))

	for _, flow := range stored {
		if _, staged := f.tx.flows[flow.Code]; !staged {
			flows = append(flows, flow)
		}
	}

	for _, code := range f.tx.order {
		flow := f.tx.flows[code]
		if flow == nil {
			continue
		}

		if opts.OrganizationCode != "" && flow.OrganizationCode != opts.OrganizationCode {
			continue
		}

		if opts.Type != "" && flow.Type != opts.Type {
			continue
		}

		flows = append(flows, flow.Clone())
	}

	return persistence.Page(flows, opts.Offset, opts.Limit), nil
}

type txVersions struct {
	tx *transaction
}

func (v *txVersions) all(flowCode string) ([]*models.FlowVersion, error) {
	stored, err := v.tx.store.readVersions(flowCode)
	if err != nil {
		return nil, err
	}

	return append(stored, v.tx.versions[flowCode]...), nil
}

func (v *txVersions) Create(_ context.Context, version *models.FlowVersion) error {
	versions, err := v.all(version.FlowCode)
	if err != nil {
		return err
	}

	if _, err := findVersion(versions, version.FlowCode, version.Code); err == nil {
		return persistence.NewFlowVersionError("Create", version.FlowCode, version.Code, persistence.ErrFlowVersionExists)
	}

	if version.ID == "" {
		version.ID = uuid.NewString()
	}

	v.tx.versions[version.FlowCode] = append(v.tx.versions[version.FlowCode], version)

	return nil
}

func (v *txVersions) GetByFlowCodeAndCode(_ context.Context, flowCode, code string) (*models.FlowVersion, error) {
	versions, err := v.all(flowCode)
	if err != nil {
		return nil, err
	}

	return findVersion(versions, flowCode, code)
}

func (v *txVersions) GetLastVersion(_ context.Context, flowCode string) (*models.FlowVersion, error) {
	versions, err := v.all(flowCode)
	if err != nil {
		return nil, err
	}

	return lastVersion(versions, flowCode)
}

func (v *txVersions) ListByFlowCode(_ context.Context, flowCode string) ([]*models.FlowVersion, error) {
	versions, err := v.all(flowCode)
	if err != nil {
		return nil, err
	}

	slices.Reverse(versions)

	return versions, nil
}
