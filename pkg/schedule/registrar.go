package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dukex/flowforge/pkg/eventbus"
	"github.com/dukex/flowforge/pkg/events"
	"github.com/dukex/flowforge/pkg/graph"
	"github.com/dukex/flowforge/pkg/log"
	"github.com/dukex/flowforge/pkg/models"
)

// VersionReader loads the published graph a schedule is registered for.
type VersionReader interface {
	GetByFlowCodeAndVersionCode(ctx context.Context, flowCode, versionCode string) (*models.FlowVersion, error)
}

// Registrar keeps the schedules of a flow in line with its published version.
type Registrar struct {
	store    Store
	versions VersionReader
	logger   *slog.Logger
	now      func() time.Time
}

func NewRegistrar(store Store, versions VersionReader, logger *slog.Logger) *Registrar {
	return &Registrar{
		store:    store,
		versions: versions,
		logger:   logger.With("module", "schedule_registrar"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RoutineBranches returns the routine branches of the top-level start node.
func RoutineBranches(nodes []*models.Node) ([]*models.TriggerBranch, error) {
	start, err := graph.New(nodes).StartNode()
	if err != nil {
		return nil, err
	}

	if start == nil {
		return nil, nil
	}

	branches, err := models.TriggerBranches(start.Params)
	if err != nil {
		return nil, models.NewNodeValidationError(start, err.Error(), err)
	}

	var routines []*models.TriggerBranch

	for _, branch := range branches {
		if branch.TriggerType == models.TriggerTypeRoutine && branch.Config != nil && branch.Config.Cron != "" {
			routines = append(routines, branch)
		}
	}

	return routines, nil
}

// Sync registers one schedule per routine branch of nodes and drops the schedules of
// branches that no longer exist. A disabled flow keeps no schedules.
func (r *Registrar) Sync(ctx context.Context, flowCode, versionCode string, enabled bool, nodes []*models.Node) ([]*models.Schedule, error) {
	if !enabled {
		return nil, r.Unregister(ctx, flowCode)
	}

	branches, err := RoutineBranches(nodes)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.ListByFlow(ctx, flowCode)
	if err != nil {
		return nil, err
	}

	createdAt := make(map[string]time.Time, len(existing))
	for _, schedule := range existing {
		createdAt[schedule.ID] = schedule.CreatedAt
	}

	now := r.now()
	registered := make([]*models.Schedule, 0, len(branches))
	keep := make(map[string]bool, len(branches))

	for _, branch := range branches {
		schedule, err := models.NewSchedule(flowCode, branch.BranchID, versionCode, branch.Config.Cron, branch.Config.Timezone, now)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping routine branch with invalid schedule",
				log.FlowCode(flowCode), slog.String("branch_id", branch.BranchID), log.Error(err))

			continue
		}

		if created, ok := createdAt[schedule.ID]; ok {
			schedule.CreatedAt = created
		}

		if err := r.store.Save(ctx, schedule); err != nil {
			return nil, err
		}

		keep[schedule.ID] = true
		registered = append(registered, schedule)
	}

	for _, schedule := range existing {
		if keep[schedule.ID] {
			continue
		}

		if err := r.store.Delete(ctx, schedule.ID); err != nil && !models.IsNotFound(err) {
			return nil, err
		}
	}

	sort.Slice(registered, func(i, j int) bool { return registered[i].ID < registered[j].ID })

	r.logger.InfoContext(ctx, "schedules synced",
		log.FlowCode(flowCode), log.VersionCode(versionCode), slog.Int("count", len(registered)))

	return registered, nil
}

// Unregister removes every schedule of a flow.
func (r *Registrar) Unregister(ctx context.Context, flowCode string) error {
	existing, err := r.store.ListByFlow(ctx, flowCode)
	if err != nil {
		return err
	}

	for _, schedule := range existing {
		if err := r.store.Delete(ctx, schedule.ID); err != nil && !models.IsNotFound(err) {
			return err
		}
	}

	if len(existing) > 0 {
		r.logger.InfoContext(ctx, "schedules unregistered", log.FlowCode(flowCode), slog.Int("count", len(existing)))
	}

	return nil
}

// Subscribe routes flow lifecycle events on bus to the registrar.
func (r *Registrar) Subscribe(bus eventbus.EventSubscriber) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.FlowPublishedEvent:     r.handlePublished,
		events.FlowEnableChangedEvent: r.handleEnableChanged,
		events.FlowDeletedEvent:       r.handleDeleted,
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return fmt.Errorf("failed to handle %s: %w", eventType, err)
		}
	}

	return nil
}

func (r *Registrar) handlePublished(ctx context.Context, event any) error {
	published, ok := event.(*events.FlowPublished)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	return r.syncVersion(ctx, published.FlowCode, published.VersionCode, published.Enabled)
}

func (r *Registrar) handleEnableChanged(ctx context.Context, event any) error {
	changed, ok := event.(*events.FlowEnableChanged)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	return r.syncVersion(ctx, changed.FlowCode, changed.VersionCode, changed.Enabled)
}

func (r *Registrar) handleDeleted(ctx context.Context, event any) error {
	deleted, ok := event.(*events.FlowDeleted)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	return r.Unregister(ctx, deleted.FlowCode)
}

func (r *Registrar) syncVersion(ctx context.Context, flowCode, versionCode string, enabled bool) error {
	if !enabled || versionCode == "" {
		return r.Unregister(ctx, flowCode)
	}

	version, err := r.versions.GetByFlowCodeAndVersionCode(ctx, flowCode, versionCode)
	if models.IsNotFound(err) {
		r.logger.WarnContext(ctx, "published version not found, schedules left unchanged",
			log.FlowCode(flowCode), log.VersionCode(versionCode))

		return nil
	}

	if err != nil {
		r.logger.ErrorContext(ctx, "failed to load published version",
			log.FlowCode(flowCode), log.VersionCode(versionCode), log.Error(err))

		return err
	}

	_, err = r.Sync(ctx, flowCode, versionCode, enabled, version.Flow.Nodes)

	return err
}
