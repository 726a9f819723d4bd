package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/flowforge/pkg/debug"
	"github.com/dukex/flowforge/pkg/eventbus"
	"github.com/dukex/flowforge/pkg/events"
	"github.com/dukex/flowforge/pkg/graph"
	"github.com/dukex/flowforge/pkg/lifecycle"
	"github.com/dukex/flowforge/pkg/log"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/otelhelper"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/protocol"
	"github.com/dukex/flowforge/pkg/versions"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NodeTypes is the node-type registry as seen by the service.
type NodeTypes interface {
	Definitions() []protocol.NodeDefinition
	GenerateTemplate(nodeType string, params map[string]any, version string) (*models.Node, error)
	HealthCheck() error
}

// Flow runs lifecycle operations against storage. Every write happens in one
// transaction and its event is published only after the commit.
type Flow struct {
	persistence persistence.Persistence
	nodeTypes   NodeTypes
	controller  *lifecycle.Controller
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Flow service.
type Option func(*Flow)

// WithEventPublisher publishes lifecycle events to publisher.
func WithEventPublisher(publisher eventbus.EventPublisher) Option {
	return func(f *Flow) {
		f.publisher = publisher
	}
}

// WithTracer records a span per operation.
func WithTracer(tracer trace.Tracer) Option {
	return func(f *Flow) {
		f.tracer = tracer
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		f.now = now
	}
}

// NewFlow creates a new flow service.
func NewFlow(
	persistence persistence.Persistence,
	nodeTypes NodeTypes,
	controller *lifecycle.Controller,
	logger *slog.Logger,
	opts ...Option,
) *Flow {
	f := &Flow{
		persistence: persistence,
		nodeTypes:   nodeTypes,
		controller:  controller,
		tracer:      noop.NewTracerProvider().Tracer("flowforge"),
		logger:      logger.With("module", "flow_service"),
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// HealthCheck checks the health of the persistence layer and the node registry.
func (f *Flow) HealthCheck(ctx context.Context) (string, bool) {
	if f.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := f.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	if err := f.nodeTypes.HealthCheck(); err != nil {
		return "Node registry is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// PublishRequest names the version a publish creates. Empty fields default to the flow's.
type PublishRequest struct {
	Name        string
	Description string
	Modifier    string
}

// Create assigns a code to draft and stores it as a new, disabled flow.
func (f *Flow) Create(ctx context.Context, draft *models.Flow) (*models.Flow, error) {
	const op = "Create"

	if draft == nil {
		return nil, newServiceError(op, "", ErrFlowNil)
	}

	ctx, span := f.startSpan(ctx, "flow.create", draft.OrganizationCode, "")
	defer span.End()

	flow, err := f.controller.Create(draft)
	if err != nil {
		return nil, f.fail(span, op, "", err)
	}

	err = f.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		return repos.Flows().Save(ctx, flow)
	})
	if err != nil {
		return nil, f.fail(span, op, flow.Code, err)
	}

	span.SetAttributes(attribute.String(otelhelper.FlowCodeKey, flow.Code))
	f.logger.InfoContext(ctx, "flow created", log.FlowCode(flow.Code))

	f.publish(ctx, flow.Code, events.FlowSaved{
		BaseEvent: events.NewBaseEvent(events.FlowSavedEvent, flow.Code, flow.OrganizationCode),
		Created:   true,
		Modifier:  flow.Modifier,
	})

	return flow, nil
}

// FetchByCode returns the live flow.
func (f *Flow) FetchByCode(ctx context.Context, code string) (*models.Flow, error) {
	const op = "FetchByCode"

	if code == "" {
		return nil, newServiceError(op, code, ErrFlowCodeEmpty)
	}

	flow, err := f.persistence.Flows().GetByCode(ctx, code)
	if err != nil {
		return nil, newServiceError(op, code, err)
	}

	return flow, nil
}

// List returns live flows, newest first.
func (f *Flow) List(ctx context.Context, opts persistence.ListFlowsOptions) ([]*models.Flow, error) {
	flows, err := f.persistence.Flows().List(ctx, opts)
	if err != nil {
		return nil, newServiceError("List", "", err)
	}

	return flows, nil
}

// Modify replaces the metadata of a flow. The graph is left alone.
func (f *Flow) Modify(ctx context.Context, code string, draft *models.Flow) (*models.Flow, error) {
	return f.update(ctx, "Modify", "flow.modify", code, draft, func(existing *models.Flow) error {
		return f.controller.ModifyMetadata(existing, draft)
	})
}

// SaveNodes replaces the draft graph of a flow after a lenient validation.
func (f *Flow) SaveNodes(ctx context.Context, code string, draft *models.Flow) (*models.Flow, error) {
	return f.update(ctx, "SaveNodes", "flow.save_nodes", code, draft, func(existing *models.Flow) error {
		return f.controller.SaveNodes(existing, draft)
	})
}

func (f *Flow) update(
	ctx context.Context,
	op, spanName, code string,
	draft *models.Flow,
	apply func(existing *models.Flow) error,
) (*models.Flow, error) {
	if code == "" {
		return nil, newServiceError(op, code, ErrFlowCodeEmpty)
	}

	if draft == nil {
		return nil, newServiceError(op, code, ErrFlowNil)
	}

	ctx, span := f.startSpan(ctx, spanName, draft.OrganizationCode, code)
	defer span.End()

	var flow *models.Flow

	err := f.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		existing, err := repos.Flows().GetByCode(ctx, code)
		if err != nil {
			return err
		}

		if err := apply(existing); err != nil {
			return err
		}

		flow = existing

		return repos.Flows().Save(ctx, flow)
	})
	if err != nil {
		return nil, f.fail(span, op, code, err)
	}

	f.logger.InfoContext(ctx, "flow saved", log.FlowCode(code), slog.String("op", op))

	f.publish(ctx, code, events.FlowSaved{
		BaseEvent: events.NewBaseEvent(events.FlowSavedEvent, code, flow.OrganizationCode),
		Modifier:  flow.Modifier,
	})

	return flow, nil
}

// ChangeEnable sets the enabled flag to *enable, or toggles it when enable is nil.
func (f *Flow) ChangeEnable(ctx context.Context, code string, enable *bool, modifier string) (*models.Flow, error) {
	const op = "ChangeEnable"

	if code == "" {
		return nil, newServiceError(op, code, ErrFlowCodeEmpty)
	}

	ctx, span := f.startSpan(ctx, "flow.change_enable", "", code)
	defer span.End()

	var (
		flow    *models.Flow
		changed bool
	)

	err := f.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		existing, err := repos.Flows().GetByCode(ctx, code)
		if err != nil {
			return err
		}

		before := existing.Enabled
		if err := f.controller.ChangeEnable(existing, enable); err != nil {
			return err
		}

		flow = existing
		changed = before != existing.Enabled

		if !changed {
			return nil
		}

		if modifier != "" {
			flow.Modifier = modifier
		}

		flow.UpdatedAt = f.now()

		return repos.Flows().Save(ctx, flow)
	})
	if err != nil {
		return nil, f.fail(span, op, code, err)
	}

	if changed {
		f.logger.InfoContext(ctx, "flow enable changed", log.FlowCode(code), slog.Bool("enabled", flow.Enabled))

		f.publish(ctx, code, events.FlowEnableChanged{
			BaseEvent:   events.NewBaseEvent(events.FlowEnableChangedEvent, code, flow.OrganizationCode),
			VersionCode: flow.VersionCode,
			Enabled:     flow.Enabled,
		})
	}

	return flow, nil
}

// Publish validates the draft graph strictly, snapshots it into a new version and points
// the flow at that version. Nothing is stored when validation fails.
func (f *Flow) Publish(ctx context.Context, code string, req PublishRequest) (*models.Flow, *models.FlowVersion, error) {
	const op = "Publish"

	if code == "" {
		return nil, nil, newServiceError(op, code, ErrFlowCodeEmpty)
	}

	ctx, span := f.startSpan(ctx, "flow.publish", "", code)
	defer span.End()

	var (
		flow    *models.Flow
		version *models.FlowVersion
	)

	err := f.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		existing, err := repos.Flows().GetByCode(ctx, code)
		if err != nil {
			return err
		}

		if req.Modifier != "" {
			existing.Modifier = req.Modifier
		}

		candidate := f.controller.NewVersion(existing, req.Name, req.Description)
		if err := f.controller.Publish(existing, candidate); err != nil {
			return err
		}

		if err := versions.NewStore(repos.Versions()).Create(ctx, candidate); err != nil {
			return err
		}

		flow, version = existing, candidate

		return repos.Flows().Save(ctx, flow)
	})
	if err != nil {
		return nil, nil, f.fail(span, op, code, err)
	}

	span.SetAttributes(attribute.String(otelhelper.VersionCodeKey, version.Code))
	f.logger.InfoContext(ctx, "flow published", log.FlowCode(code), log.VersionCode(version.Code))

	f.publish(ctx, code, events.FlowPublished{
		BaseEvent:   events.NewBaseEvent(events.FlowPublishedEvent, code, flow.OrganizationCode),
		VersionCode: version.Code,
		Enabled:     flow.Enabled,
		Modifier:    flow.Modifier,
	})

	return flow, version, nil
}

// Rollback restores the graph of an earlier version onto the live flow and points the
// flow at it. No version is created.
func (f *Flow) Rollback(ctx context.Context, code, versionCode, modifier string) (*models.Flow, error) {
	const op = "Rollback"

	if code == "" {
		return nil, newServiceError(op, code, ErrFlowCodeEmpty)
	}

	ctx, span := f.startSpan(ctx, "flow.rollback", "", code)
	span.SetAttributes(attribute.String(otelhelper.VersionCodeKey, versionCode))
	defer span.End()

	var flow *models.Flow

	err := f.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		existing, err := repos.Flows().GetByCode(ctx, code)
		if err != nil {
			return err
		}

		version, err := versions.NewStore(repos.Versions()).GetByFlowCodeAndVersionCode(ctx, code, versionCode)
		if err != nil {
			return err
		}

		if modifier != "" {
			existing.Modifier = modifier
		}

		if err := f.controller.Rollback(existing, version); err != nil {
			return err
		}

		flow = existing

		return repos.Flows().Save(ctx, flow)
	})
	if err != nil {
		return nil, f.fail(span, op, code, err)
	}

	f.logger.InfoContext(ctx, "flow rolled back", log.FlowCode(code), log.VersionCode(versionCode))

	f.publish(ctx, code, events.FlowPublished{
		BaseEvent:   events.NewBaseEvent(events.FlowPublishedEvent, code, flow.OrganizationCode),
		VersionCode: versionCode,
		Enabled:     flow.Enabled,
		Rollback:    true,
		Modifier:    flow.Modifier,
	})

	return flow, nil
}

// Delete removes a flow. Its versions are kept.
func (f *Flow) Delete(ctx context.Context, code string) error {
	const op = "Delete"

	if code == "" {
		return newServiceError(op, code, ErrFlowCodeEmpty)
	}

	ctx, span := f.startSpan(ctx, "flow.delete", "", code)
	defer span.End()

	var flow *models.Flow

	err := f.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		existing, err := repos.Flows().GetByCode(ctx, code)
		if err != nil {
			return err
		}

		if err := f.controller.PrepareForDeletion(existing); err != nil {
			return err
		}

		flow = existing

		return repos.Flows().Remove(ctx, flow)
	})
	if err != nil {
		return f.fail(span, op, code, err)
	}

	f.logger.InfoContext(ctx, "flow deleted", log.FlowCode(code))

	f.publish(ctx, code, events.FlowDeleted{
		BaseEvent: events.NewBaseEvent(events.FlowDeletedEvent, code, flow.OrganizationCode),
	})

	return nil
}

// ListVersions returns the versions of a flow, newest first.
func (f *Flow) ListVersions(ctx context.Context, code string) ([]*models.FlowVersion, error) {
	const op = "ListVersions"

	if _, err := f.FetchByCode(ctx, code); err != nil {
		return nil, err
	}

	list, err := versions.NewStore(f.persistence.Versions()).List(ctx, code)
	if err != nil {
		return nil, newServiceError(op, code, err)
	}

	return list, nil
}

// GetVersion returns one version of a flow.
func (f *Flow) GetVersion(ctx context.Context, code, versionCode string) (*models.FlowVersion, error) {
	version, err := versions.NewStore(f.persistence.Versions()).GetByFlowCodeAndVersionCode(ctx, code, versionCode)
	if err != nil {
		return nil, newServiceError("GetVersion", code, err)
	}

	return version, nil
}

// Contract returns the input and output schemas of the live flow.
func (f *Flow) Contract(ctx context.Context, code string) (*graph.Contract, error) {
	flow, err := f.FetchByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	contract, err := graph.New(flow.Nodes).Contract()
	if err != nil {
		return nil, newServiceError("Contract", code, err)
	}

	return contract, nil
}

// DebugResult folds the trial-run results stored on the flow's nodes into one result.
// A non-nil override is returned as the result without looking at the nodes.
func (f *Flow) DebugResult(ctx context.Context, code string, override *debug.Override, opts debug.Options) (*debug.Result, error) {
	flow, err := f.FetchByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	result, err := debug.Aggregate(flow.Nodes, override, opts)
	if err != nil {
		return nil, newServiceError("DebugResult", code, err)
	}

	return result, nil
}

// NodeTypes lists the registered node types.
func (f *Flow) NodeTypes() []protocol.NodeDefinition {
	return f.nodeTypes.Definitions()
}

// NodeTemplate returns a fresh node of nodeType ready to be placed on a canvas.
func (f *Flow) NodeTemplate(nodeType string, params map[string]any, version string) (*models.Node, error) {
	node, err := f.nodeTypes.GenerateTemplate(nodeType, params, version)
	if err != nil {
		return nil, newServiceError("NodeTemplate", "", err)
	}

	return node, nil
}

func (f *Flow) startSpan(ctx context.Context, name, organizationCode, code string) (context.Context, trace.Span) {
	return otelhelper.StartSpan(ctx, f.tracer, name, otelhelper.FlowAttributes(organizationCode, code)...)
}

func (f *Flow) fail(span trace.Span, op, code string, err error) error {
	otelhelper.SetError(span, err, attribute.String(otelhelper.FlowCodeKey, code))

	return newServiceError(op, code, err)
}

func (f *Flow) publish(ctx context.Context, key string, event eventbus.Event) {
	if f.publisher == nil {
		return
	}

	if err := f.publisher.Publish(ctx, key, event); err != nil {
		f.logger.ErrorContext(ctx, "failed to publish event",
			log.FlowCode(key), slog.String("event_type", string(event.GetType())), log.Error(err))
	}
}
