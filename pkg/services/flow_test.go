package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/flowforge/pkg/debug"
	"github.com/dukex/flowforge/pkg/events"
	"github.com/dukex/flowforge/pkg/lifecycle"
	"github.com/dukex/flowforge/pkg/mocks"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/persistence/file"
	"github.com/dukex/flowforge/pkg/registry"
	"github.com/dukex/flowforge/pkg/testutil"
	"github.com/dukex/flowforge/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func sequence(prefix string) lifecycle.CodeGenerator {
	n := 0

	return func() string {
		n++

		return fmt.Sprintf("%s%d", prefix, n)
	}
}

type fixture struct {
	service *Flow
	store   persistence.Persistence
	bus     *mocks.MockEventBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	clock := func() time.Time { return fixedNow }

	nodeRegistry := registry.NewRegistry(logger)
	nodeRegistry.RegisterDefaultNodes()

	controller := lifecycle.New(
		validation.New(nodeRegistry, validation.WithClock(clock)),
		lifecycle.WithClock(clock),
		lifecycle.WithFlowCodeGenerator(sequence("FLOW-")),
		lifecycle.WithVersionCodeGenerator(sequence("FLOWVERSION-")),
	)

	store := file.NewPersistence(t.TempDir())
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	return &fixture{
		service: NewFlow(store, nodeRegistry, controller, logger, WithEventPublisher(bus), WithClock(clock)),
		store:   store,
		bus:     bus,
	}
}

func (f *fixture) published(eventType events.EventType) []mock.Call {
	var calls []mock.Call

	for _, call := range f.bus.Calls {
		if call.Method != "Publish" {
			continue
		}

		if event, ok := call.Arguments.Get(2).(interface{ GetType() events.EventType }); ok && event.GetType() == eventType {
			calls = append(calls, call)
		}
	}

	return calls
}

func (f *fixture) createRunnable(t *testing.T) *models.Flow {
	t.Helper()

	ctx := context.Background()

	flow, err := f.service.Create(ctx, testutil.CreateTestFlow())
	require.NoError(t, err)

	flow, err = f.service.SaveNodes(ctx, flow.Code, testutil.CreateTestFlow(
		testutil.WithNodes(testutil.RunnableNodes()...),
	))
	require.NoError(t, err)

	return flow
}

func TestFlow_Create(t *testing.T) {
	f := newFixture(t)

	flow, err := f.service.Create(context.Background(), testutil.CreateTestFlow())
	require.NoError(t, err)

	assert.Equal(t, "FLOW-1", flow.Code)
	assert.False(t, flow.Enabled)
	assert.Empty(t, flow.Nodes)

	stored, err := f.service.FetchByCode(context.Background(), "FLOW-1")
	require.NoError(t, err)
	assert.Equal(t, "My Flow", stored.Name)
	assert.NotEmpty(t, stored.ID)

	saved := f.published(events.FlowSavedEvent)
	require.Len(t, saved, 1)
	assert.Equal(t, "FLOW-1", saved[0].Arguments.String(1))
	assert.True(t, saved[0].Arguments.Get(2).(events.FlowSaved).Created)
}

func TestFlow_CreateInvalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), testutil.CreateTestFlow(func(flow *models.Flow) {
		flow.Name = ""
	}))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = f.service.Create(context.Background(), nil)
	require.ErrorIs(t, err, ErrFlowNil)

	assert.Empty(t, f.published(events.FlowSavedEvent))
}

func TestFlow_FetchByCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.FetchByCode(context.Background(), "")
	require.ErrorIs(t, err, ErrFlowCodeEmpty)

	_, err = f.service.FetchByCode(context.Background(), "FLOW-404")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
	assert.True(t, persistence.IsFlowNotFound(err))
}

func TestFlow_ModifyKeepsGraph(t *testing.T) {
	f := newFixture(t)
	flow := f.createRunnable(t)

	modified, err := f.service.Modify(context.Background(), flow.Code, testutil.CreateTestFlow(func(draft *models.Flow) {
		draft.Name = "Renamed"
		draft.Modifier = "u2"
	}))
	require.NoError(t, err)

	assert.Equal(t, "Renamed", modified.Name)
	assert.Equal(t, "u2", modified.Modifier)
	assert.Len(t, modified.Nodes, 3)
}

func TestFlow_SaveNodesRejectsDuplicateIDs(t *testing.T) {
	f := newFixture(t)

	flow, err := f.service.Create(context.Background(), testutil.CreateTestFlow())
	require.NoError(t, err)

	_, err = f.service.SaveNodes(context.Background(), flow.Code, testutil.CreateTestFlow(
		testutil.WithNodes(testutil.LogNode("a"), testutil.LogNode("a")),
	))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	stored, err := f.service.FetchByCode(context.Background(), flow.Code)
	require.NoError(t, err)
	assert.Empty(t, stored.Nodes)
}

func TestFlow_SaveNodesMissingFlow(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.SaveNodes(context.Background(), "FLOW-404", testutil.CreateTestFlow())

	assert.True(t, IsNotFoundError(err))
}

func TestFlow_ChangeEnable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.service.Create(ctx, testutil.CreateTestFlow())
	require.NoError(t, err)

	enable := true
	_, err = f.service.ChangeEnable(ctx, empty.Code, &enable, "u2")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	flow := f.createRunnable(t)

	toggled, err := f.service.ChangeEnable(ctx, flow.Code, nil, "u2")
	require.NoError(t, err)
	assert.True(t, toggled.Enabled)
	assert.Equal(t, "u2", toggled.Modifier)

	_, err = f.service.ChangeEnable(ctx, flow.Code, &enable, "u3")
	require.NoError(t, err)

	changes := f.published(events.FlowEnableChangedEvent)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Arguments.Get(2).(events.FlowEnableChanged).Enabled)
}

func TestFlow_PublishCreatesVersion(t *testing.T) {
	f := newFixture(t)
	flow := f.createRunnable(t)

	published, version, err := f.service.Publish(context.Background(), flow.Code, PublishRequest{Name: "v1", Modifier: "u2"})
	require.NoError(t, err)

	assert.Equal(t, "FLOWVERSION-1", version.Code)
	assert.Equal(t, "v1", version.Name)
	assert.Equal(t, "u2", version.Creator)
	assert.Equal(t, version.Code, published.VersionCode)
	assert.True(t, published.Enabled)

	versionList, err := f.service.ListVersions(context.Background(), flow.Code)
	require.NoError(t, err)
	require.Len(t, versionList, 1)
	assert.Len(t, versionList[0].Flow.Nodes, 3)

	calls := f.published(events.FlowPublishedEvent)
	require.Len(t, calls, 1)

	event := calls[0].Arguments.Get(2).(events.FlowPublished)
	assert.Equal(t, "FLOWVERSION-1", event.VersionCode)
	assert.True(t, event.Enabled)
	assert.False(t, event.Rollback)
}

func TestFlow_PublishInvalidStoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flow, err := f.service.Create(ctx, testutil.CreateTestFlow())
	require.NoError(t, err)

	_, err = f.service.SaveNodes(ctx, flow.Code, testutil.CreateTestFlow(
		testutil.WithNodes(testutil.StartNode("start"), testutil.LogNode("log")),
	))
	require.NoError(t, err)

	_, _, err = f.service.Publish(ctx, flow.Code, PublishRequest{})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	versionList, err := f.service.ListVersions(ctx, flow.Code)
	require.NoError(t, err)
	assert.Empty(t, versionList)

	stored, err := f.service.FetchByCode(ctx, flow.Code)
	require.NoError(t, err)
	assert.Empty(t, stored.VersionCode)
	assert.False(t, stored.Enabled)
	assert.Empty(t, f.published(events.FlowPublishedEvent))
}

func TestFlow_Rollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flow := f.createRunnable(t)

	_, first, err := f.service.Publish(ctx, flow.Code, PublishRequest{})
	require.NoError(t, err)

	edited := append(testutil.RunnableNodes(), testutil.LogNode("extra"))
	_, err = f.service.SaveNodes(ctx, flow.Code, testutil.CreateTestFlow(testutil.WithNodes(edited...)))
	require.NoError(t, err)

	_, second, err := f.service.Publish(ctx, flow.Code, PublishRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)

	rolledBack, err := f.service.Rollback(ctx, flow.Code, first.Code, "u9")
	require.NoError(t, err)

	assert.Equal(t, first.Code, rolledBack.VersionCode)
	assert.Len(t, rolledBack.Nodes, 3)
	assert.Equal(t, "u9", rolledBack.Modifier)

	versionList, err := f.service.ListVersions(ctx, flow.Code)
	require.NoError(t, err)
	assert.Len(t, versionList, 2)

	calls := f.published(events.FlowPublishedEvent)
	require.Len(t, calls, 3)
	assert.True(t, calls[2].Arguments.Get(2).(events.FlowPublished).Rollback)
}

func TestFlow_RollbackUnknownVersion(t *testing.T) {
	f := newFixture(t)
	flow := f.createRunnable(t)

	_, err := f.service.Rollback(context.Background(), flow.Code, "FLOWVERSION-404", "")

	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestFlow_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flow := f.createRunnable(t)

	require.NoError(t, f.service.Delete(ctx, flow.Code))

	_, err := f.service.FetchByCode(ctx, flow.Code)
	assert.True(t, IsNotFoundError(err))
	assert.Len(t, f.published(events.FlowDeletedEvent), 1)

	assert.True(t, IsNotFoundError(f.service.Delete(ctx, flow.Code)))
}

func TestFlow_Contract(t *testing.T) {
	f := newFixture(t)
	flow := f.createRunnable(t)

	contract, err := f.service.Contract(context.Background(), flow.Code)
	require.NoError(t, err)

	assert.Contains(t, contract.Input.Properties, "question")
	assert.Contains(t, contract.Output.Properties, "answer")
}

func TestFlow_DebugResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flow, err := f.service.Create(ctx, testutil.CreateTestFlow())
	require.NoError(t, err)

	end := testutil.EndNode("end", testutil.Schema("answer"))
	end.DebugResult = &models.DebugResult{Success: true, Output: map[string]any{"answer": 42.0}}

	failing := testutil.LogNode("log")
	failing.DebugResult = &models.DebugResult{Success: false, ErrorMessage: "boom"}

	_, err = f.service.SaveNodes(ctx, flow.Code, testutil.CreateTestFlow(testutil.WithNodes(end, failing)))
	require.NoError(t, err)

	_, err = f.service.DebugResult(ctx, flow.Code, nil, debug.Options{})
	require.Error(t, err)
	assert.True(t, IsExecuteError(err))

	result, err := f.service.DebugResult(ctx, flow.Code, nil, debug.Options{CollectErrors: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"answer": 42.0}, result.Output)
	assert.True(t, result.Failed())

	overridden, err := f.service.DebugResult(ctx, flow.Code, &debug.Override{Output: map[string]any{"answer": "sub"}}, debug.Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"answer": "sub"}, overridden.Output)
	assert.False(t, overridden.Failed())

	_, err = f.service.DebugResult(ctx, "FLOW-missing", &debug.Override{}, debug.Options{})
	assert.True(t, IsNotFoundError(err))
}

func TestFlow_NodeTemplate(t *testing.T) {
	f := newFixture(t)

	node, err := f.service.NodeTemplate(models.NodeTypeLog, map[string]any{"message": "hi"}, "")
	require.NoError(t, err)
	assert.Equal(t, models.NodeTypeLog, node.NodeType)

	_, err = f.service.NodeTemplate("nope", nil, "")
	assert.True(t, IsNotFoundError(err))

	assert.NotEmpty(t, f.service.NodeTypes())
}

func TestFlow_HealthCheck(t *testing.T) {
	f := newFixture(t)

	message, ok := f.service.HealthCheck(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)
}

func TestFlow_PublishFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))
	f.service.publisher = bus

	flow, err := f.service.Create(context.Background(), testutil.CreateTestFlow())

	require.NoError(t, err)
	assert.NotEmpty(t, flow.Code)
	bus.AssertNumberOfCalls(t, "Publish", 1)
}

func TestServiceError(t *testing.T) {
	err := newServiceError("Publish", "FLOW-1", models.NewNotFoundError("flow", "FLOW-1"))

	assert.Equal(t, "Publish FLOW-1: flow FLOW-1 not found", err.Error())
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsValidationError(err))
	assert.NoError(t, newServiceError("Publish", "", nil))
}
