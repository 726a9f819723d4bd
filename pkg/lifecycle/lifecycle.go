// Package lifecycle implements the state transitions of a flow from draft to published.
//
// Every transition works on a copy of the flow and writes it back only when all checks
// pass, so a failed transition leaves the flow untouched. Persisting the result is the
// caller's job.
package lifecycle

import (
	"time"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/validation"
	"github.com/dukex/flowforge/pkg/versions"
	"github.com/google/uuid"
)

// CodePrefix starts every flow code.
const CodePrefix = "FLOW-"

// Clock returns the current time.
type Clock func() time.Time

// CodeGenerator returns a new unique code.
type CodeGenerator func() string

// Controller applies lifecycle transitions.
type Controller struct {
	validator      *validation.Validator
	now            Clock
	newFlowCode    CodeGenerator
	newVersionCode CodeGenerator
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.now = clock
	}
}

// WithFlowCodeGenerator replaces the flow code generator.
func WithFlowCodeGenerator(generator CodeGenerator) Option {
	return func(c *Controller) {
		c.newFlowCode = generator
	}
}

// WithVersionCodeGenerator replaces the version code generator.
func WithVersionCodeGenerator(generator CodeGenerator) Option {
	return func(c *Controller) {
		c.newVersionCode = generator
	}
}

// New creates a Controller.
func New(validator *validation.Validator, opts ...Option) *Controller {
	c := &Controller{
		validator:      validator,
		now:            func() time.Time { return time.Now().UTC() },
		newFlowCode:    func() string { return CodePrefix + uuid.NewString() },
		newVersionCode: versions.NewCode,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Create turns a draft without a code into a new, disabled and empty flow.
func (c *Controller) Create(draft *models.Flow) (*models.Flow, error) {
	if draft == nil {
		return nil, models.NewValidationError("flow is required")
	}

	if draft.Code != "" {
		return nil, models.NewFieldValidationError("code", "is assigned on creation and must be empty")
	}

	flow := draft.Clone()
	if flow.Type == "" {
		flow.Type = models.FlowTypeMain
	}

	if err := c.validator.ValidateRequired(flow); err != nil {
		return nil, err
	}

	flow.ID = ""
	flow.Code = c.newFlowCode()
	flow.Modifier = flow.Creator
	flow.UpdatedAt = flow.CreatedAt
	flow.Enabled = false
	flow.VersionCode = ""
	flow.Nodes = []*models.Node{}
	flow.Edges = []*models.Edge{}

	return flow, nil
}

// ModifyMetadata copies the draft's name, description, icon, tool set, modifier and
// update time onto existing. The graph is left alone.
func (c *Controller) ModifyMetadata(existing, draft *models.Flow) error {
	candidate := existing.Clone()
	candidate.Name = draft.Name
	candidate.Description = draft.Description
	candidate.Icon = draft.Icon
	candidate.ToolSetID = draft.ToolSetID
	c.touch(candidate, draft)

	if err := c.validator.ValidateRequired(candidate); err != nil {
		return err
	}

	*existing = *candidate

	return nil
}

// SaveNodes validates the draft graph leniently and copies it onto existing together with
// the draft's non-empty name, description and icon. The result must still pass the
// required-field rules.
func (c *Controller) SaveNodes(existing, draft *models.Flow) error {
	if err := c.validator.ValidateNodes(draft.Nodes, validation.SceneSave); err != nil {
		return err
	}

	candidate := existing.Clone()
	candidate.Nodes = nonNilNodes(models.CloneNodes(draft.Nodes))
	candidate.Edges = nonNilEdges(models.CloneEdges(draft.Edges))

	if draft.GlobalVariable != nil {
		candidate.GlobalVariable = draft.GlobalVariable.Clone()
	}

	if draft.Name != "" {
		candidate.Name = draft.Name
	}

	if draft.Description != "" {
		candidate.Description = draft.Description
	}

	if draft.Icon != "" {
		candidate.Icon = draft.Icon
	}

	c.touch(candidate, draft)

	if err := c.validator.ValidateRequired(candidate); err != nil {
		return err
	}

	*existing = *candidate

	return nil
}

// ChangeEnable sets the enabled flag to *enable, or toggles it when enable is nil.
// A flow without nodes cannot be enabled.
func (c *Controller) ChangeEnable(flow *models.Flow, enable *bool) error {
	if enable != nil && *enable == flow.Enabled {
		return nil
	}

	target := !flow.Enabled
	if enable != nil {
		target = *enable
	}

	if target {
		if err := checkEnableable(flow); err != nil {
			return err
		}
	}

	flow.Enabled = target

	return nil
}

// NewVersion snapshots the flow into a version with a fresh code. Empty name and
// description default to the flow's.
func (c *Controller) NewVersion(flow *models.Flow, name, description string) *models.FlowVersion {
	version := versions.Snapshot(flow, c.newVersionCode(), c.now())

	if name != "" {
		version.Name = name
	}

	if description != "" {
		version.Description = description
	}

	return version
}

// Publish points the flow at version after validating the graph strictly. The first
// publish enables the flow.
func (c *Controller) Publish(flow *models.Flow, version *models.FlowVersion) error {
	if err := checkVersion(flow, version); err != nil {
		return err
	}

	candidate := flow.Clone()
	if err := c.publish(candidate, version.Code); err != nil {
		return err
	}

	*flow = *candidate

	return nil
}

// Rollback restores the graph of version onto the live flow, validates it like a publish
// and points the flow at version. No new version is created.
func (c *Controller) Rollback(flow *models.Flow, version *models.FlowVersion) error {
	if err := checkVersion(flow, version); err != nil {
		return err
	}

	snapshot := version.Flow.Clone()

	candidate := flow.Clone()
	candidate.Nodes = nonNilNodes(snapshot.Nodes)
	candidate.Edges = nonNilEdges(snapshot.Edges)
	candidate.GlobalVariable = snapshot.GlobalVariable

	if err := c.publish(candidate, version.Code); err != nil {
		return err
	}

	*flow = *candidate

	return nil
}

// PrepareForDeletion runs before a flow is removed from storage.
func (c *Controller) PrepareForDeletion(_ *models.Flow) error {
	return nil
}

func (c *Controller) publish(candidate *models.Flow, versionCode string) error {
	if err := checkEnableable(candidate); err != nil {
		return err
	}

	firstPublish := candidate.VersionCode == ""
	wasEnabled := candidate.Enabled

	candidate.Enabled = true

	if err := c.validator.ValidateNodes(candidate.Nodes, validation.ScenePublish); err != nil {
		return err
	}

	if !firstPublish {
		candidate.Enabled = wasEnabled
	}

	candidate.VersionCode = versionCode
	candidate.UpdatedAt = c.now()

	return nil
}

func (c *Controller) touch(candidate, draft *models.Flow) {
	if draft.Modifier != "" {
		candidate.Modifier = draft.Modifier
	}

	candidate.UpdatedAt = draft.UpdatedAt
	if candidate.UpdatedAt.IsZero() {
		candidate.UpdatedAt = c.now()
	}
}

func checkEnableable(flow *models.Flow) error {
	if len(flow.Nodes) == 0 {
		return models.NewFieldValidationError("nodes", "a flow without nodes cannot be enabled")
	}

	return nil
}

func checkVersion(flow *models.Flow, version *models.FlowVersion) error {
	if version == nil || version.Code == "" {
		return models.NewValidationError("version is required")
	}

	if version.FlowCode != "" && version.FlowCode != flow.Code {
		return models.NewNotFoundError("flow version", version.Code)
	}

	return nil
}

func nonNilNodes(nodes []*models.Node) []*models.Node {
	if nodes == nil {
		return []*models.Node{}
	}

	return nodes
}

func nonNilEdges(edges []*models.Edge) []*models.Edge {
	if edges == nil {
		return []*models.Edge{}
	}

	return edges
}
