// Package validation enforces the structural and required-field invariants of a flow.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/dukex/flowforge/pkg/graph"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/go-playground/validator/v10"
)

// Scene selects how strictly node params are checked.
type Scene int

const (
	// SceneSave is used when a draft graph is saved; node params must be well formed.
	SceneSave Scene = iota
	// ScenePublish is used right before publishing; nodes must also be runnable.
	ScenePublish
)

func (s Scene) String() string {
	if s == ScenePublish {
		return "publish"
	}

	return "save"
}

// NodeValidator checks one node against its type's rules.
type NodeValidator interface {
	Validate(node *models.Node, strict bool) error
}

var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Validator validates flows. It keeps no per-flow state and is safe for concurrent use.
type Validator struct {
	nodes    NodeValidator
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the clock used to default a missing creation time.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// New creates a Validator delegating per-node checks to nodes.
func New(nodes NodeValidator, opts ...Option) *Validator {
	v := &Validator{
		nodes:    nodes,
		validate: newStructValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// ValidateNodes indexes nodes, which rejects duplicate ids and a second top-level start
// node, then validates every node in list order. It stops at the first failure.
func (v *Validator) ValidateNodes(nodes []*models.Node, scene Scene) error {
	if _, err := graph.New(nodes).Index(); err != nil {
		return err
	}

	strict := scene == ScenePublish

	for _, node := range nodes {
		if node == nil {
			continue
		}

		if err := v.nodes.Validate(node, strict); err != nil {
			return asNodeError(node, err)
		}
	}

	return nil
}

// ValidateRequired checks the flow-level required fields and fills a missing CreatedAt.
func (v *Validator) ValidateRequired(flow *models.Flow) error {
	if flow == nil {
		return models.NewValidationError("flow is required")
	}

	if err := v.validate.Struct(flow); err != nil {
		return describe(err)
	}

	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = v.now()
	}

	return nil
}

func asNodeError(node *models.Node, err error) error {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return err
	}

	return models.NewNodeValidationError(node, err.Error(), err)
}

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	v.RegisterStructValidation(flowStructLevel, models.Flow{})

	return v
}

func flowStructLevel(sl validator.StructLevel) {
	flow, ok := sl.Current().Interface().(models.Flow)
	if !ok {
		return
	}

	if flow.Type != "" && !flow.Type.Valid() {
		sl.ReportError(flow.Type, "type", "Type", "flow_type", "")
	}

	if flow.Type == models.FlowTypeTool && flow.Name != "" && !toolNamePattern.MatchString(flow.Name) {
		sl.ReportError(flow.Name, "name", "Name", "flow_tool_name", "")
	}
}

func describe(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return models.NewValidationError(err.Error())
	}

	fieldErr := validationErrors[0]

	var message string

	switch fieldErr.Tag() {
	case "required", "required_if":
		message = "is required"
	case "flow_tool_name":
		message = "may only contain letters, digits and underscores"
	case "flow_type":
		message = "must be one of main, sub or tool"
	default:
		message = "failed on " + fieldErr.Tag()
	}

	validationErr := models.NewFieldValidationError(fieldErr.Field(), message)
	validationErr.Err = err

	return validationErr
}
