// Package registry holds the node type definitions known to the engine and validates
// nodes against them.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/protocol"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrUnknownNodeType    = errors.New("unknown node type")
	ErrUnsupportedVersion = errors.New("unsupported node version")
	ErrNoDefinitions      = errors.New("no node types registered")
)

// Registry maps node types to their definitions. It is safe for concurrent use.
type Registry struct {
	logger      *slog.Logger
	mu          sync.RWMutex
	definitions map[string]protocol.NodeDefinition
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:      log.With("module", "registry"),
		definitions: make(map[string]protocol.NodeDefinition),
	}
}

// Register adds a definition, replacing any previous one of the same type.
func (r *Registry) Register(definition protocol.NodeDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.definitions[definition.Type()] = definition
	r.logger.Debug("registered node type", "node_type", definition.Type(), "version", definition.Version())
}

// Definition returns the definition registered for nodeType.
func (r *Registry) Definition(nodeType string) (protocol.NodeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definition, ok := r.definitions[nodeType]

	return definition, ok
}

// Definitions returns every registered definition sorted by type.
func (r *Registry) Definitions() []protocol.NodeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := slices.Sorted(maps.Keys(r.definitions))
	definitions := make([]protocol.NodeDefinition, 0, len(types))

	for _, nodeType := range types {
		definitions = append(definitions, r.definitions[nodeType])
	}

	return definitions
}

// GenerateTemplate creates a new node of nodeType with the definition's default params
// overlaid by params and the definition's default output form.
func (r *Registry) GenerateTemplate(nodeType string, params map[string]any, version string) (*models.Node, error) {
	definition, ok := r.Definition(nodeType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType)
	}

	if version == "" {
		version = definition.Version()
	}

	if version != definition.Version() {
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedVersion, nodeType, version)
	}

	merged := definition.Template()
	if merged == nil {
		merged = map[string]any{}
	}

	maps.Copy(merged, params)

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template params: %w", err)
	}

	return &models.Node{
		NodeID:      uuid.NewString(),
		NodeType:    nodeType,
		NodeVersion: version,
		Name:        definition.Name(),
		Params:      data,
		Output:      &models.NodeOutput{Form: definition.DefaultOutput()},
	}, nil
}

// Validate checks node params against the type's JSON schema and then runs the type's
// own rules. strict enables the publish-time rules.
func (r *Registry) Validate(node *models.Node, strict bool) error {
	definition, ok := r.Definition(node.NodeType)
	if !ok {
		return models.NewNodeValidationError(node, "unknown node type", ErrUnknownNodeType)
	}

	if err := validateSchema(definition.Schema(), node.Params); err != nil {
		return models.NewNodeValidationError(node, err.Error(), err)
	}

	return definition.Validate(node, strict)
}

// HealthCheck reports whether the registry can serve requests.
func (r *Registry) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.definitions) == 0 {
		return ErrNoDefinitions
	}

	return nil
}

func validateSchema(schema map[string]any, params json.RawMessage) error {
	if schema == nil {
		return nil
	}

	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewBytesLoader(params))
	if err != nil {
		return fmt.Errorf("params cannot be checked: %w", err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}

		return fmt.Errorf("params do not match schema: %s", strings.Join(errs, "; "))
	}

	return nil
}
