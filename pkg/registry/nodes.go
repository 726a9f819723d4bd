package registry

import (
	"github.com/dukex/flowforge/pkg/nodes/conditional"
	"github.com/dukex/flowforge/pkg/nodes/end"
	"github.com/dukex/flowforge/pkg/nodes/httprequest"
	"github.com/dukex/flowforge/pkg/nodes/log"
	"github.com/dukex/flowforge/pkg/nodes/loop"
	"github.com/dukex/flowforge/pkg/nodes/start"
	"github.com/dukex/flowforge/pkg/nodes/subflow"
	"github.com/dukex/flowforge/pkg/nodes/transform"
)

// RegisterDefaultNodes registers all built-in node definitions with the registry.
func (r *Registry) RegisterDefaultNodes() {
	r.Register(start.NewDefinition())
	r.Register(end.NewDefinition())
	r.Register(loop.NewDefinition())
	r.Register(httprequest.NewDefinition())
	r.Register(transform.NewDefinition())
	r.Register(log.NewDefinition())
	r.Register(conditional.NewDefinition())
	r.Register(subflow.NewDefinition())
}
