// Package graph indexes a flat flow node list into lookup structures and derives the flow's
// external input/output contract from it.
//
// A Graph memoizes both the index and the contract behind one validity flag. It is not safe for
// concurrent use; callers own one Graph per flow aggregate.
package graph

import (
	"github.com/dukex/flowforge/pkg/models"
)

// Graph wraps a node list with a lazily built, memoized Index and Contract.
type Graph struct {
	nodes    []*models.Node
	valid    bool
	index    *Index
	contract *Contract
}

// New creates a Graph over nodes. Nothing is built until the first lookup.
func New(nodes []*models.Node) *Graph {
	return &Graph{nodes: nodes}
}

// Nodes returns the node list the graph was built from.
func (g *Graph) Nodes() []*models.Node {
	return g.nodes
}

// SetNodes replaces the node list and drops the cache.
// With refresh the index is rebuilt immediately, surfacing structural errors.
func (g *Graph) SetNodes(nodes []*models.Node, refresh bool) error {
	g.nodes = nodes
	g.Invalidate()

	if refresh {
		return g.rebuild()
	}

	return nil
}

// Invalidate drops the memoized index and contract.
func (g *Graph) Invalidate() {
	g.valid = false
	g.index = nil
	g.contract = nil
}

// Refresh invalidates and rebuilds the index.
func (g *Graph) Refresh() error {
	g.Invalidate()

	return g.rebuild()
}

// Index returns the memoized index, building it when stale.
func (g *Graph) Index() (*Index, error) {
	if !g.valid {
		if err := g.rebuild(); err != nil {
			return nil, err
		}
	}

	return g.index, nil
}

// NodeByID returns the node with id, at any nesting depth.
func (g *Graph) NodeByID(id string) (*models.Node, bool, error) {
	index, err := g.Index()
	if err != nil {
		return nil, false, err
	}

	node, ok := index.nodesByID[id]

	return node, ok, nil
}

// NodesByParentID returns the children of parentID in list order.
func (g *Graph) NodesByParentID(parentID string) ([]*models.Node, error) {
	index, err := g.Index()
	if err != nil {
		return nil, err
	}

	return index.nodesByParentID[parentID], nil
}

// StartNode returns the top-level start node, or nil.
func (g *Graph) StartNode() (*models.Node, error) {
	index, err := g.Index()
	if err != nil {
		return nil, err
	}

	return index.start, nil
}

// EndNode returns the first top-level end node, or nil.
func (g *Graph) EndNode() (*models.Node, error) {
	index, err := g.Index()
	if err != nil {
		return nil, err
	}

	return index.end, nil
}

// Contract returns the memoized input/output contract, resolving it when stale.
func (g *Graph) Contract() (*Contract, error) {
	index, err := g.Index()
	if err != nil {
		return nil, err
	}

	if g.contract == nil {
		contract, err := resolveContract(index)
		if err != nil {
			return nil, err
		}

		g.contract = contract
	}

	return g.contract, nil
}

// Input returns the flow's input schema.
func (g *Graph) Input() (*models.JSONSchema, error) {
	contract, err := g.Contract()
	if err != nil {
		return nil, err
	}

	return contract.Input, nil
}

// CustomSystemInput returns the flow's custom system input schema.
func (g *Graph) CustomSystemInput() (*models.JSONSchema, error) {
	contract, err := g.Contract()
	if err != nil {
		return nil, err
	}

	return contract.CustomSystemInput, nil
}

// Output returns the flow's output schema.
func (g *Graph) Output() (*models.JSONSchema, error) {
	contract, err := g.Contract()
	if err != nil {
		return nil, err
	}

	return contract.Output, nil
}

func (g *Graph) rebuild() error {
	index, err := Build(g.nodes)
	if err != nil {
		g.Invalidate()

		return err
	}

	g.index = index
	g.contract = nil
	g.valid = true

	return nil
}
