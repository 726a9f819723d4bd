package graph

import (
	"github.com/dukex/flowforge/pkg/models"
)

// Index is the lookup structure built from a node list.
type Index struct {
	nodesByID       map[string]*models.Node
	nodesByParentID map[string][]*models.Node
	start           *models.Node
	end             *models.Node
}

// Build indexes nodes in a single pass.
//
// A repeated node id (at any depth) and a second top-level start node fail with
// models.ErrValidationFailed. Only the first top-level end node is recorded; later ones are ignored.
func Build(nodes []*models.Node) (*Index, error) {
	index := &Index{
		nodesByID:       make(map[string]*models.Node, len(nodes)),
		nodesByParentID: make(map[string][]*models.Node),
	}

	for _, node := range nodes {
		if node == nil {
			continue
		}

		if _, exists := index.nodesByID[node.NodeID]; exists {
			return nil, models.NewNodeValidationError(node, "duplicate node id "+node.NodeID, nil)
		}

		index.nodesByID[node.NodeID] = node

		if !node.IsTopLevel() {
			index.nodesByParentID[node.ParentID] = append(index.nodesByParentID[node.ParentID], node)

			continue
		}

		if node.IsStart() {
			if index.start != nil {
				return nil, models.NewNodeValidationError(node,
					"only one start node is allowed, already have "+index.start.NodeID, nil)
			}

			index.start = node
		}

		if node.IsEnd() && index.end == nil {
			index.end = node
		}
	}

	return index, nil
}

// Node returns the node with id.
func (i *Index) Node(id string) (*models.Node, bool) {
	node, ok := i.nodesByID[id]

	return node, ok
}

// Children returns the nodes whose ParentID is parentID.
func (i *Index) Children(parentID string) []*models.Node {
	return i.nodesByParentID[parentID]
}

// Start returns the top-level start node, or nil.
func (i *Index) Start() *models.Node {
	return i.start
}

// End returns the recognized top-level end node, or nil.
func (i *Index) End() *models.Node {
	return i.end
}

// Len returns the number of indexed nodes.
func (i *Index) Len() int {
	return len(i.nodesByID)
}
