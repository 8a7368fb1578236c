package runtime

import "github.com/aretw0/dockwise/pkg/domain"

type location struct {
	node  *domain.DialogNode
	entry int
}

// Index is an arena of the nodes of an assembled tree keyed by id, plus a
// name index used to resolve jumps. It is built once and never modified.
type Index struct {
	root  *domain.DialogNode
	nodes map[string]*domain.DialogNode
	names map[string]location
}

// NewIndex walks the tree in pre-order. When several entries share a name,
// the first one visited wins.
func NewIndex(root *domain.DialogNode) *Index {
	ix := &Index{
		root:  root,
		nodes: make(map[string]*domain.DialogNode),
		names: make(map[string]location),
	}
	ix.add(root)
	return ix
}

func (ix *Index) add(n *domain.DialogNode) {
	if _, ok := ix.nodes[n.ID]; !ok {
		ix.nodes[n.ID] = n
	}
	for i, e := range n.Stack {
		if _, ok := ix.names[e.Name]; !ok {
			ix.names[e.Name] = location{node: n, entry: i}
		}
		if e.Dialog != nil {
			ix.add(e.Dialog)
		}
	}
}

// Root returns the tree root.
func (ix *Index) Root() *domain.DialogNode {
	return ix.root
}

// Node returns the node with the given id.
func (ix *Index) Node(id string) (*domain.DialogNode, bool) {
	n, ok := ix.nodes[id]
	return n, ok
}

// Locate finds the first entry named name anywhere in the tree and the node that owns it.
func (ix *Index) Locate(name string) (*domain.DialogNode, domain.StackEntry, bool) {
	loc, ok := ix.names[name]
	if !ok {
		return nil, domain.StackEntry{}, false
	}
	return loc.node, loc.node.Stack[loc.entry], true
}

// Nodes returns the number of indexed nodes.
func (ix *Index) Nodes() int {
	return len(ix.nodes)
}
