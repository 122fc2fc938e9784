package visualization

import (
	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

// Store is the arena holding the live graph. Nodes are addressed by index
// within one structural version; across versions they are matched by id.
//
// Field ownership: the force integrator writes positions and velocities, the
// interaction controller writes pins, the renderer only reads.
type Store struct {
	Nodes   []Node
	Springs []Spring

	index   map[string]int
	version uint64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Version increments whenever ingestion changes the graph.
func (s *Store) Version() uint64 { return s.version }

// Len returns the number of nodes
func (s *Store) Len() int { return len(s.Nodes) }

// Lookup returns the index of a node by id
func (s *Store) Lookup(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Node returns a pointer to the live node, or nil.
func (s *Store) Node(id string) *Node {
	if i, ok := s.index[id]; ok {
		return &s.Nodes[i]
	}
	return nil
}

// SetPin fixes a node at (x, y). Non-finite targets are ignored.
func (s *Store) SetPin(id string, x, y float64) bool {
	n := s.Node(id)
	if n == nil || !geometry.Finite(x, y) {
		return false
	}
	n.Pin = &Pin{X: x, Y: y}
	return true
}

// ClearPin releases a node back to the simulation.
func (s *Store) ClearPin(id string) bool {
	n := s.Node(id)
	if n == nil || n.Pin == nil {
		return false
	}
	n.Pin = nil
	return true
}

func (s *Store) replace(nodes []Node, springs []Spring, changed bool) {
	index := make(map[string]int, len(nodes))
	for i := range nodes {
		index[nodes[i].ID] = i
	}
	s.Nodes = nodes
	s.Springs = springs
	s.index = index
	if changed {
		s.version++
	}
}
