package sim

import (
	"fmt"
	"sort"

	"github.com/flaxos/Pizzatorio/internal/catalog"
)

// Research tracks the prerequisite-gated unlock graph. Unlocks are
// monotonic: a node flips to unlocked exactly once and never re-locks.
// Points are cumulative XP; reaching a node's cost does not spend
// them.
type Research struct {
	nodes    []catalog.ResearchNode
	unlocked map[string]bool

	Points float64
	Focus  string
}

// NewResearch builds the locked state for a catalog's research graph.
func NewResearch(nodes []catalog.ResearchNode) Research {
	return Research{
		nodes:    nodes,
		unlocked: make(map[string]bool, len(nodes)),
	}
}

// Has reports whether a node is unlocked. Unknown keys are locked.
func (r *Research) Has(key string) bool { return r.unlocked[key] }

// Unlocked returns the sorted set of unlocked node keys.
func (r *Research) Unlocked() []string {
	out := make([]string, 0, len(r.unlocked))
	for k, ok := range r.unlocked {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// prereqsMet reports whether every prerequisite of key is unlocked in
// the given set.
func (r *Research) prereqsMet(key string, unlocked map[string]bool) bool {
	for _, n := range r.nodes {
		if n.Key != key {
			continue
		}
		for _, p := range n.Prerequisites {
			if !unlocked[p] {
				return false
			}
		}
		return true
	}
	return false
}

// available lists locked nodes whose prerequisites are satisfied, in
// catalog order (cost then key).
func (r *Research) available() []string {
	var out []string
	for _, n := range r.nodes {
		if !r.unlocked[n.Key] && r.prereqsMet(n.Key, r.unlocked) {
			out = append(out, n.Key)
		}
	}
	return out
}

// restore force-unlocks a set of node keys, used when applying a
// snapshot. Unknown keys are ignored.
func (r *Research) restore(keys []string) {
	for _, k := range keys {
		for _, n := range r.nodes {
			if n.Key == k {
				r.unlocked[k] = true
				break
			}
		}
	}
}

// stepResearch runs the per-tick unlock pass: the player's focused
// node first, then an auto-unlock sweep over the node set as it stood
// at the start of the pass. Evaluating against the tick-start set
// keeps chained unlocks from cascading within a single tick, which
// would make unlock timing depend on map iteration order.
func (s *Sim) stepResearch() {
	if s.tryUnlockFocus() {
		return
	}

	snapshot := make(map[string]bool, len(s.research.unlocked))
	for k, v := range s.research.unlocked {
		snapshot[k] = v
	}
	for _, n := range s.research.nodes {
		if snapshot[n.Key] {
			continue
		}
		if !s.research.prereqsMet(n.Key, snapshot) {
			continue
		}
		if s.research.Points >= n.Cost {
			s.research.unlocked[n.Key] = true
			s.logEvent(fmt.Sprintf("research auto-unlocked: %s", n.Key))
		}
	}
}

// tryUnlockFocus unlocks the focused node when affordable. Clears the
// focus on success.
func (s *Sim) tryUnlockFocus() bool {
	key := s.research.Focus
	if key == "" || s.research.unlocked[key] {
		return false
	}
	if !s.research.prereqsMet(key, s.research.unlocked) {
		return false
	}
	node := s.cat.ResearchNode(key)
	if node == nil || s.research.Points < node.Cost {
		return false
	}
	s.research.unlocked[key] = true
	s.research.Focus = ""
	s.logEvent(fmt.Sprintf("research unlocked: %s", key))
	return true
}

// ResearchState is the read-only research view.
type ResearchState struct {
	Points   float64  `json:"points"`
	Focus    string   `json:"focus"`
	Unlocked []string `json:"unlocked"`
	Pending  []string `json:"pending"` // locked nodes with prerequisites met
}

// ResearchState returns a copy of the current research state.
func (s *Sim) ResearchState() ResearchState {
	return ResearchState{
		Points:   s.research.Points,
		Focus:    s.research.Focus,
		Unlocked: s.research.Unlocked(),
		Pending:  s.research.available(),
	}
}
