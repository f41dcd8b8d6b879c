package sim

import "fmt"

// Command API. This is the only mutation surface besides Tick; UI and
// CLI layers never touch simulation state directly. Every command
// either fully applies or rejects with no state change.

// researchLocks maps part kinds to the research node gating them.
var researchLocks = map[TileKind]string{
	TileOven:    "ovens",
	TileBotDock: "bots",
}

// Place builds a part on an empty tile, charging its build cost.
// Fails with a PlacementError for spatial problems (bounds, occupancy,
// protected tiles), a CommandError for research-locked kinds, and an
// EconomyError when cash cannot cover the cost. Nothing is mutated on
// failure.
func (s *Sim) Place(x, y int, kind TileKind, rot int) error {
	switch kind {
	case TileConveyor, TileProcessor, TileOven, TileBotDock, TileAssembly:
	default:
		return &PlacementError{X: x, Y: y, Kind: kind, Reason: "not a buildable part"}
	}
	if lock, ok := researchLocks[kind]; ok && !s.research.Has(lock) {
		return &CommandError{Command: "place", Reason: fmt.Sprintf("%s requires research %q", kind, lock)}
	}
	if !s.grid.InBounds(x, y) {
		return &PlacementError{X: x, Y: y, Kind: kind, Reason: "out of bounds"}
	}
	if cur := s.grid.At(x, y); cur.Kind != TileEmpty {
		if cur.Kind == TileSource || cur.Kind == TileSink {
			return &PlacementError{X: x, Y: y, Kind: kind, Reason: "source and sink tiles are fixed"}
		}
		return &PlacementError{X: x, Y: y, Kind: kind, Reason: fmt.Sprintf("tile occupied by %s", cur.Kind)}
	}

	cost := s.tun.MachineBuildCosts[string(kind)]
	if err := s.economy.debit(cost, fmt.Sprintf("build %s", kind)); err != nil {
		return err
	}
	if err := s.grid.Place(x, y, kind, rot); err != nil {
		// Checks above make this unreachable; refund to stay honest
		// about the no-partial-mutation contract.
		s.economy.Cash += cost
		s.economy.Spend -= cost
		return err
	}
	s.logEvent(fmt.Sprintf("built %s at (%d,%d)", kind, x, y))
	return nil
}

// Remove demolishes a part. Demolition is free; source and sink are
// protected.
func (s *Sim) Remove(x, y int) error {
	if err := s.grid.Remove(x, y); err != nil {
		return err
	}
	s.logEvent(fmt.Sprintf("removed part at (%d,%d)", x, y))
	return nil
}

// Rotate cycles a part's orientation.
func (s *Sim) Rotate(x, y int) error {
	return s.grid.Rotate(x, y)
}

// SetChannel switches the active order channel. Channels are gated by
// reputation.
func (s *Sim) SetChannel(key string) error {
	ch := s.cat.Channel(key)
	if ch == nil {
		return &CommandError{Command: "set-channel", Reason: fmt.Sprintf("unknown channel %q", key)}
	}
	if s.economy.Reputation < ch.MinReputation {
		return &CommandError{
			Command: "set-channel",
			Reason:  fmt.Sprintf("channel %q needs reputation %.0f (have %.0f)", key, ch.MinReputation, s.economy.Reputation),
		}
	}
	if key != s.channel {
		s.logEvent(fmt.Sprintf("order channel switched to %s", key))
	}
	s.channel = key
	return nil
}

// ActivateCommercial starts a campaign: a one-time activation charge
// buying a timed demand/reward modifier. Re-activating the running
// campaign is a no-op; switching campaigns charges again.
func (s *Sim) ActivateCommercial(key string) error {
	c := s.cat.Commercial(key)
	if c == nil {
		return &CommandError{Command: "activate", Reason: fmt.Sprintf("unknown commercial %q", key)}
	}
	if c.RequiredResearch != "" && !s.research.Has(c.RequiredResearch) {
		return &CommandError{Command: "activate", Reason: fmt.Sprintf("commercial %q requires research %q", key, c.RequiredResearch)}
	}
	if key == s.commercial {
		return nil
	}
	if err := s.economy.debit(c.ActivationCost, fmt.Sprintf("activate %s", key)); err != nil {
		return err
	}
	s.commercial = key
	if c.Duration > 0 {
		s.campaignExpiry = s.time + c.Duration
	} else {
		s.campaignExpiry = 0
	}
	s.logEvent(fmt.Sprintf("commercial %s activated (-$%d)", key, c.ActivationCost))
	return nil
}

// SetResearchFocus aims accumulated XP at a specific locked node.
// An empty key clears the focus.
func (s *Sim) SetResearchFocus(key string) error {
	if key == "" {
		s.research.Focus = ""
		return nil
	}
	node := s.cat.ResearchNode(key)
	if node == nil {
		return &CommandError{Command: "focus", Reason: fmt.Sprintf("unknown research %q", key)}
	}
	if s.research.Has(key) {
		return &CommandError{Command: "focus", Reason: fmt.Sprintf("research %q already unlocked", key)}
	}
	if !s.research.prereqsMet(key, s.research.unlocked) {
		return &CommandError{Command: "focus", Reason: fmt.Sprintf("research %q has locked prerequisites", key)}
	}
	s.research.Focus = key
	s.logEvent(fmt.Sprintf("research focus set: %s", key))
	return nil
}

// CycleResearchFocus advances the focus through the available locked
// nodes in catalog order, returning the new focus ("" when nothing is
// available).
func (s *Sim) CycleResearchFocus() string {
	available := s.research.available()
	if len(available) == 0 {
		s.research.Focus = ""
		return ""
	}
	cur := -1
	for i, k := range available {
		if k == s.research.Focus {
			cur = i
			break
		}
	}
	s.research.Focus = available[(cur+1)%len(available)]
	return s.research.Focus
}
