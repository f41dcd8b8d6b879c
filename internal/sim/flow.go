package sim

import (
	"fmt"
	"math"
	"sort"
)

// Item flow. Items are advanced in slice order, which is spawn order
// and never reshuffled: contention for a tile resolves identically on
// every run. Tile exclusivity is enforced by holding an item in place
// whenever its destination is occupied, which stalls the whole
// upstream chain one tile at a time (the belt congestion mechanic).

// spawnItem creates a new raw ingredient on the source tile. Returns
// false when the source is still occupied so the caller can retry.
func (s *Sim) spawnItem() bool {
	sx, sy := s.grid.Source()
	if sx < 0 {
		return false
	}
	for i := range s.items {
		if s.items[i].X == sx && s.items[i].Y == sy {
			return false
		}
	}

	names := make([]string, 0, len(s.tun.IngredientSpawnWeights))
	for name := range s.tun.IngredientSpawnWeights {
		names = append(names, name)
	}
	sort.Strings(names)
	idx := weightedIndex(s.rng, len(names), func(i int) float64 {
		return s.tun.IngredientSpawnWeights[names[i]]
	})

	s.items = append(s.items, Item{X: sx, Y: sy, Stage: StageRaw, Ingredient: names[idx]})
	s.spawned++
	return true
}

// tileSpeed returns the fractional tile progress per simulated second
// for an item sitting on the given tile.
func (s *Sim) tileSpeed(kind TileKind) float64 {
	switch kind {
	case TileProcessor:
		return 0.5 + s.hygiene/220.0
	case TileOven:
		speed := 0.35 + s.hygiene/280.0
		if s.research.Has("turbo_oven") {
			speed += s.tun.TurboOvenSpeedBonus
		}
		return speed
	case TileAssembly:
		return s.tun.AssemblyTableSpeed
	default:
		speed := 1.0
		if s.research.Has("turbo_belts") {
			speed += s.tun.TurboBeltBonus
		}
		return speed
	}
}

// stepItems advances every item, applies machine stage transitions,
// routes items downstream and feeds finished items into order
// resolution. Also recomputes the bottleneck measure: the fraction of
// processors and ovens that are busy and blocked.
func (s *Sim) stepItems(dt float64) {
	occupied := make(map[[2]int]bool, len(s.items))
	for i := range s.items {
		occupied[[2]int{s.items[i].X, s.items[i].Y}] = true
	}

	removed := make([]bool, len(s.items))
	blockedMachines := 0

	for i := range s.items {
		it := &s.items[i]
		tile := s.grid.At(it.X, it.Y)

		before := it.Progress
		it.Progress += dt * s.tileSpeed(tile.Kind)
		if it.Progress < 1 {
			continue
		}
		it.Progress = 1

		// Apply the machine transition exactly once, on the tick the
		// item finishes crossing. A held item re-enters here with
		// before == 1 and skips it.
		if before < 1 {
			if !s.applyTransition(it, tile.Kind) {
				// Stage mismatch on a transforming machine: reject.
				delete(occupied, [2]int{it.X, it.Y})
				removed[i] = true
				s.wasted++
				s.economy.Waste++
				s.logEvent(fmt.Sprintf("%s rejected %s item", tile.Kind, it.Stage))
				continue
			}
			if tile.Kind == TileAssembly && it.RecipeKey == "" && len(s.orders) > 0 {
				it.RecipeKey = s.orders[0].RecipeKey
			}
		}

		if tile.Kind == TileEmpty {
			// Part removed underneath a travelling item: stranded
			// until something is rebuilt here.
			continue
		}

		nx, ny := s.grid.NextTile(it.X, it.Y)
		next := s.grid.At(nx, ny)

		if next.Kind == TileSink {
			delete(occupied, [2]int{it.X, it.Y})
			removed[i] = true
			s.consumeAtSink(it)
			continue
		}

		blocked := !s.grid.InBounds(nx, ny) ||
			next.Kind == TileEmpty ||
			occupied[[2]int{nx, ny}]
		if blocked {
			if tile.Kind == TileProcessor || tile.Kind == TileOven {
				blockedMachines++
			}
			continue
		}

		delete(occupied, [2]int{it.X, it.Y})
		occupied[[2]int{nx, ny}] = true
		it.X, it.Y = nx, ny
		it.Progress = 0
	}

	s.items = compactItems(s.items, removed)

	machines := 0
	for _, t := range s.grid.Tiles() {
		if t.Kind == TileProcessor || t.Kind == TileOven {
			machines++
		}
	}
	if machines == 0 {
		s.bottleneck = 0
	} else {
		s.bottleneck = clamp(float64(blockedMachines)/float64(machines)*100.0, 0, 100)
	}
}

// applyTransition mutates the item per the tile's stage transition.
// Returns false when the item's stage does not match a transforming
// machine's input, which rejects the item to waste.
func (s *Sim) applyTransition(it *Item, kind TileKind) bool {
	tr, ok := stageTransitions[kind]
	if !ok {
		return true // belts, assembly, source: pass through
	}
	if it.Stage != tr.from {
		// Bot docks boost finished goods; anything else just rides
		// past them. Processors and ovens reject wrong-stage input.
		return kind == TileBotDock
	}
	it.Stage = tr.to
	s.research.Points += tr.researchGain
	if tr.boost > 0 {
		it.DeliveryBoost = tr.boost
	}
	return true
}

// consumeAtSink destroys an item at the sink: a baked item tries to
// resolve the oldest compatible pending order, anything else is waste.
func (s *Sim) consumeAtSink(it *Item) {
	if it.Stage != StageBaked {
		s.wasted++
		s.economy.Waste++
		s.logEvent(fmt.Sprintf("sink rejected %s item", it.Stage))
		return
	}

	order, ok := s.takeOrderForItem(it)
	if !ok {
		s.wasted++
		s.economy.Waste++
		if s.research.Has("precision_cooking") && len(s.cat.Recipes) > 0 {
			refund := int(math.Round(float64(s.cat.Recipes[0].SellPrice) * s.tun.PrecisionCookingWasteRefund))
			s.economy.creditRevenue(refund)
		}
		s.logEvent("finished item had no matching order")
		return
	}

	s.produced++
	s.dispatch(order, it.DeliveryBoost)
}

// compactItems removes flagged entries preserving order.
func compactItems(items []Item, removed []bool) []Item {
	out := items[:0]
	for i := range items {
		if !removed[i] {
			out = append(out, items[i])
		}
	}
	return out
}
