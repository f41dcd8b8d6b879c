package sim

import (
	"fmt"
	"math/rand"

	"github.com/flaxos/Pizzatorio/internal/catalog"
	"github.com/flaxos/Pizzatorio/internal/config"
	"github.com/flaxos/Pizzatorio/internal/snapshot"
)

// Snapshot captures the complete session state. Restoring the result
// with the same catalog and tuning yields a Sim whose future ticks are
// identical to this one's.
func (s *Sim) Snapshot(sessionID string) *snapshot.State {
	tiles := s.grid.Tiles()
	gs := snapshot.GridState{
		Width:  s.grid.Width(),
		Height: s.grid.Height(),
		Tiles:  make([]snapshot.TileState, len(tiles)),
	}
	for i, t := range tiles {
		gs.Tiles[i] = snapshot.TileState{Kind: string(t.Kind), Rot: t.Rot}
	}

	items := make([]snapshot.ItemState, len(s.items))
	for i, it := range s.items {
		items[i] = snapshot.ItemState{
			X: it.X, Y: it.Y, Progress: it.Progress,
			Stage:         string(it.Stage),
			Ingredient:    it.Ingredient,
			RecipeKey:     it.RecipeKey,
			DeliveryBoost: it.DeliveryBoost,
		}
	}

	orders := make([]snapshot.OrderState, len(s.orders))
	for i, o := range s.orders {
		orders[i] = snapshot.OrderState{
			ID: o.ID, RecipeKey: o.RecipeKey, Channel: o.Channel,
			CreatedAt: o.CreatedAt, Deadline: o.Deadline,
			Reward: o.Reward, Status: string(o.Status),
		}
	}

	deliveries := make([]snapshot.DeliveryState, len(s.deliveries))
	for i, d := range s.deliveries {
		deliveries[i] = snapshot.DeliveryState{
			OrderID: d.OrderID, RecipeKey: d.RecipeKey, Channel: d.Channel,
			Mode: d.Mode, Remaining: d.Remaining, Duration: d.Duration,
			Elapsed: d.Elapsed, Deadline: d.Deadline, Reward: d.Reward,
		}
	}

	window := make([]bool, len(s.slaWindow))
	copy(window, s.slaWindow)

	return &snapshot.State{
		Version:   snapshot.Version,
		SessionID: sessionID,

		Seed:  s.seed,
		Draws: s.src.draws,
		Time:  s.time,
		Ticks: s.ticks,

		Channel:        s.channel,
		Commercial:     s.commercial,
		CampaignExpiry: s.campaignExpiry,

		SpawnTimer:      s.spawnTimer,
		OrderSpawnTimer: s.orderSpawnTimer,

		Hygiene:          s.hygiene,
		LastHygieneEvent: s.lastHygieneEvent,
		Bottleneck:       s.bottleneck,

		ExpansionLevel:    s.expansionLevel,
		ExpansionProgress: s.expansionProgress,

		AutoBotCharge: s.autoBotCharge,
		OrderSeq:      s.orderSeq,

		Grid:       gs,
		Items:      items,
		Orders:     orders,
		Deliveries: deliveries,
		Research: snapshot.ResearchState{
			Points:   s.research.Points,
			Focus:    s.research.Focus,
			Unlocked: s.research.Unlocked(),
		},
		Economy: snapshot.EconomyState{
			Cash:       s.economy.Cash,
			Revenue:    s.economy.Revenue,
			Spend:      s.economy.Spend,
			Waste:      s.economy.Waste,
			Reputation: s.economy.Reputation,
		},
		Counters: snapshot.CounterState{
			Spawned: s.spawned, Wasted: s.wasted, Produced: s.produced,
			Resolved: s.resolved, OnTime: s.ontime, Late: s.late, Missed: s.missed,
		},

		SLAWindow: window,
		SLANext:   s.slaNext,
		SLAFilled: s.slaFilled,
	}
}

// Restore rebuilds a Sim from a snapshot against the given catalog and
// tuning. The PRNG is re-seeded and fast-forwarded by the recorded
// draw count, so the restored stream continues exactly where the saved
// one left off. References the catalog no longer resolves are
// SaveLoadErrors: a snapshot must never half-apply.
func Restore(st *snapshot.State, cat *catalog.Catalog, tun config.Tuning) (*Sim, error) {
	if err := validateRefs(st, cat); err != nil {
		return nil, err
	}
	if len(st.Grid.Tiles) != st.Grid.Width*st.Grid.Height {
		return nil, &snapshot.SaveLoadError{
			Op:     "decode",
			Reason: fmt.Sprintf("%d tiles for a %dx%d grid", len(st.Grid.Tiles), st.Grid.Width, st.Grid.Height),
		}
	}

	src := newCountingSource(st.Seed)
	src.fastForward(st.Draws)

	s := &Sim{
		cat:  cat,
		tun:  tun,
		grid: NewGrid(st.Grid.Width, st.Grid.Height),
		seed: st.Seed,
		src:  src,
		rng:  rand.New(src),

		time:  st.Time,
		ticks: st.Ticks,

		channel:        st.Channel,
		commercial:     st.Commercial,
		campaignExpiry: st.CampaignExpiry,

		spawnTimer:      st.SpawnTimer,
		orderSpawnTimer: st.OrderSpawnTimer,

		hygiene:          st.Hygiene,
		lastHygieneEvent: st.LastHygieneEvent,
		bottleneck:       st.Bottleneck,

		expansionLevel:    st.ExpansionLevel,
		expansionProgress: st.ExpansionProgress,

		autoBotCharge: st.AutoBotCharge,
		orderSeq:      st.OrderSeq,

		spawned:  st.Counters.Spawned,
		wasted:   st.Counters.Wasted,
		produced: st.Counters.Produced,
		resolved: st.Counters.Resolved,
		ontime:   st.Counters.OnTime,
		late:     st.Counters.Late,
		missed:   st.Counters.Missed,

		slaNext:   st.SLANext,
		slaFilled: st.SLAFilled,
	}

	tiles := make([]Tile, len(st.Grid.Tiles))
	for i, t := range st.Grid.Tiles {
		kind := TileKind(t.Kind)
		if !validTileKind(kind) {
			return nil, &snapshot.SaveLoadError{Op: "decode", Reason: fmt.Sprintf("unknown tile kind %q", t.Kind)}
		}
		tiles[i] = Tile{Kind: kind, Rot: ((t.Rot % 4) + 4) % 4}
	}
	if err := s.grid.SetTiles(tiles); err != nil {
		return nil, &snapshot.SaveLoadError{Op: "decode", Reason: "grid layout", Err: err}
	}

	s.items = make([]Item, len(st.Items))
	for i, it := range st.Items {
		stage := Stage(it.Stage)
		switch stage {
		case StageRaw, StageProcessed, StageBaked:
		default:
			return nil, &snapshot.SaveLoadError{Op: "decode", Reason: fmt.Sprintf("unknown item stage %q", it.Stage)}
		}
		s.items[i] = Item{
			X: it.X, Y: it.Y, Progress: it.Progress,
			Stage:         stage,
			Ingredient:    it.Ingredient,
			RecipeKey:     it.RecipeKey,
			DeliveryBoost: it.DeliveryBoost,
		}
	}

	s.orders = make([]Order, len(st.Orders))
	for i, o := range st.Orders {
		s.orders[i] = Order{
			ID: o.ID, RecipeKey: o.RecipeKey, Channel: o.Channel,
			CreatedAt: o.CreatedAt, Deadline: o.Deadline,
			Reward: o.Reward, Status: OrderStatus(o.Status),
		}
	}

	s.deliveries = make([]Delivery, len(st.Deliveries))
	for i, d := range st.Deliveries {
		s.deliveries[i] = Delivery{
			OrderID: d.OrderID, RecipeKey: d.RecipeKey, Channel: d.Channel,
			Mode: d.Mode, Remaining: d.Remaining, Duration: d.Duration,
			Elapsed: d.Elapsed, Deadline: d.Deadline, Reward: d.Reward,
		}
	}

	s.research = NewResearch(cat.Research)
	s.research.restore(st.Research.Unlocked)
	s.research.Points = st.Research.Points
	s.research.Focus = st.Research.Focus

	s.economy = Economy{
		Cash:       st.Economy.Cash,
		Revenue:    st.Economy.Revenue,
		Spend:      st.Economy.Spend,
		Waste:      st.Economy.Waste,
		Reputation: st.Economy.Reputation,
	}

	s.slaWindow = make([]bool, tun.SLAWindowSize)
	n := copy(s.slaWindow, st.SLAWindow)
	if s.slaFilled > n {
		s.slaFilled = n
	}
	if len(s.slaWindow) > 0 {
		s.slaNext %= len(s.slaWindow)
	} else {
		s.slaNext = 0
	}

	s.logEvent("session restored")
	return s, nil
}

// validateRefs checks every catalog reference a snapshot carries.
func validateRefs(st *snapshot.State, cat *catalog.Catalog) error {
	if st.Channel != "" && cat.Channel(st.Channel) == nil {
		return &snapshot.SaveLoadError{Op: "decode", Reason: fmt.Sprintf("channel %q not in catalog", st.Channel)}
	}
	if st.Commercial != "" && cat.Commercial(st.Commercial) == nil {
		return &snapshot.SaveLoadError{Op: "decode", Reason: fmt.Sprintf("commercial %q not in catalog", st.Commercial)}
	}
	for _, k := range st.Research.Unlocked {
		if cat.ResearchNode(k) == nil {
			return &snapshot.SaveLoadError{Op: "decode", Reason: fmt.Sprintf("research %q not in catalog", k)}
		}
	}
	for _, o := range st.Orders {
		if cat.Recipe(o.RecipeKey) == nil {
			return &snapshot.SaveLoadError{Op: "decode", Reason: fmt.Sprintf("order %d recipe %q not in catalog", o.ID, o.RecipeKey)}
		}
		if cat.Channel(o.Channel) == nil {
			return &snapshot.SaveLoadError{Op: "decode", Reason: fmt.Sprintf("order %d channel %q not in catalog", o.ID, o.Channel)}
		}
	}
	for _, d := range st.Deliveries {
		if cat.Recipe(d.RecipeKey) == nil {
			return &snapshot.SaveLoadError{Op: "decode", Reason: fmt.Sprintf("delivery for order %d recipe %q not in catalog", d.OrderID, d.RecipeKey)}
		}
		if cat.Channel(d.Channel) == nil {
			return &snapshot.SaveLoadError{Op: "decode", Reason: fmt.Sprintf("delivery for order %d channel %q not in catalog", d.OrderID, d.Channel)}
		}
		if d.Mode != ModeDrone && d.Mode != ModeScooter {
			return &snapshot.SaveLoadError{Op: "decode", Reason: fmt.Sprintf("delivery for order %d unknown vehicle %q", d.OrderID, d.Mode)}
		}
	}
	return nil
}

func validTileKind(k TileKind) bool {
	switch k {
	case TileEmpty, TileConveyor, TileProcessor, TileOven, TileBotDock, TileAssembly, TileSource, TileSink:
		return true
	}
	return false
}
