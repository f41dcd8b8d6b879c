// Package sim implements the deterministic Pizzatorio factory core.
//
// A Sim owns every piece of simulation state: the grid, items in
// flight, the order book, deliveries, the research graph, the economy
// ledger and the derived KPIs. All mutation happens either inside
// Tick or through the explicit command API; readers get copies.
//
// Determinism: all randomness is drawn from the single PRNG owned by
// the Sim, update order across subsystems and across items is fixed,
// and no wall-clock time is ever consulted. Two runs with the same
// seed, dt, tick count and command sequence produce identical state.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/flaxos/Pizzatorio/internal/catalog"
	"github.com/flaxos/Pizzatorio/internal/config"
)

// DefaultSeed seeds a Sim when the caller does not care.
const DefaultSeed int64 = 7

// Research gain granted when a delivery resolves on time.
const deliveryResearchGain = 0.3

// eventLogSize bounds the in-sim event ring.
const eventLogSize = 12

// Sim is the complete simulation state. Not safe for concurrent use;
// drive it from a single goroutine.
type Sim struct {
	cat *catalog.Catalog
	tun config.Tuning

	grid       *Grid
	items      []Item
	orders     []Order
	deliveries []Delivery

	seed int64
	src  *countingSource
	rng  *rand.Rand

	time  float64
	ticks int64

	spawnTimer      float64
	orderSpawnTimer float64

	hygiene          float64
	lastHygieneEvent float64
	bottleneck       float64

	expansionLevel    int
	expansionProgress float64

	research Research
	economy  Economy

	channel        string
	commercial     string
	campaignExpiry float64

	autoBotCharge float64

	orderSeq int64

	// Conservation ledger: spawned == in-flight + wasted + produced
	// at every tick boundary.
	spawned  int64
	wasted   int64
	produced int64

	resolved int64
	ontime   int64
	late     int64
	missed   int64

	slaWindow []bool
	slaNext   int
	slaFilled int

	events []string

	debug bool
}

// New builds a Sim from a catalog and tuning, seeds the PRNG, and
// lays out the starter factory.
func New(seed int64, cat *catalog.Catalog, tun config.Tuning) *Sim {
	src := newCountingSource(seed)
	s := &Sim{
		cat:            cat,
		tun:            tun,
		grid:           NewGrid(tun.GridWidth, tun.GridHeight),
		seed:           seed,
		src:            src,
		rng:            rand.New(src),
		hygiene:        100.0,
		expansionLevel: 1,
		slaWindow:      make([]bool, tun.SLAWindowSize),
	}
	s.economy = Economy{Cash: tun.StartingMoney, Reputation: tun.ReputationStarting}
	s.research = NewResearch(cat.Research)
	s.channel = s.defaultChannel()
	s.grid.PlaceStaticWorld()
	s.logEvent("factory initialized")
	return s
}

// defaultChannel prefers "delivery", falling back to the first channel
// in catalog order.
func (s *Sim) defaultChannel() string {
	if s.cat.Channel("delivery") != nil {
		return "delivery"
	}
	if len(s.cat.Channels) > 0 {
		return s.cat.Channels[0].Key
	}
	return ""
}

// Tick advances the simulation by dt simulated seconds. The subsystem
// order is fixed: spawning, hygiene, item flow (which feeds order
// resolution and delivery dispatch), research, bot docks, expansion,
// order expiry, delivery arrival, campaign expiry, KPI refresh.
func (s *Sim) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	s.time += dt
	s.ticks++

	s.stepSpawning(dt)
	s.stepHygiene(dt)
	s.stepItems(dt)
	s.stepResearch()
	s.stepBotDocks(dt)
	s.stepExpansion(dt)
	s.stepOrderExpiry()
	s.stepDeliveries(dt)
	s.stepCampaign()

	s.checkConservation()
}

// stepSpawning runs the item and order spawn timers. An item spawn is
// skipped (and retried next tick) while the source tile is occupied,
// preserving tile exclusivity at the boundary.
func (s *Sim) stepSpawning(dt float64) {
	s.spawnTimer += dt
	s.orderSpawnTimer += dt

	itemInterval := s.tun.ItemSpawnInterval
	if s.research.Has("double_spawn") {
		itemInterval /= s.tun.DoubleSpawnIntervalDivisor
	}
	if s.spawnTimer >= itemInterval {
		if s.spawnItem() {
			s.spawnTimer = 0
		}
	}

	orderInterval := s.tun.OrderSpawnInterval / s.campaignDemandMultiplier()
	if s.orderSpawnTimer >= orderInterval {
		s.orderSpawnTimer = 0
		s.spawnOrder()
	}
}

// stepHygiene applies the stochastic degrade event or passive
// recovery toward the 100 baseline.
func (s *Sim) stepHygiene(dt float64) {
	recovery := s.tun.HygieneRecoveryRate
	if s.research.Has("hygiene_training") {
		recovery += s.tun.HygieneTrainingBonus
	}

	offCooldown := s.time-s.lastHygieneEvent > s.tun.HygieneEventCooldown
	if offCooldown && s.rng.Float64() < s.tun.HygieneEventChance {
		s.lastHygieneEvent = s.time
		loss := 8 + s.rng.Float64()*12
		s.hygiene = clamp(s.hygiene-loss, 0, 100)
		s.logEvent(fmt.Sprintf("hygiene incident (-%.0f)", loss))
	} else {
		s.hygiene = clamp(s.hygiene+dt*recovery, 0, 100)
	}
}

// stepExpansion accumulates passive expansion progress and advances
// the tier. Delivered orders add their bonus separately, at settle
// time.
func (s *Sim) stepExpansion(dt float64) {
	s.expansionProgress += dt * s.tun.ExpansionProgressRate

	needed := s.tun.ExpansionBaseNeeded * float64(s.expansionLevel)
	if s.expansionProgress >= needed {
		s.expansionProgress -= needed
		s.expansionLevel++
		s.logEvent(fmt.Sprintf("expanded to tier %d", s.expansionLevel))
	}
}

// stepCampaign drops an expired campaign modifier.
func (s *Sim) stepCampaign() {
	if s.commercial == "" || s.campaignExpiry <= 0 {
		return
	}
	if s.time >= s.campaignExpiry {
		s.logEvent(fmt.Sprintf("campaign %s expired", s.commercial))
		s.commercial = ""
		s.campaignExpiry = 0
	}
}

func (s *Sim) campaignDemandMultiplier() float64 {
	if c := s.activeCommercial(); c != nil {
		return c.DemandMultiplier
	}
	return 1.0
}

func (s *Sim) campaignRewardMultiplier() float64 {
	if c := s.activeCommercial(); c != nil {
		return c.RewardMultiplier
	}
	return 1.0
}

func (s *Sim) activeCommercial() *catalog.Commercial {
	if s.commercial == "" {
		return nil
	}
	return s.cat.Commercial(s.commercial)
}

// addDeliveryExpansion credits the expansion progress a completed
// delivery earns, scaled up once the franchise system is researched.
func (s *Sim) addDeliveryExpansion() {
	mult := 1.0
	if s.research.Has("franchise_system") {
		mult = s.tun.FranchiseExpansionBonus
	}
	s.expansionProgress += s.tun.ExpansionDeliveryBonus * mult
}

// recordResolution pushes an order resolution outcome into the
// trailing on-time window.
func (s *Sim) recordResolution(onTime bool) {
	s.resolved++
	if onTime {
		s.ontime++
	}
	s.slaWindow[s.slaNext] = onTime
	s.slaNext = (s.slaNext + 1) % len(s.slaWindow)
	if s.slaFilled < len(s.slaWindow) {
		s.slaFilled++
	}
}

// checkConservation verifies the item ledger. A violation is a defect:
// panic when debug assertions are enabled, otherwise clamp the ledger
// to reality, log, and keep the run alive.
func (s *Sim) checkConservation() {
	want := int64(len(s.items)) + s.wasted + s.produced
	if s.spawned == want {
		return
	}
	if s.debug {
		panic(fmt.Sprintf("item conservation violated: spawned=%d in-flight=%d wasted=%d produced=%d",
			s.spawned, len(s.items), s.wasted, s.produced))
	}
	slog.Error("item conservation violated, clamping ledger",
		"spawned", s.spawned,
		"in_flight", len(s.items),
		"wasted", s.wasted,
		"produced", s.produced,
	)
	s.spawned = want
}

// SetDebug toggles fail-fast invariant checking. Tests and the
// headless harness enable it; long-running sessions leave it off.
func (s *Sim) SetDebug(on bool) { s.debug = on }

func (s *Sim) logEvent(msg string) {
	s.events = append(s.events, msg)
	if len(s.events) > eventLogSize {
		s.events = s.events[len(s.events)-eventLogSize:]
	}
	slog.Debug("sim event", "tick", s.ticks, "event", msg)
}

// Time returns the simulated time in seconds.
func (s *Sim) Time() float64 { return s.time }

// Ticks returns the number of ticks executed.
func (s *Sim) Ticks() int64 { return s.ticks }

// Seed returns the PRNG seed the session was created with.
func (s *Sim) Seed() int64 { return s.seed }

// Catalog returns the immutable catalog the simulation runs against.
func (s *Sim) Catalog() *catalog.Catalog { return s.cat }

// Tuning returns the tuning the simulation runs against.
func (s *Sim) Tuning() config.Tuning { return s.tun }

// Events returns a copy of the recent event log, oldest first.
func (s *Sim) Events() []string {
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

// Items returns a copy of the items currently in flight, in their
// deterministic scan order.
func (s *Sim) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Orders returns a copy of the pending order book, oldest first.
func (s *Sim) Orders() []Order {
	out := make([]Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Deliveries returns a copy of the in-flight deliveries.
func (s *Sim) Deliveries() []Delivery {
	out := make([]Delivery, len(s.deliveries))
	copy(out, s.deliveries)
	return out
}

// GridView returns a copy of the tile layout plus the derived state of
// every part, keyed by position.
func (s *Sim) GridView() GridView {
	gv := GridView{
		Width:  s.grid.Width(),
		Height: s.grid.Height(),
		Tiles:  s.grid.Tiles(),
		Parts:  make([]PartView, 0),
	}
	occupied := make(map[[2]int]*Item, len(s.items))
	for i := range s.items {
		it := &s.items[i]
		occupied[[2]int{it.X, it.Y}] = it
	}
	for y := 0; y < gv.Height; y++ {
		for x := 0; x < gv.Width; x++ {
			t := s.grid.At(x, y)
			if t.Kind == TileEmpty {
				continue
			}
			pv := PartView{X: x, Y: y, Kind: t.Kind, Rot: t.Rot, State: PartIdle}
			if it, ok := occupied[[2]int{x, y}]; ok {
				if it.Progress >= 1 {
					pv.State = PartBlocked
				} else {
					pv.State = PartBusy
				}
			}
			gv.Parts = append(gv.Parts, pv)
		}
	}
	return gv
}

// PartState is the derived processing state of a placed part.
type PartState string

const (
	PartIdle    PartState = "idle"
	PartBusy    PartState = "busy"
	PartBlocked PartState = "blocked"
)

// PartView is the read-only view of one placed part.
type PartView struct {
	X     int       `json:"x"`
	Y     int       `json:"y"`
	Kind  TileKind  `json:"kind"`
	Rot   int       `json:"rot"`
	State PartState `json:"state"`
}

// GridView is the read-only view of the grid for UI layers.
type GridView struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Tiles  []Tile     `json:"tiles"`
	Parts  []PartView `json:"parts"`
}

// Channel returns the active order channel key.
func (s *Sim) Channel() string { return s.channel }

// ActiveCommercial returns the active campaign key, or "".
func (s *Sim) ActiveCommercial() string { return s.commercial }

// UnlockedChannels lists the channels the current reputation allows,
// sorted by key.
func (s *Sim) UnlockedChannels() []string {
	var out []string
	for _, ch := range s.cat.Channels {
		if s.economy.Reputation >= ch.MinReputation {
			out = append(out, ch.Key)
		}
	}
	sort.Strings(out)
	return out
}
