package sim

import (
	"fmt"
	"math"
)

// OrderStatus tracks an order through its lifecycle. Pending orders
// live in the book; the other states are terminal.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderLate      OrderStatus = "late"
	OrderMissed    OrderStatus = "missed"
)

// Order is a customer order waiting for a finished item. CreatedAt
// and Deadline are simulated time; the channel's grace window past the
// deadline separates a late resolution from a missed one.
type Order struct {
	ID        int64       `json:"id"`
	RecipeKey string      `json:"recipe_key"`
	Channel   string      `json:"channel"`
	CreatedAt float64     `json:"created_at"`
	Deadline  float64     `json:"deadline"`
	Reward    int         `json:"reward"`
	Status    OrderStatus `json:"status"`
}

// availableRecipes returns recipe indices whose unlock tier is
// reached, filtered to the channel's difficulty band. An empty
// filtered set falls back to the unfiltered tier selection so a
// narrow channel never silences order generation entirely.
func (s *Sim) availableRecipes(channelKey string) []int {
	var tierOK []int
	for i := range s.cat.Recipes {
		if s.cat.Recipes[i].UnlockTier <= s.expansionLevel-1 {
			tierOK = append(tierOK, i)
		}
	}
	ch := s.cat.Channel(channelKey)
	if ch == nil {
		return tierOK
	}
	var filtered []int
	for _, i := range tierOK {
		d := s.cat.Recipes[i].Difficulty
		if d >= ch.MinRecipeDifficulty && d <= ch.MaxRecipeDifficulty {
			filtered = append(filtered, i)
		}
	}
	if len(filtered) == 0 {
		return tierOK
	}
	return filtered
}

// spawnOrder draws a recipe weighted by demand and appends a pending
// order on the active channel. Capped by the channel's max active
// orders.
func (s *Sim) spawnOrder() {
	ch := s.cat.Channel(s.channel)
	if ch == nil {
		return
	}

	pending := 0
	for i := range s.orders {
		if s.orders[i].Channel == ch.Key {
			pending++
		}
	}
	if pending >= ch.MaxActiveOrders {
		return
	}

	available := s.availableRecipes(ch.Key)
	if len(available) == 0 {
		return
	}

	demandMult := s.campaignDemandMultiplier()
	idx := available[weightedIndex(s.rng, len(available), func(i int) float64 {
		return s.cat.Recipes[available[i]].DemandWeight * ch.DemandWeight * demandMult
	})]
	recipe := &s.cat.Recipes[idx]

	reward := int(math.Round(float64(recipe.SellPrice) * ch.RewardMultiplier * s.campaignRewardMultiplier()))
	if reward < 1 {
		reward = 1
	}

	s.orderSeq++
	s.orders = append(s.orders, Order{
		ID:        s.orderSeq,
		RecipeKey: recipe.Key,
		Channel:   ch.Key,
		CreatedAt: s.time,
		Deadline:  s.time + recipe.SLA*ch.SLAMultiplier,
		Reward:    reward,
		Status:    OrderPending,
	})
}

// takeOrderForItem pops the order the finished item should fulfil.
//
// A recipe-tagged item matches the oldest pending order for that
// recipe. An untagged item is only unambiguous when every pending
// order wants the same recipe; otherwise it matches nothing. The book
// is kept in creation order, so the first hit is the oldest.
func (s *Sim) takeOrderForItem(it *Item) (Order, bool) {
	if len(s.orders) == 0 {
		return Order{}, false
	}

	if it.RecipeKey != "" {
		for i := range s.orders {
			if s.orders[i].RecipeKey == it.RecipeKey {
				return s.popOrder(i), true
			}
		}
		return Order{}, false
	}

	first := s.orders[0].RecipeKey
	for i := 1; i < len(s.orders); i++ {
		if s.orders[i].RecipeKey != first {
			return Order{}, false
		}
	}
	return s.popOrder(0), true
}

func (s *Sim) popOrder(i int) Order {
	o := s.orders[i]
	s.orders = append(s.orders[:i], s.orders[i+1:]...)
	return o
}

// stepOrderExpiry drops orders that overran their deadline past the
// channel grace window. A dropped order is a missed resolution: the
// channel's missed penalty is charged (never overdrawing) and
// reputation suffers.
func (s *Sim) stepOrderExpiry() {
	kept := s.orders[:0]
	for _, o := range s.orders {
		grace := s.graceWindow(o.Channel)
		if s.time <= o.Deadline+grace {
			kept = append(kept, o)
			continue
		}
		s.missOrder(o, "expired")
	}
	s.orders = kept
}

// missOrder applies the missed outcome: penalty, reputation loss, and
// a not-on-time entry in the trailing resolution window.
func (s *Sim) missOrder(o Order, why string) {
	penalty := s.missedPenalty(o)
	charged := s.economy.penalize(penalty)
	s.economy.Reputation = clamp(s.economy.Reputation-s.tun.ReputationLossLate, 0, 100)
	s.missed++
	s.recordResolution(false)
	s.logEvent(fmt.Sprintf("order #%d (%s) missed: %s (-$%d)", o.ID, o.RecipeKey, why, charged))
}

func (s *Sim) missedPenalty(o Order) int {
	mult := 1.0
	if ch := s.cat.Channel(o.Channel); ch != nil {
		mult = ch.MissedOrderPenaltyMultiplier
	}
	return int(math.Round(float64(o.Reward) * s.tun.MissedPenaltyFraction * mult))
}

// graceWindow returns the channel's late-vs-missed window in simulated
// seconds.
func (s *Sim) graceWindow(channelKey string) float64 {
	if ch := s.cat.Channel(channelKey); ch != nil {
		return ch.GraceWindow
	}
	return 0
}
