package sim

import (
	"fmt"
	"math"
)

// Vehicle kinds. Drones are faster, scooters are cheaper to run; the
// dispatcher prefers the cheap option unless the deadline is tight.
const (
	ModeDrone   = "drone"
	ModeScooter = "scooter"
)

// Travel time ranges per vehicle, in simulated seconds.
const (
	droneTravelMin   = 3.5
	droneTravelSpan  = 4.0 // 3.5 .. 7.5
	scooterTravelMin = 5.0
	scooterTravelSpan = 5.0 // 5.0 .. 10.0
)

// slackThreshold is the remaining-slack cutoff below which the
// dispatcher reaches for the fastest vehicle: the worst-case drone
// trip. With more slack than that, even a slow drone would arrive in
// time, so the cheaper scooter wins.
const slackThreshold = droneTravelMin + droneTravelSpan

// minTravelAfterBoost floors a boosted trip so a delivery is never
// instantaneous.
const minTravelAfterBoost = 1.5

// Delivery is an in-flight trip carrying a finished order to the
// customer. Deadline is the order's absolute SLA time; arrival past
// Deadline+grace is a missed delivery.
type Delivery struct {
	OrderID   int64   `json:"order_id"`
	RecipeKey string  `json:"recipe_key"`
	Channel   string  `json:"channel"`
	Mode      string  `json:"mode"`
	Remaining float64 `json:"remaining"`
	Duration  float64 `json:"duration"`
	Elapsed   float64 `json:"elapsed"`
	Deadline  float64 `json:"deadline"`
	Reward    int     `json:"reward"`
}

// dispatch resolves a matched order into either an immediate
// counter-service settlement or an in-flight delivery trip.
func (s *Sim) dispatch(o Order, boost float64) {
	reward := o.Reward
	if s.research.Has("second_location") {
		reward = int(math.Round(float64(reward) * (1.0 + s.tun.SecondLocationRewardBonus)))
	}

	if ch := s.cat.Channel(o.Channel); ch != nil && ch.CounterService {
		// Served on the premises: no trip, settles now.
		s.settleArrival(Delivery{
			OrderID:   o.ID,
			RecipeKey: o.RecipeKey,
			Channel:   o.Channel,
			Deadline:  o.Deadline,
			Reward:    reward,
		})
		return
	}

	mode := s.chooseVehicle(o)
	travel := s.travelTime(mode)
	if boost > 0 {
		travel = math.Max(minTravelAfterBoost, travel-boost)
	}

	s.deliveries = append(s.deliveries, Delivery{
		OrderID:   o.ID,
		RecipeKey: o.RecipeKey,
		Channel:   o.Channel,
		Mode:      mode,
		Remaining: travel,
		Duration:  travel,
		Deadline:  o.Deadline,
		Reward:    reward,
	})
}

// chooseVehicle picks from the channel's allowed modes: the fastest
// when remaining slack is below the threshold, the cheapest otherwise.
// Single-mode channels always use their declared mode.
func (s *Sim) chooseVehicle(o Order) string {
	modes := []string{ModeDrone, ModeScooter}
	if ch := s.cat.Channel(o.Channel); ch != nil && len(ch.DeliveryModes) > 0 {
		modes = ch.DeliveryModes
	}
	if len(modes) == 1 {
		return modes[0]
	}

	slack := o.Deadline - s.time
	if slack < slackThreshold {
		for _, m := range modes {
			if m == ModeDrone {
				return m
			}
		}
	}
	for _, m := range modes {
		if m == ModeScooter {
			return m
		}
	}
	return modes[0]
}

func (s *Sim) travelTime(mode string) float64 {
	if mode == ModeDrone {
		return droneTravelMin + s.rng.Float64()*droneTravelSpan
	}
	return scooterTravelMin + s.rng.Float64()*scooterTravelSpan
}

// stepDeliveries advances every trip and settles arrivals.
func (s *Sim) stepDeliveries(dt float64) {
	kept := s.deliveries[:0]
	for _, d := range s.deliveries {
		d.Elapsed += dt
		d.Remaining -= dt
		if d.Remaining > 0 {
			kept = append(kept, d)
			continue
		}
		s.settleArrival(d)
	}
	s.deliveries = kept
}

// settleArrival applies the arrival outcome against the order's SLA:
// on time pays in full, inside the grace window pays the channel's
// late fraction, past it the delivery is missed and only penalties
// flow.
func (s *Sim) settleArrival(d Delivery) {
	grace := s.graceWindow(d.Channel)

	switch {
	case s.time <= d.Deadline:
		s.economy.creditRevenue(d.Reward)
		s.economy.Reputation = clamp(s.economy.Reputation+s.tun.ReputationGainOnTime, 0, 100)
		s.research.Points += deliveryResearchGain
		s.addDeliveryExpansion()
		s.recordResolution(true)
		s.logEvent(fmt.Sprintf("order #%d delivered on time (+$%d)", d.OrderID, d.Reward))

	case s.time <= d.Deadline+grace:
		lateMult := s.tun.LateDeliveryPenalty
		if s.research.Has("priority_dispatch") {
			lateMult = s.tun.PriorityDispatchLateMultiplier
		}
		chMult := 1.0
		if ch := s.cat.Channel(d.Channel); ch != nil {
			chMult = ch.LateRewardMultiplier
		}
		reward := int(math.Round(float64(d.Reward) * chMult * lateMult))
		s.economy.creditRevenue(reward)
		s.economy.Reputation = clamp(s.economy.Reputation-s.tun.ReputationLossLate, 0, 100)
		s.addDeliveryExpansion()
		s.late++
		s.recordResolution(false)
		s.logEvent(fmt.Sprintf("order #%d delivered late (+$%d)", d.OrderID, reward))

	default:
		penalty := s.missedPenalty(Order{Channel: d.Channel, Reward: d.Reward})
		charged := s.economy.penalize(penalty)
		s.economy.Reputation = clamp(s.economy.Reputation-s.tun.ReputationLossLate, 0, 100)
		s.missed++
		s.recordResolution(false)
		s.logEvent(fmt.Sprintf("order #%d delivery missed (-$%d)", d.OrderID, charged))
	}
}

// stepBotDocks spends accumulated auto-bot charge shortening the trip
// that has the most road left.
func (s *Sim) stepBotDocks(dt float64) {
	if !s.research.Has("bots") {
		return
	}
	docks := 0
	for _, t := range s.grid.Tiles() {
		if t.Kind == TileBotDock {
			docks++
		}
	}
	if docks == 0 {
		return
	}

	s.autoBotCharge += dt * s.tun.BotAutoChargeRate * float64(docks)
	for s.autoBotCharge >= 1.0 && len(s.deliveries) > 0 {
		longest := 0
		for i := 1; i < len(s.deliveries); i++ {
			if s.deliveries[i].Remaining > s.deliveries[longest].Remaining {
				longest = i
			}
		}
		d := &s.deliveries[longest]
		d.Remaining = math.Max(0.4, d.Remaining-s.tun.BotAutoDeliveryReduction)
		s.autoBotCharge -= 1.0
	}
}
