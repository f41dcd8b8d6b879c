package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseVehicle_SlackThreshold(t *testing.T) {
	s := newTestSim(t, 1)
	s.time = 100

	tight := Order{Channel: "delivery", Deadline: 105} // slack 5 < 7.5
	loose := Order{Channel: "delivery", Deadline: 110} // slack 10

	assert.Equal(t, ModeDrone, s.chooseVehicle(tight))
	assert.Equal(t, ModeScooter, s.chooseVehicle(loose))
}

func TestChooseVehicle_SingleModeChannel(t *testing.T) {
	s := newTestSim(t, 1)
	s.time = 100

	// Takeaway only runs scooters, even under pressure.
	tight := Order{Channel: "takeaway", Deadline: 101}
	assert.Equal(t, ModeScooter, s.chooseVehicle(tight))
}

func TestTravelTime_WithinVehicleRange(t *testing.T) {
	s := newTestSim(t, 9)
	for i := 0; i < 50; i++ {
		d := s.travelTime(ModeDrone)
		assert.GreaterOrEqual(t, d, 3.5)
		assert.Less(t, d, 7.5)
		sc := s.travelTime(ModeScooter)
		assert.GreaterOrEqual(t, sc, 5.0)
		assert.Less(t, sc, 10.0)
	}
}

func TestDispatch_BoostShortensButFloorsTravel(t *testing.T) {
	s := newTestSim(t, 1)
	s.time = 0

	s.dispatch(Order{ID: 1, RecipeKey: "margherita", Channel: "delivery", Deadline: 100, Reward: 12}, 50)
	require.Len(t, s.deliveries, 1)
	assert.Equal(t, minTravelAfterBoost, s.deliveries[0].Remaining)
	assert.Equal(t, minTravelAfterBoost, s.deliveries[0].Duration)
}

func TestDispatch_EatInSettlesImmediately(t *testing.T) {
	s := newTestSim(t, 1)
	s.time = 5
	cashBefore := s.economy.Cash

	s.dispatch(Order{ID: 1, RecipeKey: "margherita", Channel: "eat_in", Deadline: 20, Reward: 14}, 0)

	assert.Empty(t, s.deliveries, "eat-in never produces a trip")
	assert.Equal(t, cashBefore+14, s.economy.Cash)
	assert.Equal(t, int64(1), s.ontime)
}

func TestDispatch_CounterServiceFollowsCatalogFlag(t *testing.T) {
	s := newTestSim(t, 1)
	s.time = 5

	// Flip the flag both ways: the catalog, not the channel key,
	// decides whether an order settles at the counter.
	s.cat.Channel("delivery").CounterService = true
	s.dispatch(Order{ID: 1, RecipeKey: "margherita", Channel: "delivery", Deadline: 20, Reward: 14}, 0)
	assert.Empty(t, s.deliveries)
	assert.Equal(t, int64(1), s.ontime)

	s.cat.Channel("eat_in").CounterService = false
	s.dispatch(Order{ID: 2, RecipeKey: "margherita", Channel: "eat_in", Deadline: 20, Reward: 14}, 0)
	require.Len(t, s.deliveries, 1)
	assert.Equal(t, ModeScooter, s.deliveries[0].Mode)
}

func TestSettleArrival_OnTime(t *testing.T) {
	s := newTestSim(t, 1)
	s.time = 10
	cashBefore := s.economy.Cash
	repBefore := s.economy.Reputation
	expBefore := s.expansionProgress

	s.settleArrival(Delivery{OrderID: 3, RecipeKey: "margherita", Channel: "delivery", Deadline: 10, Reward: 20})

	assert.Equal(t, cashBefore+20, s.economy.Cash)
	assert.Equal(t, 20, s.economy.Revenue)
	assert.InDelta(t, repBefore+s.tun.ReputationGainOnTime, s.economy.Reputation, 1e-9)
	assert.InDelta(t, deliveryResearchGain, s.research.Points, 1e-9)
	assert.Greater(t, s.expansionProgress, expBefore)
	assert.Equal(t, int64(1), s.resolved)
	assert.Equal(t, int64(1), s.ontime)
}

func TestSettleArrival_LateInsideGrace(t *testing.T) {
	s := newTestSim(t, 1)
	s.time = 12 // 2s past deadline, delivery grace is 3
	repBefore := s.economy.Reputation

	s.settleArrival(Delivery{OrderID: 4, RecipeKey: "margherita", Channel: "delivery", Deadline: 10, Reward: 20})

	// round(20 * 1.0 * 0.5)
	assert.Equal(t, 10, s.economy.Revenue)
	assert.InDelta(t, repBefore-s.tun.ReputationLossLate, s.economy.Reputation, 1e-9)
	assert.Equal(t, int64(1), s.late)
	assert.Equal(t, int64(0), s.ontime)
}

func TestSettleArrival_LateRewardVariesByChannel(t *testing.T) {
	// Same 2s-late arrival, settled on each channel: the channel's
	// late multiplier scales what is left of the reward.
	cases := []struct {
		channel string
		revenue int
	}{
		{"delivery", 10}, // round(20 * 1.0 * 0.5)
		{"eat_in", 7},    // round(20 * 0.7 * 0.5), grace 2
		{"takeaway", 9},  // round(20 * 0.9 * 0.5), grace 4
	}
	for _, tc := range cases {
		t.Run(tc.channel, func(t *testing.T) {
			s := newTestSim(t, 1)
			s.time = 12

			s.settleArrival(Delivery{OrderID: 4, RecipeKey: "margherita", Channel: tc.channel, Deadline: 10, Reward: 20})

			assert.Equal(t, tc.revenue, s.economy.Revenue)
			assert.Equal(t, int64(1), s.late)
			assert.Equal(t, int64(0), s.missed)
		})
	}
}

func TestSettleArrival_LateWithPriorityDispatch(t *testing.T) {
	s := newTestSim(t, 1)
	s.time = 12
	s.research.restore([]string{"priority_dispatch"})

	s.settleArrival(Delivery{OrderID: 4, RecipeKey: "margherita", Channel: "delivery", Deadline: 10, Reward: 20})

	// round(20 * 1.0 * 0.75)
	assert.Equal(t, 15, s.economy.Revenue)
}

func TestSettleArrival_MissedPastGrace(t *testing.T) {
	s := newTestSim(t, 1)
	s.time = 20
	cashBefore := s.economy.Cash

	s.settleArrival(Delivery{OrderID: 5, RecipeKey: "margherita", Channel: "delivery", Deadline: 10, Reward: 50})

	// round(50 * 0.25 * 1.0) = 13
	assert.Equal(t, cashBefore-13, s.economy.Cash)
	assert.Equal(t, 0, s.economy.Revenue)
	assert.Equal(t, int64(1), s.missed)
}

func TestStepDeliveries_SettlesOnArrival(t *testing.T) {
	s := newTestSim(t, 1)
	s.time = 1
	s.deliveries = []Delivery{
		{OrderID: 1, Channel: "delivery", Mode: ModeDrone, Remaining: 0.05, Duration: 4, Deadline: 10, Reward: 12},
		{OrderID: 2, Channel: "delivery", Mode: ModeScooter, Remaining: 3, Duration: 6, Deadline: 10, Reward: 12},
	}

	s.stepDeliveries(0.1)

	require.Len(t, s.deliveries, 1)
	assert.Equal(t, int64(2), s.deliveries[0].OrderID)
	assert.Equal(t, int64(1), s.ontime)
}

func TestStepBotDocks_ShortensLongestTrip(t *testing.T) {
	s := newTestSim(t, 1)
	s.research.restore([]string{"bots"})
	s.autoBotCharge = 1.2
	s.deliveries = []Delivery{
		{OrderID: 1, Remaining: 2.0},
		{OrderID: 2, Remaining: 6.0},
	}

	s.stepBotDocks(0)

	assert.InDelta(t, 6.0-s.tun.BotAutoDeliveryReduction, s.deliveries[1].Remaining, 1e-9)
	assert.InDelta(t, 2.0, s.deliveries[0].Remaining, 1e-9)
	assert.InDelta(t, 0.2, s.autoBotCharge, 1e-9)
}

func TestStepBotDocks_GatedOnResearch(t *testing.T) {
	s := newTestSim(t, 1)
	s.deliveries = []Delivery{{OrderID: 1, Remaining: 6.0}}
	s.autoBotCharge = 5

	s.stepBotDocks(1)

	assert.InDelta(t, 6.0, s.deliveries[0].Remaining, 1e-9)
}
