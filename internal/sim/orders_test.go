package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnOrder_CapsAtChannelMaximum(t *testing.T) {
	s := newTestSim(t, 1)
	ch := s.cat.Channel("delivery")
	require.NotNil(t, ch)

	for i := 0; i < ch.MaxActiveOrders*3; i++ {
		s.spawnOrder()
	}
	assert.Len(t, s.orders, ch.MaxActiveOrders)
}

func TestSpawnOrder_RespectsUnlockTier(t *testing.T) {
	s := newTestSim(t, 1)

	// Expansion tier 1 only reaches tier-0 recipes.
	for i := 0; i < 5; i++ {
		s.spawnOrder()
	}
	for _, o := range s.orders {
		r := s.cat.Recipe(o.RecipeKey)
		require.NotNil(t, r)
		assert.Equal(t, 0, r.UnlockTier)
	}
}

func TestSpawnOrder_OrderFieldsAndSequence(t *testing.T) {
	s := newTestSim(t, 1)
	s.time = 100

	s.spawnOrder()
	s.spawnOrder()
	require.Len(t, s.orders, 2)

	first, second := s.orders[0], s.orders[1]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, OrderPending, first.Status)
	assert.Equal(t, "delivery", first.Channel)

	r := s.cat.Recipe(first.RecipeKey)
	require.NotNil(t, r)
	assert.Equal(t, 100+r.SLA, first.Deadline)
	assert.Equal(t, r.SellPrice, first.Reward)
}

func TestTakeOrderForItem_TaggedMatchesOldestOfRecipe(t *testing.T) {
	s := newTestSim(t, 1)
	s.orders = []Order{
		{ID: 1, RecipeKey: "pepperoni", Status: OrderPending},
		{ID: 2, RecipeKey: "margherita", Status: OrderPending},
		{ID: 3, RecipeKey: "margherita", Status: OrderPending},
	}

	o, ok := s.takeOrderForItem(&Item{RecipeKey: "margherita"})
	require.True(t, ok)
	assert.Equal(t, int64(2), o.ID)
	assert.Len(t, s.orders, 2)

	_, ok = s.takeOrderForItem(&Item{RecipeKey: "veggie"})
	assert.False(t, ok)
}

func TestStepOrderExpiry_UsesGraceWindow(t *testing.T) {
	s := newTestSim(t, 1)
	grace := s.graceWindow("delivery")
	require.Equal(t, 3.0, grace)

	s.time = 10
	s.orders = []Order{
		{ID: 1, RecipeKey: "margherita", Channel: "delivery", Deadline: 8, Reward: 12, Status: OrderPending},  // inside grace
		{ID: 2, RecipeKey: "margherita", Channel: "delivery", Deadline: 6.9, Reward: 12, Status: OrderPending}, // past grace
	}

	s.stepOrderExpiry()

	require.Len(t, s.orders, 1)
	assert.Equal(t, int64(1), s.orders[0].ID)
	assert.Equal(t, int64(1), s.missed)
	assert.Equal(t, int64(1), s.resolved)
}

func TestMissOrder_PenaltyClampsToCash(t *testing.T) {
	s := newTestSim(t, 1)
	s.economy.Cash = 3
	repBefore := s.economy.Reputation

	s.missOrder(Order{ID: 7, RecipeKey: "margherita", Channel: "delivery", Reward: 1000}, "expired")

	assert.Equal(t, 0, s.economy.Cash, "penalty never overdraws")
	assert.Less(t, s.economy.Reputation, repBefore)
	assert.Equal(t, int64(1), s.missed)
}

func TestMissedPenalty_ScalesWithChannelMultiplier(t *testing.T) {
	s := newTestSim(t, 1)

	// delivery: 100 * 0.25 * 1.0
	assert.Equal(t, 25, s.missedPenalty(Order{Channel: "delivery", Reward: 100}))
	// eat_in: 100 * 0.25 * 1.25
	assert.Equal(t, 31, s.missedPenalty(Order{Channel: "eat_in", Reward: 100}))
	// takeaway: 100 * 0.25 * 0.8
	assert.Equal(t, 20, s.missedPenalty(Order{Channel: "takeaway", Reward: 100}))
}

func TestAvailableRecipes_ChannelDifficultyBandWithFallback(t *testing.T) {
	s := newTestSim(t, 1)
	s.expansionLevel = 3 // unlocks tiers 0..2

	// eat_in wants difficulty >= 2, which excludes margherita.
	for _, i := range s.availableRecipes("eat_in") {
		assert.GreaterOrEqual(t, s.cat.Recipes[i].Difficulty, 2)
	}

	// At tier 1 only margherita (difficulty 1) exists; the empty band
	// falls back instead of silencing orders.
	s.expansionLevel = 1
	idxs := s.availableRecipes("eat_in")
	require.Len(t, idxs, 1)
	assert.Equal(t, "margherita", s.cat.Recipes[idxs[0]].Key)
}
