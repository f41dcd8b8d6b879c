package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flaxos/Pizzatorio/internal/catalog"
	"github.com/flaxos/Pizzatorio/internal/config"
	"github.com/flaxos/Pizzatorio/internal/snapshot"
)

func TestTick_SameSeedSameBytes(t *testing.T) {
	a := newTestSim(t, 42)
	b := newTestSim(t, 42)

	for i := 0; i < 300; i++ {
		a.Tick(0.1)
		b.Tick(0.1)
	}

	da, _, err := snapshot.Encode(a.Snapshot("x"))
	require.NoError(t, err)
	db, _, err := snapshot.Encode(b.Snapshot("x"))
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestTick_DifferentSeedsDiverge(t *testing.T) {
	a := newTestSim(t, 1)
	b := newTestSim(t, 2)

	for i := 0; i < 500; i++ {
		a.Tick(0.1)
		b.Tick(0.1)
	}

	ha := snapshot.Hash(mustEncode(t, a.Snapshot("x")))
	hb := snapshot.Hash(mustEncode(t, b.Snapshot("x")))
	assert.NotEqual(t, ha, hb)
}

func TestSnapshotRestore_ResumesIdentically(t *testing.T) {
	orig := newTestSim(t, 42)
	for i := 0; i < 200; i++ {
		orig.Tick(0.1)
	}

	st := orig.Snapshot("session-a")
	data, _, err := snapshot.Encode(st)
	require.NoError(t, err)
	decoded, err := snapshot.Decode(data)
	require.NoError(t, err)

	restored, err := Restore(decoded, catalog.Default(), config.Defaults())
	require.NoError(t, err)
	restored.SetDebug(true)

	for i := 0; i < 200; i++ {
		orig.Tick(0.1)
		restored.Tick(0.1)
	}

	d1 := mustEncode(t, orig.Snapshot("session-a"))
	d2 := mustEncode(t, restored.Snapshot("session-a"))
	assert.Equal(t, d1, d2, "restored session must replay bit-identically")
}

func TestRestore_RejectsUnknownCatalogRefs(t *testing.T) {
	s := newTestSim(t, 7)
	s.Tick(0.1)

	st := s.Snapshot("x")
	st.Channel = "drive_through"

	_, err := Restore(st, catalog.Default(), config.Defaults())
	var slErr *snapshot.SaveLoadError
	require.ErrorAs(t, err, &slErr)
}

func TestRestore_RejectsBadDelivery(t *testing.T) {
	base := func() *snapshot.State {
		s := newTestSim(t, 7)
		st := s.Snapshot("x")
		st.Deliveries = append(st.Deliveries, snapshot.DeliveryState{
			OrderID: 9, RecipeKey: "margherita", Channel: "delivery",
			Mode: ModeDrone, Remaining: 2, Duration: 5, Deadline: 30, Reward: 12,
		})
		return st
	}

	st := base()
	_, err := Restore(st, catalog.Default(), config.Defaults())
	require.NoError(t, err)

	st = base()
	st.Deliveries[0].Mode = "hoverboard"
	var slErr *snapshot.SaveLoadError
	_, err = Restore(st, catalog.Default(), config.Defaults())
	require.ErrorAs(t, err, &slErr)

	st = base()
	st.Deliveries[0].RecipeKey = "calzone"
	_, err = Restore(st, catalog.Default(), config.Defaults())
	require.ErrorAs(t, err, &slErr)
}

func TestRestore_RejectsGridMismatch(t *testing.T) {
	s := newTestSim(t, 7)
	st := s.Snapshot("x")
	st.Grid.Width = 5

	_, err := Restore(st, catalog.Default(), config.Defaults())
	require.Error(t, err)
}

func TestTick_ConservationHoldsOverLongRun(t *testing.T) {
	s := newTestSim(t, 7)
	for i := 0; i < 2000; i++ {
		s.Tick(0.1)
	}
	assert.True(t, s.ConservationOK())

	c := s.Counters()
	assert.Equal(t, c.Spawned, c.InFlight+c.Wasted+c.Produced)
	assert.Positive(t, c.Spawned)
}

func TestTick_AdvancesClockAndCounters(t *testing.T) {
	s := newTestSim(t, 7)
	for i := 0; i < 10; i++ {
		s.Tick(0.5)
	}
	assert.InDelta(t, 5.0, s.Time(), 1e-9)
	assert.Equal(t, int64(10), s.Ticks())
}

func mustEncode(t *testing.T, st *snapshot.State) []byte {
	t.Helper()
	data, _, err := snapshot.Encode(st)
	require.NoError(t, err)
	return data
}
