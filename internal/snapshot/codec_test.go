package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState() *State {
	return &State{
		Version:   Version,
		SessionID: "test-session",
		Seed:      7,
		Draws:     42,
		Time:      12.5,
		Ticks:     125,
		Channel:   "delivery",
		Hygiene:   98.5,
		Grid: GridState{
			Width:  4,
			Height: 2,
			Tiles: []TileState{
				{Kind: "empty"}, {Kind: "source"}, {Kind: "conveyor", Rot: 1}, {Kind: "sink"},
				{Kind: "empty"}, {Kind: "empty"}, {Kind: "processor"}, {Kind: "empty"},
			},
		},
		Research: ResearchState{Points: 3.5, Unlocked: []string{"ovens"}},
		Economy:  EconomyState{Cash: 160, Reputation: 35},
	}
}

func TestEncode_Deterministic(t *testing.T) {
	a, hashA, err := Encode(testState())
	require.NoError(t, err)
	b, hashB, err := Encode(testState())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, hashA, hashB)
	assert.Equal(t, Hash(a), hashA)
}

func TestEncode_RejectsWrongVersion(t *testing.T) {
	st := testState()
	st.Version = 99

	_, _, err := Encode(st)

	var slErr *SaveLoadError
	require.ErrorAs(t, err, &slErr)
	assert.Equal(t, "encode", slErr.Op)
}

func TestDecode_RoundTrip(t *testing.T) {
	want := testState()
	data, _, err := Encode(want)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecode_RejectsWrongVersion(t *testing.T) {
	st := testState()
	data, _, err := Encode(st)
	require.NoError(t, err)

	// Version is the first field in the canonical encoding.
	corrupted := []byte(`{"version":2` + string(data[len(`{"version":1`):]))

	_, err = Decode(corrupted)
	var slErr *SaveLoadError
	require.ErrorAs(t, err, &slErr)
	assert.Contains(t, slErr.Reason, "unsupported schema version")
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	_, err := Decode([]byte(`{"version":1,"bogus_field":true}`))

	var slErr *SaveLoadError
	require.ErrorAs(t, err, &slErr)
	assert.Equal(t, "decode", slErr.Op)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := Decode([]byte(`{"version":`))
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	data, hash, err := Encode(testState())
	require.NoError(t, err)

	require.NoError(t, Verify(data, hash))

	tampered := append([]byte{}, data...)
	tampered[len(tampered)-2] ^= 0xff
	var slErr *SaveLoadError
	require.ErrorAs(t, Verify(tampered, hash), &slErr)
	assert.Equal(t, "verify", slErr.Op)
}

func TestNewSessionID_Unique(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestSaveLoadError_Unwrap(t *testing.T) {
	inner := assert.AnError
	err := &SaveLoadError{Op: "decode", Reason: "corrupt payload", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "decode")
	assert.Contains(t, err.Error(), "corrupt payload")
}
