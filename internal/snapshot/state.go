// Package snapshot defines the versioned save format for a simulation
// session and its canonical encoding.
//
// The schema is deliberately decoupled from the live simulation types:
// it is the compatibility surface, so it only changes together with
// Version. Encoding is canonical (fixed field order, NFC-normalized
// strings, no HTML escaping) so that equal states always produce equal
// bytes, which makes the SHA-256 state hash meaningful.
package snapshot

import "fmt"

// Version is the current snapshot schema version. Decoding rejects
// every other value; there is no cross-version migration.
const Version = 1

// SaveLoadError reports a snapshot that could not be encoded, decoded
// or verified.
type SaveLoadError struct {
	Op     string // "encode", "decode", "verify"
	Reason string
	Err    error
}

func (e *SaveLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("snapshot %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("snapshot %s: %s", e.Op, e.Reason)
}

func (e *SaveLoadError) Unwrap() error { return e.Err }

// State is the complete serialized session. Field order is part of
// the canonical encoding; append new fields rather than reordering.
type State struct {
	Version   int    `json:"version"`
	SessionID string `json:"session_id"`

	Seed  int64   `json:"seed"`
	Draws uint64  `json:"draws"`
	Time  float64 `json:"time"`
	Ticks int64   `json:"ticks"`

	Channel        string  `json:"channel"`
	Commercial     string  `json:"commercial,omitempty"`
	CampaignExpiry float64 `json:"campaign_expiry,omitempty"`

	SpawnTimer      float64 `json:"spawn_timer"`
	OrderSpawnTimer float64 `json:"order_spawn_timer"`

	Hygiene          float64 `json:"hygiene"`
	LastHygieneEvent float64 `json:"last_hygiene_event"`
	Bottleneck       float64 `json:"bottleneck"`

	ExpansionLevel    int     `json:"expansion_level"`
	ExpansionProgress float64 `json:"expansion_progress"`

	AutoBotCharge float64 `json:"auto_bot_charge"`
	OrderSeq      int64   `json:"order_seq"`

	Grid       GridState       `json:"grid"`
	Items      []ItemState     `json:"items"`
	Orders     []OrderState    `json:"orders"`
	Deliveries []DeliveryState `json:"deliveries"`
	Research   ResearchState   `json:"research"`
	Economy    EconomyState    `json:"economy"`
	Counters   CounterState    `json:"counters"`

	SLAWindow []bool `json:"sla_window"`
	SLANext   int    `json:"sla_next"`
	SLAFilled int    `json:"sla_filled"`
}

// GridState carries the full row-major tile layout. Empty tiles are
// stored too: positional encoding keeps decode trivial and the layout
// is small.
type GridState struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Tiles  []TileState `json:"tiles"`
}

type TileState struct {
	Kind string `json:"kind"`
	Rot  int    `json:"rot"`
}

type ItemState struct {
	X             int     `json:"x"`
	Y             int     `json:"y"`
	Progress      float64 `json:"progress"`
	Stage         string  `json:"stage"`
	Ingredient    string  `json:"ingredient"`
	RecipeKey     string  `json:"recipe_key,omitempty"`
	DeliveryBoost float64 `json:"delivery_boost,omitempty"`
}

type OrderState struct {
	ID        int64   `json:"id"`
	RecipeKey string  `json:"recipe_key"`
	Channel   string  `json:"channel"`
	CreatedAt float64 `json:"created_at"`
	Deadline  float64 `json:"deadline"`
	Reward    int     `json:"reward"`
	Status    string  `json:"status"`
}

type DeliveryState struct {
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

// ResearchState stores the unlocked set sorted; the decode side
// rebuilds its lookup structures from the list.
type ResearchState struct {
	Points   float64  `json:"points"`
	Focus    string   `json:"focus,omitempty"`
	Unlocked []string `json:"unlocked"`
}

type EconomyState struct {
	Cash       int     `json:"cash"`
	Revenue    int     `json:"revenue"`
	Spend      int     `json:"spend"`
	Waste      int     `json:"waste"`
	Reputation float64 `json:"reputation"`
}

// CounterState holds the lifetime item and order counters. The item
// counters satisfy spawned = in-flight + wasted + produced.
type CounterState struct {
	Spawned  int64 `json:"spawned"`
	Wasted   int64 `json:"wasted"`
	Produced int64 `json:"produced"`
	Resolved int64 `json:"resolved"`
	OnTime   int64 `json:"ontime"`
	Late     int64 `json:"late"`
	Missed   int64 `json:"missed"`
}
