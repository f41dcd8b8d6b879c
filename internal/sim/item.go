package sim

// Stage is an item's processing state. Items advance strictly
// raw → processed → baked; baked is the finished stage accepted at
// the sink.
type Stage string

const (
	StageRaw       Stage = "raw"
	StageProcessed Stage = "processed"
	StageBaked     Stage = "baked"
)

// Item is an ingredient travelling through the factory. Position is a
// tile plus fractional progress across it; at most one item occupies a
// tile at a time.
type Item struct {
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Progress float64 `json:"progress"`
	Stage    Stage   `json:"stage"`

	// Ingredient is the spawned ingredient type (flour, tomato, ...).
	Ingredient string `json:"ingredient"`

	// RecipeKey links the item to a specific order's recipe once it
	// passes an assembly table. Empty means untagged.
	RecipeKey string `json:"recipe_key"`

	// DeliveryBoost shortens the eventual delivery trip, granted by
	// bot docks.
	DeliveryBoost float64 `json:"delivery_boost"`
}

// stageTransition describes what a machine kind does to an item that
// finishes crossing it.
type stageTransition struct {
	from         Stage
	to           Stage
	researchGain float64
	boost        float64
}

// stageTransitions is keyed by tile kind. Conveyors, assembly tables,
// source and sink move items without transforming them; assembly
// tagging is handled separately.
var stageTransitions = map[TileKind]stageTransition{
	TileProcessor: {from: StageRaw, to: StageProcessed, researchGain: 0.12},
	TileOven:      {from: StageProcessed, to: StageBaked, researchGain: 0.25},
	TileBotDock:   {from: StageBaked, to: StageBaked, researchGain: 0.06, boost: 1.2},
}
