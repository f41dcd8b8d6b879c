package sim

import "fmt"

// TileKind identifies what occupies a grid cell.
type TileKind string

const (
	TileEmpty     TileKind = "empty"
	TileConveyor  TileKind = "conveyor"
	TileProcessor TileKind = "processor"
	TileOven      TileKind = "oven"
	TileBotDock   TileKind = "bot_dock"
	TileAssembly  TileKind = "assembly"
	TileSource    TileKind = "source"
	TileSink      TileKind = "sink"
)

// dirVectors maps a rotation index to its unit step: east, south,
// west, north. Rotation is always reduced modulo 4.
var dirVectors = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// Tile is a single cell of the factory grid.
type Tile struct {
	Kind TileKind `json:"kind"`
	Rot  int      `json:"rot"`
}

// Grid owns the tile layout. It is the sole mutator of spatial
// occupancy: every placement, removal and rotation goes through it,
// and all other components query it instead of caching tiles.
type Grid struct {
	w, h  int
	tiles []Tile // row-major, y*w+x

	sourceX, sourceY int
	sinkX, sinkY     int
}

// NewGrid returns an empty grid of the given dimensions with no
// source or sink placed yet.
func NewGrid(w, h int) *Grid {
	return &Grid{
		w: w, h: h,
		tiles:   make([]Tile, w*h),
		sourceX: -1, sourceY: -1,
		sinkX: -1, sinkY: -1,
	}
}

// Width returns the grid width in tiles.
func (g *Grid) Width() int { return g.w }

// Height returns the grid height in tiles.
func (g *Grid) Height() int { return g.h }

// InBounds reports whether (x,y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.w && y >= 0 && y < g.h
}

// At returns the tile at (x,y). Out-of-bounds coordinates read as an
// empty tile so flow code can probe neighbors without bounds juggling.
func (g *Grid) At(x, y int) Tile {
	if !g.InBounds(x, y) {
		return Tile{Kind: TileEmpty}
	}
	return g.tiles[y*g.w+x]
}

// Source returns the source tile position.
func (g *Grid) Source() (int, int) { return g.sourceX, g.sourceY }

// Sink returns the sink tile position.
func (g *Grid) Sink() (int, int) { return g.sinkX, g.sinkY }

// NextTile returns the downstream neighbor of (x,y) given the tile's
// orientation. Used by the flow engine for routing; the result may be
// out of bounds.
func (g *Grid) NextTile(x, y int) (int, int) {
	d := dirVectors[g.At(x, y).Rot%4]
	return x + d[0], y + d[1]
}

// Place writes a part onto an empty tile. Research gating and build
// cost are the simulation's concern; Place enforces only the spatial
// invariants: bounds, one part per tile, protected source/sink.
func (g *Grid) Place(x, y int, kind TileKind, rot int) error {
	if !g.InBounds(x, y) {
		return &PlacementError{X: x, Y: y, Kind: kind, Reason: "out of bounds"}
	}
	cur := g.At(x, y)
	if cur.Kind == TileSource || cur.Kind == TileSink {
		return &PlacementError{X: x, Y: y, Kind: kind, Reason: "source and sink tiles are fixed"}
	}
	if cur.Kind != TileEmpty {
		return &PlacementError{X: x, Y: y, Kind: kind, Reason: fmt.Sprintf("tile occupied by %s", cur.Kind)}
	}
	g.set(x, y, Tile{Kind: kind, Rot: ((rot % 4) + 4) % 4})
	return nil
}

// Remove clears a tile. Source and sink are protected.
func (g *Grid) Remove(x, y int) error {
	if !g.InBounds(x, y) {
		return &PlacementError{X: x, Y: y, Reason: "out of bounds"}
	}
	cur := g.At(x, y)
	if cur.Kind == TileSource || cur.Kind == TileSink {
		return &PlacementError{X: x, Y: y, Reason: "source and sink tiles are fixed"}
	}
	g.set(x, y, Tile{Kind: TileEmpty})
	return nil
}

// Rotate cycles a part's orientation through the four cardinal states.
func (g *Grid) Rotate(x, y int) error {
	if !g.InBounds(x, y) {
		return &PlacementError{X: x, Y: y, Reason: "out of bounds"}
	}
	cur := g.At(x, y)
	if cur.Kind == TileEmpty || cur.Kind == TileSource || cur.Kind == TileSink {
		return &PlacementError{X: x, Y: y, Reason: "nothing rotatable here"}
	}
	cur.Rot = (cur.Rot + 1) % 4
	g.set(x, y, cur)
	return nil
}

// PlaceStaticWorld lays out the starter factory: a west-to-east
// conveyor row with a processor and an oven inline, a bot dock beside
// the oven, and fixed source/sink endpoints.
func (g *Grid) PlaceStaticWorld() {
	midY := g.h / 2
	g.setSource(1, midY)
	g.setSink(g.w-2, midY)
	for x := 2; x < g.w-2; x++ {
		g.set(x, midY, Tile{Kind: TileConveyor, Rot: 0})
	}
	g.set(7, midY, Tile{Kind: TileProcessor, Rot: 0})
	g.set(12, midY, Tile{Kind: TileOven, Rot: 0})
	g.set(12, midY-1, Tile{Kind: TileBotDock, Rot: 1})
}

// Tiles returns a copy of the tile layout in row-major order.
// Used by snapshotting and read-only grid views.
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, len(g.tiles))
	copy(out, g.tiles)
	return out
}

// SetTiles replaces the entire layout, recomputing the source/sink
// positions. Used when restoring a snapshot.
func (g *Grid) SetTiles(tiles []Tile) error {
	if len(tiles) != g.w*g.h {
		return fmt.Errorf("tile count %d does not match %dx%d grid", len(tiles), g.w, g.h)
	}
	g.tiles = make([]Tile, len(tiles))
	copy(g.tiles, tiles)
	g.sourceX, g.sourceY = -1, -1
	g.sinkX, g.sinkY = -1, -1
	for i, t := range tiles {
		x, y := i%g.w, i/g.w
		switch t.Kind {
		case TileSource:
			g.sourceX, g.sourceY = x, y
		case TileSink:
			g.sinkX, g.sinkY = x, y
		}
	}
	return nil
}

func (g *Grid) set(x, y int, t Tile) {
	g.tiles[y*g.w+x] = t
}

func (g *Grid) setSource(x, y int) {
	g.set(x, y, Tile{Kind: TileSource, Rot: 0})
	g.sourceX, g.sourceY = x, y
}

func (g *Grid) setSink(x, y int) {
	g.set(x, y, Tile{Kind: TileSink, Rot: 0})
	g.sinkX, g.sinkY = x, y
}
