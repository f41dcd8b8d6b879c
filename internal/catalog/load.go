package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

// File names expected inside a data directory.
const (
	RecipesFile     = "recipes.json"
	ChannelsFile    = "order_channels.json"
	CommercialsFile = "commercials.json"
	ResearchFile    = "research.json"
)

var techKeyRE = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ConfigError reports unusable external catalog data. Callers fall
// back to the built-in defaults when they see one; the simulation
// itself never observes a ConfigError.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads all four catalogs from dir, falling back to the built-in
// defaults per catalog on missing or invalid data. It always returns a
// usable catalog; fallbacks are logged as warnings.
func Load(dir string) *Catalog {
	cat := Default()

	if recipes, err := LoadRecipes(filepath.Join(dir, RecipesFile)); err != nil {
		slog.Warn("recipe catalog fallback", "error", err)
	} else {
		cat.Recipes = recipes
	}

	if channels, err := LoadChannels(filepath.Join(dir, ChannelsFile)); err != nil {
		slog.Warn("order channel catalog fallback", "error", err)
	} else {
		cat.Channels = channels
	}

	if commercials, err := LoadCommercials(filepath.Join(dir, CommercialsFile)); err != nil {
		slog.Warn("commercial catalog fallback", "error", err)
	} else {
		cat.Commercials = commercials
	}

	if research, err := LoadResearch(filepath.Join(dir, ResearchFile)); err != nil {
		slog.Warn("research catalog fallback", "error", err)
	} else {
		cat.Research = research
	}

	return cat
}

// minRecipeTiers is the number of distinct unlock tiers a recipe
// catalog must span. Together with the tier-0 requirement it keeps
// expansion meaningful: something to sell from the first tick, and
// something left to unlock.
const minRecipeTiers = 3

// LoadRecipes parses and validates a recipe catalog file.
// Individually invalid entries are skipped; an empty result is an
// error, as is a surviving set without a tier-0 entry or spanning
// fewer than three distinct unlock tiers.
func LoadRecipes(path string) ([]Recipe, error) {
	entries, err := decodeCatalog[Recipe](path, "#Recipe")
	if err != nil {
		return nil, err
	}

	recipes := make([]Recipe, 0, len(entries))
	tiers := make(map[int]bool)
	for key, r := range entries {
		r.Key = key
		recipes = append(recipes, r)
		tiers[r.UnlockTier] = true
	}
	if !tiers[0] {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("no tier-0 recipe")}
	}
	if len(tiers) < minRecipeTiers {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("recipes span %d unlock tiers, need %d", len(tiers), minRecipeTiers)}
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].Key < recipes[j].Key })
	return recipes, nil
}

// LoadChannels parses and validates an order channel catalog file.
func LoadChannels(path string) ([]Channel, error) {
	entries, err := decodeCatalog[Channel](path, "#Channel")
	if err != nil {
		return nil, err
	}

	channels := make([]Channel, 0, len(entries))
	for key, c := range entries {
		if c.MaxRecipeDifficulty < c.MinRecipeDifficulty {
			slog.Warn("skipping channel with inverted difficulty band", "channel", key)
			continue
		}
		c.Key = key
		channels = append(channels, c)
	}
	if len(channels) == 0 {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("no valid channel entries")}
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].Key < channels[j].Key })
	return channels, nil
}

// LoadCommercials parses and validates a commercial catalog file.
func LoadCommercials(path string) ([]Commercial, error) {
	entries, err := decodeCatalog[Commercial](path, "#Commercial")
	if err != nil {
		return nil, err
	}

	commercials := make([]Commercial, 0, len(entries))
	for key, c := range entries {
		c.Key = key
		commercials = append(commercials, c)
	}
	sort.Slice(commercials, func(i, j int) bool { return commercials[i].Key < commercials[j].Key })
	return commercials, nil
}

// LoadResearch parses and validates a research catalog file.
//
// Unlike the other catalogs the research graph is rejected as a whole
// when any prerequisite is missing or the graph contains a cycle: a
// partially valid unlock graph would silently strand nodes.
func LoadResearch(path string) ([]ResearchNode, error) {
	entries, err := decodeCatalog[ResearchNode](path, "#Research")
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]ResearchNode, len(entries))
	for key, n := range entries {
		if !techKeyRE.MatchString(key) {
			slog.Warn("skipping research node with invalid key", "key", key)
			continue
		}
		if hasSelfOrDuplicatePrereq(key, n.Prerequisites) {
			slog.Warn("skipping research node with bad prerequisites", "key", key)
			continue
		}
		n.Key = key
		nodes[key] = n
	}
	if len(nodes) == 0 {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("no valid research entries")}
	}

	for key, n := range nodes {
		for _, prereq := range n.Prerequisites {
			if _, ok := nodes[prereq]; !ok {
				return nil, &ConfigError{Path: path, Err: fmt.Errorf("node %s requires unknown node %s", key, prereq)}
			}
		}
	}
	if cycleStart := findCycle(nodes); cycleStart != "" {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("prerequisite cycle involving %s", cycleStart)}
	}

	out := make([]ResearchNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost < out[j].Cost
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// decodeCatalog reads a JSON catalog file and validates every entry
// against the named schema definition, decoding the survivors.
// JSON is a subset of CUE, so the payload compiles directly.
func decodeCatalog[T any](path, defName string) (map[string]T, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("compile schema: %w", err)}
	}
	def := schema.LookupPath(cue.ParsePath(defName))
	if err := def.Err(); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("lookup %s: %w", defName, err)}
	}

	data := ctx.CompileBytes(raw, cue.Filename(path))
	if err := data.Err(); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}

	iter, err := data.Fields()
	if err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("catalog must be an object: %w", err)}
	}

	out := make(map[string]T)
	for iter.Next() {
		key := iter.Label()
		unified := def.Unify(iter.Value())
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			slog.Warn("skipping invalid catalog entry", "file", path, "key", key, "error", err)
			continue
		}
		var entry T
		if err := unified.Decode(&entry); err != nil {
			slog.Warn("skipping undecodable catalog entry", "file", path, "key", key, "error", err)
			continue
		}
		out[key] = entry
	}
	if len(out) == 0 {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("no valid entries")}
	}
	return out, nil
}

func hasSelfOrDuplicatePrereq(key string, prereqs []string) bool {
	seen := make(map[string]bool, len(prereqs))
	for _, p := range prereqs {
		if p == key || seen[p] {
			return true
		}
		seen[p] = true
	}
	return false
}

// findCycle returns a node key participating in a prerequisite cycle,
// or "" when the graph is a DAG. Iterative DFS with three colors.
func findCycle(nodes map[string]ResearchNode) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodes))

	keys := make([]string, 0, len(nodes))
	for k := range nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var visit func(string) string
	visit = func(key string) string {
		color[key] = gray
		for _, prereq := range nodes[key].Prerequisites {
			switch color[prereq] {
			case gray:
				return prereq
			case white:
				if hit := visit(prereq); hit != "" {
					return hit
				}
			}
		}
		color[key] = black
		return ""
	}

	for _, k := range keys {
		if color[k] == white {
			if hit := visit(k); hit != "" {
				return hit
			}
		}
	}
	return ""
}
