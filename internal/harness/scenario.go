// Package harness runs scripted simulation scenarios for conformance
// and regression testing.
//
// A scenario is a YAML file: a seed, a tick schedule, a list of timed
// commands, and expectations on the final state. The harness runs the
// session headless, samples KPIs along the way, checks item
// conservation at every sample, and can verify determinism by running
// the whole thing twice and comparing final snapshots byte for byte.
package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one scripted session.
type Scenario struct {
	// Name uniquely identifies the scenario; golden files are stored
	// under this name.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Seed for the session PRNG. Zero means the default seed.
	Seed int64 `yaml:"seed,omitempty"`

	// Dt is the fixed tick length in simulated seconds. Zero means
	// 0.1.
	Dt float64 `yaml:"dt,omitempty"`

	// Ticks is how many ticks to run.
	Ticks int64 `yaml:"ticks"`

	// SampleEvery controls KPI sampling cadence in ticks. Zero means
	// 50.
	SampleEvery int64 `yaml:"sample_every,omitempty"`

	// CatalogDir optionally points at catalog JSON files. Empty means
	// built-in defaults.
	CatalogDir string `yaml:"catalog_dir,omitempty"`

	// TuningFile optionally points at a tuning config. Empty means
	// built-in defaults.
	TuningFile string `yaml:"tuning_file,omitempty"`

	// Commands are applied at their scheduled tick, before that
	// tick's update runs. Commands are assumed to succeed unless
	// AllowFail is set.
	Commands []CommandStep `yaml:"commands,omitempty"`

	// Expect validates the final state. Nil means the run only has to
	// complete without a conservation failure.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// VerifyDeterminism re-runs the scenario and requires both final
	// snapshots to encode to identical bytes.
	VerifyDeterminism bool `yaml:"verify_determinism,omitempty"`
}

// CommandStep schedules one command invocation.
type CommandStep struct {
	// AtTick is when the command fires (0 = before the first tick).
	AtTick int64 `yaml:"at_tick"`

	// Command is one of: place, remove, rotate, set_channel,
	// activate_commercial, set_focus.
	Command string `yaml:"command"`

	X    int    `yaml:"x,omitempty"`
	Y    int    `yaml:"y,omitempty"`
	Kind string `yaml:"kind,omitempty"`
	Rot  int    `yaml:"rot,omitempty"`
	Key  string `yaml:"key,omitempty"`

	// AllowFail tolerates a command error instead of aborting the
	// run. Used to script rejection cases.
	AllowFail bool `yaml:"allow_fail,omitempty"`
}

// ExpectClause holds final-state expectations. Pointer fields are
// skipped when nil.
type ExpectClause struct {
	MinCash       *int     `yaml:"min_cash,omitempty"`
	MaxCash       *int     `yaml:"max_cash,omitempty"`
	MinProduced   *int64   `yaml:"min_produced,omitempty"`
	MinResolved   *int64   `yaml:"min_resolved,omitempty"`
	MaxMissed     *int64   `yaml:"max_missed,omitempty"`
	MinReputation *float64 `yaml:"min_reputation,omitempty"`
	Unlocked      []string `yaml:"unlocked,omitempty"`
	Channel       string   `yaml:"channel,omitempty"`
}

// LoadScenario parses a scenario YAML file. Unknown fields are
// rejected so typos in expectation names fail loudly instead of
// silently passing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario has no name")
	}
	if sc.Ticks < 0 {
		return nil, fmt.Errorf("scenario %q: negative tick count", sc.Name)
	}
	for i, c := range sc.Commands {
		switch c.Command {
		case "place", "remove", "rotate", "set_channel", "activate_commercial", "set_focus":
		default:
			return nil, fmt.Errorf("scenario %q: command[%d]: unknown command %q", sc.Name, i, c.Command)
		}
		if c.AtTick < 0 || c.AtTick > sc.Ticks {
			return nil, fmt.Errorf("scenario %q: command[%d]: at_tick %d outside run of %d ticks", sc.Name, i, c.AtTick, sc.Ticks)
		}
	}
	return &sc, nil
}
