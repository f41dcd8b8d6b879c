package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flaxos/Pizzatorio/internal/harness"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <file>...",
		Short: "Run scripted scenario files",
		Long: `Run one or more YAML scenario files headless and check their
expectations. A scenario that requests determinism verification is run
twice and both final snapshots must match byte for byte.

Example:
  pizzatorio scenario scenarios/smoke.yaml
  pizzatorio scenario scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	return cmd
}

// scenarioOutcome is the per-file report.
type scenarioOutcome struct {
	File      string           `json:"file"`
	Name      string           `json:"name,omitempty"`
	Passed    bool             `json:"passed"`
	Detail    string           `json:"detail,omitempty"`
	StateHash string           `json:"state_hash,omitempty"`
	Summary   *harness.Summary `json:"summary,omitempty"`
}

func runScenarios(opts *ScenarioOptions, files []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var outcomes []scenarioOutcome
	failed := 0

	for _, file := range files {
		outcome := scenarioOutcome{File: file}
		sc, err := harness.LoadScenario(file)
		if err != nil {
			outcome.Detail = err.Error()
			failed++
			outcomes = append(outcomes, outcome)
			continue
		}
		outcome.Name = sc.Name

		formatter.VerboseLog("running scenario %q (%d ticks)", sc.Name, sc.Ticks)
		res, err := harness.Run(sc)
		if err != nil {
			outcome.Detail = err.Error()
			failed++
		} else {
			outcome.Passed = true
			outcome.StateHash = res.StateHash
			outcome.Summary = &res.Summary
		}
		outcomes = append(outcomes, outcome)
	}

	if opts.Format == "json" {
		if err := formatter.Success(outcomes); err != nil {
			return err
		}
	} else {
		var b strings.Builder
		for _, o := range outcomes {
			if o.Passed {
				fmt.Fprintf(&b, "PASS  %s", o.File)
				if o.Summary != nil {
					fmt.Fprintf(&b, "  (produced %d, resolved %d, cash $%d)",
						o.Summary.Produced, o.Summary.Resolved, o.Summary.Cash)
				}
				b.WriteByte('\n')
			} else {
				fmt.Fprintf(&b, "FAIL  %s\n      %s\n", o.File, o.Detail)
			}
		}
		fmt.Fprintf(&b, "%d passed, %d failed\n", len(outcomes)-failed, failed)
		fmt.Fprint(cmd.OutOrStdout(), b.String())
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", failed, len(outcomes)))
	}
	return nil
}
