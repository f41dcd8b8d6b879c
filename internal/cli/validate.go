package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flaxos/Pizzatorio/internal/catalog"
	"github.com/flaxos/Pizzatorio/internal/config"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Tuning string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <catalog-dir>",
		Short: "Validate catalog files without running a session",
		Long: `Validate catalog JSON files against their schemas.

Unlike a running session, which falls back to built-in defaults when a
catalog file is broken, validate reports every problem and fails, so CI
can gate catalog changes.

Example:
  pizzatorio validate ./data
  pizzatorio validate ./data --tuning ./data/tuning.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateCatalog(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Tuning, "tuning", "", "also validate a tuning config file")

	return cmd
}

// validationResult is the per-file outcome report.
type validationResult struct {
	File   string `json:"file"`
	OK     bool   `json:"ok"`
	Count  int    `json:"entries,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func validateCatalog(opts *ValidateOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var results []validationResult
	failed := false

	check := func(name string, n int, err error) {
		r := validationResult{File: name, OK: err == nil, Count: n}
		if err != nil {
			r.Detail = err.Error()
			failed = true
		}
		results = append(results, r)
	}

	recipes, err := catalog.LoadRecipes(filepath.Join(dir, "recipes.json"))
	check("recipes.json", len(recipes), err)
	channels, err := catalog.LoadChannels(filepath.Join(dir, "order_channels.json"))
	check("order_channels.json", len(channels), err)
	commercials, err := catalog.LoadCommercials(filepath.Join(dir, "commercials.json"))
	check("commercials.json", len(commercials), err)
	research, err := catalog.LoadResearch(filepath.Join(dir, "research.json"))
	check("research.json", len(research), err)

	if opts.Tuning != "" {
		_, err := config.LoadStrict(opts.Tuning)
		check(filepath.Base(opts.Tuning), 0, err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		var b strings.Builder
		for _, r := range results {
			if r.OK {
				fmt.Fprintf(&b, "ok    %-22s %d entries\n", r.File, r.Count)
			} else {
				fmt.Fprintf(&b, "FAIL  %-22s %s\n", r.File, r.Detail)
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), b.String())
	}

	if failed {
		return NewExitError(ExitFailure, "catalog validation failed")
	}
	return nil
}
