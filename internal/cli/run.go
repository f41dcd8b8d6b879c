package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flaxos/Pizzatorio/internal/catalog"
	"github.com/flaxos/Pizzatorio/internal/config"
	"github.com/flaxos/Pizzatorio/internal/sim"
	"github.com/flaxos/Pizzatorio/internal/snapshot"
	"github.com/flaxos/Pizzatorio/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Ticks     int64
	Dt        float64
	Seed      int64
	Database  string
	Load      string
	Session   string
	SaveEvery int64
	Catalog   string
	Tuning    string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless simulation session",
		Long: `Run a headless simulation session for a fixed number of ticks.

With --db, the session is snapshotted into a SQLite database at the end
(and periodically with --save-every). With --load, the session resumes
from the latest stored snapshot instead of starting fresh.

Example:
  pizzatorio run --ticks 2000
  pizzatorio run --ticks 5000 --seed 42 --db ./factory.db --save-every 1000
  pizzatorio run --ticks 1000 --db ./factory.db --load latest`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Ticks, "ticks", 1000, "number of ticks to run")
	cmd.Flags().Float64Var(&opts.Dt, "dt", 0.1, "tick length in simulated seconds")
	cmd.Flags().Int64Var(&opts.Seed, "seed", sim.DefaultSeed, "PRNG seed for a fresh session")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite snapshot database")
	cmd.Flags().StringVar(&opts.Load, "load", "", `resume from a stored snapshot: "latest" or a session ID (requires --db)`)
	cmd.Flags().StringVar(&opts.Session, "session", "", "session ID for saved snapshots (default: a fresh UUID)")
	cmd.Flags().Int64Var(&opts.SaveEvery, "save-every", 0, "snapshot every N ticks (requires --db, 0 = final only)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "directory of catalog JSON files (default: built-ins)")
	cmd.Flags().StringVar(&opts.Tuning, "tuning", "", "tuning config file (default: built-ins)")

	return cmd
}

func runSession(opts *RunOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Ticks <= 0 {
		return NewExitError(ExitCommandError, "--ticks must be positive")
	}
	if opts.Dt <= 0 {
		return NewExitError(ExitCommandError, "--dt must be positive")
	}
	if (opts.Load != "" || opts.SaveEvery > 0) && opts.Database == "" {
		return NewExitError(ExitCommandError, "--load and --save-every require --db")
	}

	cat := catalog.Default()
	if opts.Catalog != "" {
		cat = catalog.Load(opts.Catalog)
	}
	tun := config.Defaults()
	if opts.Tuning != "" {
		tun = config.Load(opts.Tuning)
	}

	var st *store.Store
	if opts.Database != "" {
		var err error
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
	}

	s, sessionID, err := startSession(opts, st, cat, tun)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("session starting", "session", sessionID, "seed", s.Seed(), "ticks", opts.Ticks, "dt", opts.Dt)

	startTick := s.Ticks()
	for i := int64(0); i < opts.Ticks; i++ {
		if ctx.Err() != nil {
			slog.Info("session interrupted", "ticks_run", s.Ticks()-startTick)
			break
		}
		s.Tick(opts.Dt)
		if st != nil && opts.SaveEvery > 0 && (s.Ticks()-startTick)%opts.SaveEvery == 0 {
			if _, err := st.SaveSnapshot(ctx, s.Snapshot(sessionID)); err != nil {
				return WrapExitError(ExitFailure, "periodic snapshot failed", err)
			}
			slog.Debug("snapshot saved", "tick", s.Ticks())
		}
	}

	if !s.ConservationOK() {
		return NewExitError(ExitFailure, "item ledger out of balance at end of run")
	}

	if st != nil {
		id, err := st.SaveSnapshot(context.Background(), s.Snapshot(sessionID))
		if err != nil {
			return WrapExitError(ExitFailure, "final snapshot failed", err)
		}
		slog.Info("session saved", "session", sessionID, "snapshot_id", id, "tick", s.Ticks())
	}

	return formatter.Success(buildRunReport(sessionID, s))
}

// startSession builds a fresh Sim or restores one from the store.
func startSession(opts *RunOptions, st *store.Store, cat *catalog.Catalog, tun config.Tuning) (*sim.Sim, string, error) {
	if opts.Load == "" {
		sessionID := opts.Session
		if sessionID == "" {
			sessionID = snapshot.NewSessionID()
		}
		return sim.New(opts.Seed, cat, tun), sessionID, nil
	}

	session := opts.Load
	if session == "latest" {
		session = ""
	}
	state, err := st.LoadLatest(context.Background(), session)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "failed to load snapshot", err)
	}
	s, err := sim.Restore(state, cat, tun)
	if err != nil {
		return nil, "", WrapExitError(ExitFailure, "failed to restore session", err)
	}
	slog.Info("session restored", "session", state.SessionID, "tick", s.Ticks())
	return s, state.SessionID, nil
}

// runReport is the end-of-run summary.
type runReport struct {
	Session  string              `json:"session"`
	Seed     int64               `json:"seed"`
	Ticks    int64               `json:"ticks"`
	Time     float64             `json:"time"`
	Economy  sim.EconomySummary  `json:"economy"`
	KPI      sim.KPI             `json:"kpi"`
	Counters sim.Counters        `json:"counters"`
	Research sim.ResearchState   `json:"research"`
	Channel  string              `json:"channel"`
}

func buildRunReport(sessionID string, s *sim.Sim) runReport {
	return runReport{
		Session:  sessionID,
		Seed:     s.Seed(),
		Ticks:    s.Ticks(),
		Time:     s.Time(),
		Economy:  s.EconomySummary(),
		KPI:      s.KPISnapshot(),
		Counters: s.Counters(),
		Research: s.ResearchState(),
		Channel:  s.Channel(),
	}
}

func (r runReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "session %s (seed %d)\n", r.Session, r.Seed)
	fmt.Fprintf(&b, "  ticks: %d  time: %.1fs  channel: %s\n", r.Ticks, r.Time, r.Channel)
	fmt.Fprintf(&b, "  cash: $%d  revenue: $%d  spend: $%d  reputation: %.1f\n",
		r.Economy.Cash, r.Economy.Revenue, r.Economy.Spend, r.Economy.Reputation)
	fmt.Fprintf(&b, "  produced: %d  wasted: %d  in flight: %d\n",
		r.Counters.Produced, r.Counters.Wasted, r.Counters.InFlight)
	fmt.Fprintf(&b, "  orders: %d resolved (%d on time, %d late, %d missed)\n",
		r.Counters.Resolved, r.Counters.OnTime, r.Counters.Late, r.Counters.Missed)
	fmt.Fprintf(&b, "  hygiene: %.1f%%  bottleneck: %.1f%%  on-time rate: %.1f%%\n",
		r.KPI.Hygiene, r.KPI.Bottleneck, r.KPI.OnTimeRate)
	fmt.Fprintf(&b, "  research: %.1f xp, %d unlocked  expansion: tier %d",
		r.Research.Points, len(r.Research.Unlocked), r.KPI.ExpansionTier)
	return b.String()
}
