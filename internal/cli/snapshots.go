package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flaxos/Pizzatorio/internal/store"
)

// SnapshotsOptions holds flags for the snapshots command.
type SnapshotsOptions struct {
	*RootOptions
	Database string
	Session  string
	Limit    int
}

// NewSnapshotsCommand creates the snapshots command with its
// subcommands.
func NewSnapshotsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect stored session snapshots",
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite snapshot database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Example: `  pizzatorio snapshots list --db ./factory.db
  pizzatorio snapshots list --db ./factory.db --session 6f1c...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSnapshots(opts, cmd)
		},
	}
	list.Flags().StringVar(&opts.Session, "session", "", "filter by session ID")
	list.Flags().IntVar(&opts.Limit, "limit", 20, "maximum rows (0 = all)")

	prune := &cobra.Command{
		Use:           "prune <session-id>",
		Short:         "Delete every snapshot of a session",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return pruneSession(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(list)
	cmd.AddCommand(prune)
	return cmd
}

func listSnapshots(opts *SnapshotsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	metas, err := st.List(cmd.Context(), opts.Session, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list snapshots", err)
	}

	if opts.Format == "json" {
		return formatter.Success(metas)
	}

	if len(metas) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no snapshots")
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %-36s %8s %10s  %s\n", "ID", "SESSION", "TICKS", "TIME", "CREATED")
	for _, m := range metas {
		fmt.Fprintf(&b, "%-6d %-36s %8d %9.1fs  %s\n", m.ID, m.SessionID, m.Ticks, m.SimTime, m.CreatedAt)
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}

func pruneSession(opts *SnapshotsOptions, sessionID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	n, err := st.DeleteSession(cmd.Context(), sessionID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to delete session", err)
	}
	if n == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no snapshots for session %q", sessionID))
	}
	return formatter.Success(fmt.Sprintf("deleted %d snapshots of session %s", n, sessionID))
}
