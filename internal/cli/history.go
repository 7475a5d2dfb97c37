package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Friduric/kattis-cli/internal/report"
	"github.com/Friduric/kattis-cli/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Limit int
	Goal  string
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Username string       `json:"username"`
	Passes   []store.Pass `json:"passes"`
	Goal     string       `json:"goal,omitempty"`
	Points   []float64    `json:"points,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <username>",
		Short: "List recorded passes for a student",
		Long: `List the passes recorded for a student by resolve --db, newest first.

With --goal, also print how that goal's points changed from pass to pass.

Examples:
  kattis-points history anna --db passes.db
  kattis-points history anna --db passes.db --goal labs --limit 5`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite ledger")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show at most this many passes (0 = all)")
	cmd.Flags().StringVar(&opts.Goal, "goal", "", "show the points of this goal in every pass")

	return cmd
}

func runHistory(opts *HistoryOptions, username string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	f := newFormatter(opts.RootOptions, cmd)

	dbPath := setting(cmd, "db", opts.DB, cfg.DB)
	if dbPath == "" {
		return f.Fail(ExitCommandError, ErrCodeUsage, "no ledger: pass --db or set db in the config", nil)
	}
	st, err := openStore(f, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	passes, err := st.ListPasses(ctx, username, opts.Limit)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to list passes", err)
	}
	result := HistoryResult{Username: username, Passes: passes}
	if result.Passes == nil {
		result.Passes = []store.Pass{}
	}
	if opts.Goal != "" {
		result.Goal = opts.Goal
		if result.Points, err = st.GoalHistory(ctx, username, opts.Goal); err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to read goal history", err)
		}
	}

	return f.Render(result, func(w io.Writer) error {
		writeHistoryText(w, result)
		return nil
	})
}

func writeHistoryText(w io.Writer, result HistoryResult) {
	if len(result.Passes) == 0 {
		fmt.Fprintf(w, "No passes recorded for %s.\n", result.Username)
		return
	}
	fmt.Fprintf(w, "Passes for %s (%d):\n", result.Username, len(result.Passes))
	for _, p := range result.Passes {
		fmt.Fprintf(w, "  %s  total %-5s rules %-4d %s\n",
			p.CreatedAt.Format("2006-01-02 15:04:05"), report.FormatPoints(p.Total), p.RuleCount, p.ID)
	}
	if result.Goal != "" {
		points := make([]string, len(result.Points))
		for i, v := range result.Points {
			points[i] = report.FormatPoints(v)
		}
		fmt.Fprintf(w, "\n%s: %v\n", result.Goal, points)
	}
}
