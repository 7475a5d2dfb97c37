package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Friduric/kattis-cli/internal/pass"
	"github.com/Friduric/kattis-cli/internal/report"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Rules    string
	Data     string
	DB       string
	Filter   string
	Detailed bool
	Strict   bool
}

// ResolveResult is the JSON payload of the resolve command.
type ResolveResult struct {
	Students []report.StudentJSON `json:"students"`
	Passes   []string             `json:"passes,omitempty"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Compute goal points for every student",
		Long: `Resolve the rules against each student in a judge export and print
the points of every goal.

Exit codes:
  0 - Resolved (faults and omitted rules are reported, not fatal)
  1 - Invalid rules, or faulted/omitted rules with --strict
  2 - Command error (missing files, unreadable export, ledger errors)

Examples:
  kattis-points resolve --rules rules/course.yaml --data export.json
  kattis-points resolve --filter anna --detailed
  kattis-points resolve --db passes.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Rules, "rules", "r", "", "root rule file (.yaml, .json or .cue)")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "judge export (JSON)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record every pass in this SQLite ledger")
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "only students whose name or username contains this")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "list the rules behind every goal")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when a rule faults or is omitted")

	return cmd
}

func runResolve(opts *ResolveOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	f := newFormatter(opts.RootOptions, cmd)

	rulesPath := setting(cmd, "rules", opts.Rules, cfg.Rules)
	dataPath := setting(cmd, "data", opts.Data, cfg.Data)
	dbPath := setting(cmd, "db", opts.DB, cfg.DB)
	filter := setting(cmd, "filter", opts.Filter, cfg.Filter)
	ropts := report.Options{
		Detailed: boolSetting(cmd, "detailed", opts.Detailed, cfg.Detailed),
		Groups:   reportGroups(cfg),
	}

	rs, err := loadRules(f, rulesPath)
	if err != nil {
		return err
	}
	exp, err := loadExport(f, dataPath)
	if err != nil {
		return err
	}

	runner, err := pass.NewRunner(rs, pass.WithLogger(newLogger(opts.RootOptions, f.GetErrWriter())))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to set up resolver", err)
	}

	reports, err := runner.Export(exp, filter)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeFaults, "resolve failed", err)
	}
	if len(reports) == 0 && filter != "" {
		return f.Fail(ExitFailure, ErrCodeNoMatch, fmt.Sprintf("no student matches %q", filter), nil)
	}

	result := ResolveResult{Students: make([]report.StudentJSON, len(reports))}
	for i, rep := range reports {
		result.Students[i] = report.Build(rep, ropts)
	}

	if dbPath != "" {
		st, err := openStore(f, dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		for _, rep := range reports {
			p, err := runner.Record(cmd.Context(), st, rep)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeStore, "failed to record pass", err)
			}
			result.Passes = append(result.Passes, p.ID)
			f.VerboseLog("Recorded pass %s for %s", p.ID, p.Username)
		}
	}

	err = f.Render(result, func(w io.Writer) error {
		if err := report.Text(w, reports, ropts); err != nil {
			return err
		}
		if len(result.Passes) > 0 {
			_, err := fmt.Fprintf(w, "\nRecorded %d pass(es) in %s\n", len(result.Passes), dbPath)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if opts.Strict {
		var faults, omitted int
		for _, rep := range reports {
			faults += len(rep.Result.Faults)
			omitted += len(rep.Result.Omitted)
		}
		if faults > 0 || omitted > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("%s: %d faulted and %d omitted rule evaluation(s)", ErrCodeFaults, faults, omitted))
		}
	}
	return nil
}
