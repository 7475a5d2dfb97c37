package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Friduric/kattis-cli/internal/graph"
	"github.com/Friduric/kattis-cli/internal/ruleset"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Rules string
}

// GraphRule is one rule as the scheduler sees it.
type GraphRule struct {
	Index   int      `json:"index"`
	Name    string   `json:"name"`
	Towards string   `json:"towards"`
	Reads   []string `json:"reads,omitempty"`
}

// GraphOmission is a rule left out of the order.
type GraphOmission struct {
	GraphRule
	WaitingOn []int `json:"waiting_on"`
}

// GraphResult is the evaluation plan of a ruleset.
type GraphResult struct {
	Rules   int             `json:"rules"`
	Order   []GraphRule     `json:"order"`
	Omitted []GraphOmission `json:"omitted,omitempty"`
	Cycles  []graph.Cycle   `json:"cycles,omitempty"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph [rules-file]",
		Short: "Show the rule evaluation order",
		Long: `Show the order rules are evaluated in, which goals each rule reads,
and the rules that can never run because they read each other's goals.

Exits 1 when any rule is omitted.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Rules = args[0]
				_ = cmd.Flags().Set("rules", args[0])
			}
			return runGraph(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Rules, "rules", "r", "", "root rule file")

	return cmd
}

// Plan computes the evaluation plan of rs.
func Plan(rs *ruleset.Ruleset) GraphResult {
	g := graph.Build(rs.Rules)
	plan := graph.Schedule(g)

	describe := func(i int) GraphRule {
		r := rs.Rules[i]
		return GraphRule{Index: i, Name: r.DisplayName(), Towards: r.Towards, Reads: g.Refs[i]}
	}

	out := GraphResult{Rules: len(rs.Rules), Order: make([]GraphRule, 0, len(plan.Order))}
	for _, i := range plan.Order {
		out.Order = append(out.Order, describe(i))
	}
	for _, i := range plan.Omitted {
		out.Omitted = append(out.Omitted, GraphOmission{GraphRule: describe(i), WaitingOn: graph.WaitingOn(g, plan.Order, i)})
	}
	if len(plan.Omitted) > 0 {
		out.Cycles = graph.Cycles(g)
	}
	return out
}

func runGraph(opts *GraphOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	f := newFormatter(opts.RootOptions, cmd)

	rs, err := loadRules(f, setting(cmd, "rules", opts.Rules, cfg.Rules))
	if err != nil {
		return err
	}

	result := Plan(rs)
	err = f.Render(result, func(w io.Writer) error {
		writeGraphText(w, result)
		return nil
	})
	if err != nil {
		return err
	}

	if len(result.Omitted) > 0 {
		return reportedExitError(ExitFailure, fmt.Sprintf("%s: %d rule(s) omitted", ErrCodeCycle, len(result.Omitted)))
	}
	return nil
}

func writeGraphText(w io.Writer, result GraphResult) {
	fmt.Fprintf(w, "Evaluation order (%d of %d rules):\n", len(result.Order), result.Rules)
	for _, r := range result.Order {
		fmt.Fprintf(w, "  %s\n", graphLine(r))
	}

	if len(result.Omitted) == 0 {
		return
	}
	fmt.Fprintf(w, "\nOmitted (%d):\n", len(result.Omitted))
	for _, o := range result.Omitted {
		fmt.Fprintf(w, "  %s, waiting on %v\n", graphLine(o.GraphRule), o.WaitingOn)
	}
	fmt.Fprintf(w, "\nCycles (%d):\n", len(result.Cycles))
	for _, c := range result.Cycles {
		fmt.Fprintf(w, "  %s\n", c.Message)
	}
}

func graphLine(r GraphRule) string {
	line := fmt.Sprintf("#%d %s -> %s", r.Index, r.Name, r.Towards)
	if len(r.Reads) > 0 {
		line += fmt.Sprintf("  (reads %s)", strings.Join(r.Reads, ", "))
	}
	return line
}
