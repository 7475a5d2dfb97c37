package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Friduric/kattis-cli/internal/graph"
	"github.com/Friduric/kattis-cli/internal/ruleset"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Rules string
}

// ValidationError is one problem found in a ruleset.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Rules   []int  `json:"rules,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Rules  int               `json:"rules"`
	Files  []string          `json:"files"`
	Goals  []string          `json:"goals"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [rules-file]",
		Short: "Check rule files without resolving",
		Long: `Load a rule file and everything it includes, check every rule against
the rule schema, and report rules that read each other's goals.

Exit codes:
  0 - Rules are valid
  1 - A rule is malformed or rules form a dependency cycle
  2 - Command error (file not found or unreadable)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Rules = args[0]
				_ = cmd.Flags().Set("rules", args[0])
			}
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Rules, "rules", "r", "", "root rule file")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	f := newFormatter(opts.RootOptions, cmd)

	rs, err := loadRules(f, setting(cmd, "rules", opts.Rules, cfg.Rules))
	if err != nil {
		return err
	}

	result := ValidateRuleset(rs)
	for _, file := range result.Files {
		f.VerboseLog("Checked %s", file)
	}
	if !result.Valid {
		return outputValidationErrors(f, result)
	}

	return f.Render(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ %d rule(s) valid towards %d goal(s) in %d file(s)\n", result.Rules, len(result.Goals), len(result.Files))
		return err
	})
}

// ValidateRuleset checks a loaded ruleset for dependency cycles.
func ValidateRuleset(rs *ruleset.Ruleset) ValidationResult {
	result := ValidationResult{
		Valid: true,
		Rules: len(rs.Rules),
		Files: rs.Files,
		Goals: rs.Targets(),
	}
	if result.Files == nil {
		result.Files = []string{}
	}
	if result.Goals == nil {
		result.Goals = []string{}
	}
	for _, c := range graph.Cycles(graph.Build(rs.Rules)) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{Code: ErrCodeCycle, Message: c.Message, Rules: c.Rules})
	}
	return result
}

func outputValidationErrors(f *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if f.Format == "json" {
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return reportedExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	for _, e := range errs {
		fmt.Fprintf(f.Writer, "  %s: %s\n", e.Code, e.Message)
	}
	return reportedExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
