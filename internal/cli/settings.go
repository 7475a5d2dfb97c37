package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Friduric/kattis-cli/internal/config"
	"github.com/Friduric/kattis-cli/internal/kattis"
	"github.com/Friduric/kattis-cli/internal/report"
	"github.com/Friduric/kattis-cli/internal/ruleset"
	"github.com/Friduric/kattis-cli/internal/store"
)

// loadConfig reads the config file and lets it fill in the output format
// when --format was not given. Errors are already printed.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, newFormatter(opts, cmd).Fail(ExitCommandError, ErrCodeConfig, "invalid config file", err)
	}
	if cfg.Path != "" && !cmd.Flags().Changed("format") {
		opts.Format = cfg.Format
	}
	return cfg, nil
}

// setting returns the flag value when the flag was set on the command
// line or the config leaves it empty, and the config value otherwise.
func setting(cmd *cobra.Command, name, flagVal, cfgVal string) string {
	if cmd.Flags().Changed(name) || cfgVal == "" {
		return flagVal
	}
	return cfgVal
}

func boolSetting(cmd *cobra.Command, name string, flagVal, cfgVal bool) bool {
	if cmd.Flags().Changed(name) {
		return flagVal
	}
	return flagVal || cfgVal
}

func reportGroups(cfg *config.Config) []report.Group {
	if len(cfg.Groups) == 0 {
		return nil
	}
	groups := make([]report.Group, len(cfg.Groups))
	for i, g := range cfg.Groups {
		groups[i] = report.Group{Title: g.Title, Prefix: g.Prefix}
	}
	return groups
}

// newLogger returns the CLI logger: text on w, debug with --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadRules loads a rule file and prints load failures. Missing or
// unreadable files are command errors, malformed rules are failures.
func loadRules(f *OutputFormatter, path string) (*ruleset.Ruleset, error) {
	if path == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeUsage, "no rule file: pass --rules or set rules in the config", nil)
	}
	rs, err := ruleset.Load(path)
	if err == nil {
		f.VerboseLog("Loaded %d rule(s) from %d file(s)", len(rs.Rules), len(rs.Files))
		return rs, nil
	}

	var loadErr *ruleset.LoadError
	if errors.As(err, &loadErr) {
		exit := ExitFailure
		if loadErr.Code == ruleset.ErrCodeNotFound || loadErr.Code == ruleset.ErrCodeReadFailed {
			exit = ExitCommandError
		}
		msg := loadErr.Message
		if loadErr.Path != "" {
			msg = loadErr.Path + ": " + msg
		}
		return nil, f.Fail(exit, loadErr.Code, msg, loadErr.Err)
	}
	var ruleErr *ruleset.RuleError
	if errors.As(err, &ruleErr) {
		return nil, f.Fail(ExitFailure, ruleset.ErrCodeInvalidRule, ruleErr.Error(), nil)
	}
	return nil, f.Fail(ExitFailure, ruleset.ErrCodeGeneric, err.Error(), nil)
}

func loadExport(f *OutputFormatter, path string) (*kattis.Export, error) {
	if path == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeUsage, "no judge export: pass --data or set data in the config", nil)
	}
	exp, err := kattis.ReadExport(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeExport, fmt.Sprintf("cannot load export %s", path), err)
	}
	f.VerboseLog("Loaded %d student(s) and %d session(s) from %s", len(exp.Students), len(exp.Sessions), path)
	return exp, nil
}

func openStore(f *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("cannot open ledger %s", path), err)
	}
	return st, nil
}
