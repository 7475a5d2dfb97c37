// Package pass runs resolution passes for students: it builds the
// evaluation context from a submission history, resolves the ruleset and
// optionally records the outcome in the ledger.
package pass

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Friduric/kattis-cli/internal/celexpr"
	"github.com/Friduric/kattis-cli/internal/engine"
	"github.com/Friduric/kattis-cli/internal/eval"
	"github.com/Friduric/kattis-cli/internal/kattis"
	"github.com/Friduric/kattis-cli/internal/report"
	"github.com/Friduric/kattis-cli/internal/ruleset"
	"github.com/Friduric/kattis-cli/internal/store"
)

// Runner resolves one ruleset for any number of students. The ruleset is
// never mutated, so a Runner can serve concurrent requests.
type Runner struct {
	rules   *ruleset.Ruleset
	cel     *celexpr.Compiler
	logger  *slog.Logger
	now     func() time.Time
	loc     *time.Location
	idGen   store.IDGenerator
	plugins []eval.Handler
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger passed to the engine and history.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithClock sets the clock for today-only submission times and pass
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLocation sets the time zone of submissions and deadlines.
func WithLocation(loc *time.Location) Option {
	return func(r *Runner) { r.loc = loc }
}

// WithIDGenerator sets the pass id generator. Default: UUIDv7.
func WithIDGenerator(gen store.IDGenerator) Option {
	return func(r *Runner) { r.idGen = gen }
}

// WithPlugins adds handlers ahead of the history plugins.
func WithPlugins(hs ...eval.Handler) Option {
	return func(r *Runner) { r.plugins = append(r.plugins, hs...) }
}

// NewRunner creates a Runner for rs.
func NewRunner(rs *ruleset.Ruleset, opts ...Option) (*Runner, error) {
	cel, err := celexpr.NewCompiler()
	if err != nil {
		return nil, err
	}
	r := &Runner{
		rules:  rs,
		cel:    cel,
		logger: slog.Default(),
		now:    time.Now,
		loc:    time.Local,
		idGen:  store.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rules returns the ruleset.
func (r *Runner) Rules() *ruleset.Ruleset {
	return r.rules
}

// WithRules returns a Runner sharing r's settings and CEL cache but
// resolving rs.
func (r *Runner) WithRules(rs *ruleset.Ruleset) *Runner {
	cp := *r
	cp.rules = rs
	return &cp
}

// History builds the submission history of st.
func (r *Runner) History(st kattis.Student, sessions []kattis.Session) *kattis.History {
	return kattis.NewHistory(st, sessions,
		kattis.WithClock(r.now),
		kattis.WithLocation(r.loc),
		kattis.WithLogger(r.logger))
}

// Context builds a fresh evaluation context for one history. Priority:
// extra plugins, then cel, then the history operators, then builtins.
func (r *Runner) Context(h *kattis.History) *eval.Context {
	plugins := append([]eval.Handler{}, r.plugins...)
	plugins = append(plugins, r.cel.Handler(h))
	plugins = append(plugins, h.Plugins()...)
	return eval.New(eval.WithPlugins(plugins...))
}

// Student resolves the ruleset for one student.
func (r *Runner) Student(st kattis.Student, sessions []kattis.Session) (report.StudentReport, error) {
	h := r.History(st, sessions)
	res, err := engine.Resolve(r.rules, r.Context(h), engine.WithLogger(r.logger.With("student", st.Username)))
	if err != nil {
		return report.StudentReport{}, fmt.Errorf("resolve %s: %w", st.Username, err)
	}
	return report.StudentReport{Username: st.Username, Name: st.Name, Result: res, History: h}, nil
}

// Export resolves every student in exp matching filter, in export order.
func (r *Runner) Export(exp *kattis.Export, filter string) ([]report.StudentReport, error) {
	students := exp.Filter(filter)
	reports := make([]report.StudentReport, 0, len(students))
	for _, st := range students {
		rep, err := r.Student(st, exp.Sessions)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// Record stores a resolved report as a pass.
func (r *Runner) Record(ctx context.Context, s *store.Store, rep report.StudentReport) (store.Pass, error) {
	p, err := store.NewPass(r.idGen, r.now(), rep.Username, rep.Name, r.rules, rep.Result)
	if err != nil {
		return store.Pass{}, err
	}
	seq, err := s.WritePass(ctx, p)
	if err != nil {
		return store.Pass{}, err
	}
	p.Seq = seq
	r.logger.Debug("pass recorded", "id", p.ID, "student", p.Username, "total", p.Total)
	return p, nil
}
