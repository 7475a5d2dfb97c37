package kattis

import (
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Attempt is a parsed submission.
type Attempt struct {
	Problem   string
	Time      time.Time
	Judgement string
	Accepted  bool
}

// History indexes one student's submissions by problem. Attempts are kept
// in time order.
type History struct {
	Student Student

	attempts map[string][]Attempt
	sessions map[string]int
	loc      *time.Location
}

// HistoryOption configures NewHistory.
type HistoryOption func(*historyConfig)

type historyConfig struct {
	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger
}

// WithClock sets the clock used to date submissions that only carry a
// time of day. Default: time.Now.
func WithClock(now func() time.Time) HistoryOption {
	return func(c *historyConfig) { c.now = now }
}

// WithLocation sets the time zone of submission times and deadlines.
// Default: time.Local.
func WithLocation(loc *time.Location) HistoryOption {
	return func(c *historyConfig) { c.loc = loc }
}

// WithLogger sets the logger for skipped submissions.
func WithLogger(logger *slog.Logger) HistoryOption {
	return func(c *historyConfig) { c.logger = logger }
}

// NewHistory builds the history of st. Session credit is read from
// sessions. Submissions with an unparseable time are skipped with a warning.
func NewHistory(st Student, sessions []Session, opts ...HistoryOption) *History {
	cfg := &historyConfig{now: time.Now, loc: time.Local, logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	h := &History{
		Student:  st,
		attempts: make(map[string][]Attempt),
		sessions: make(map[string]int),
		loc:      cfg.loc,
	}

	now := cfg.now()
	for _, sub := range st.Submissions {
		t, err := ParseSubmissionTime(sub.Time, now, cfg.loc)
		if err != nil {
			cfg.logger.Warn("skipping submission", "student", st.Username, "problem", sub.Problem, "error", err)
			continue
		}
		h.Add(Attempt{Problem: sub.Problem, Time: t, Judgement: sub.Judgement, Accepted: sub.Accepted()})
	}

	for _, s := range sessions {
		h.sessions[s.Name] += s.SessionCredit()[st.Username]
	}
	return h
}

// Add records an attempt, keeping the problem's attempts in time order.
func (h *History) Add(a Attempt) {
	list := append(h.attempts[a.Problem], a)
	slices.SortStableFunc(list, func(x, y Attempt) int { return x.Time.Compare(y.Time) })
	h.attempts[a.Problem] = list
}

// Attempts returns every attempt at a problem.
func (h *History) Attempts(problem string) []Attempt {
	return h.attempts[problem]
}

// Solutions returns the accepted attempts at a problem.
func (h *History) Solutions(problem string) []Attempt {
	return h.filter(problem, true)
}

// WrongAnswers returns the rejected attempts at a problem.
func (h *History) WrongAnswers(problem string) []Attempt {
	return h.filter(problem, false)
}

func (h *History) filter(problem string, accepted bool) []Attempt {
	var out []Attempt
	for _, a := range h.attempts[problem] {
		if a.Accepted == accepted {
			out = append(out, a)
		}
	}
	return out
}

// Solved reports whether the problem has an accepted attempt.
func (h *History) Solved(problem string) bool {
	_, ok := h.FirstSolved(problem)
	return ok
}

// FirstSolved returns the time of the earliest accepted attempt.
func (h *History) FirstSolved(problem string) (time.Time, bool) {
	for _, a := range h.attempts[problem] {
		if a.Accepted {
			return a.Time, true
		}
	}
	return time.Time{}, false
}

// SolvedBefore reports whether the first accepted attempt is at or before
// deadline.
func (h *History) SolvedBefore(problem string, deadline time.Time) bool {
	t, ok := h.FirstSolved(problem)
	return ok && !t.After(deadline)
}

// SessionSolved returns the problems solved by the student's teams in the
// named session.
func (h *History) SessionSolved(name string) int {
	return h.sessions[name]
}

// Problems returns every attempted problem, sorted.
func (h *History) Problems() []string {
	out := make([]string, 0, len(h.attempts))
	for p := range h.attempts {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Accepted returns every solved problem, sorted.
func (h *History) Accepted() []string {
	var out []string
	for _, p := range h.Problems() {
		if h.Solved(p) {
			out = append(out, p)
		}
	}
	return out
}

// Deadline parses a deadline in the history's time zone. An empty string
// means DefaultDeadline.
func (h *History) Deadline(s string) (time.Time, error) {
	if s == "" {
		s = DefaultDeadline
	}
	return ParseDeadline(s, h.loc)
}

func (h *History) String() string {
	return fmt.Sprintf("History(%s, %d problems)", h.Student.Username, len(h.attempts))
}
