package kattis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
)

// Export is the judge export consumed by the resolver.
type Export struct {
	Students []Student `json:"students"`
	Sessions []Session `json:"sessions"`
}

// Student is one course participant and their submissions.
type Student struct {
	Username    string       `json:"username"`
	Name        string       `json:"name"`
	Email       string       `json:"email,omitempty"`
	Submissions []Submission `json:"submissions"`
}

// Submission is one judged attempt.
// Time is "2006-01-02 15:04:05", or "15:04:05" for submissions made today.
type Submission struct {
	Time      string `json:"time"`
	Judgement string `json:"judgement"`
	Problem   string `json:"problem"`
}

// Accepted reports whether the judgement is an accepted one.
func (s Submission) Accepted() bool {
	return strings.Contains(strings.ToLower(s.Judgement), "accepted")
}

// Session is a problem session and the results of every team in it.
type Session struct {
	Name    string       `json:"name"`
	Results []TeamResult `json:"results"`
}

// TeamResult is the number of problems a team solved in a session.
type TeamResult struct {
	Members     []string `json:"members"`
	SolvedCount int      `json:"solved_count"`
}

// ExportError reports an unreadable or malformed export.
type ExportError struct {
	Path    string
	Message string
	Err     error
}

func (e *ExportError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("export %s: %s", e.Path, e.Message)
	}
	return "export: " + e.Message
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ReadExport reads and parses an export file.
func ReadExport(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExportError{Path: path, Message: "cannot read file", Err: err}
	}
	exp, err := ParseExport(data)
	if err != nil {
		var ee *ExportError
		if errors.As(err, &ee) {
			ee.Path = path
		}
		return nil, err
	}
	return exp, nil
}

// ParseExport parses an export document.
func ParseExport(data []byte) (*Export, error) {
	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, &ExportError{Message: "invalid JSON: " + err.Error(), Err: err}
	}
	for i, st := range exp.Students {
		if st.Username == "" {
			return nil, &ExportError{Message: fmt.Sprintf("student %d has no username", i)}
		}
	}
	return &exp, nil
}

// Student returns the student with the given username.
func (e *Export) Student(username string) (Student, bool) {
	for _, st := range e.Students {
		if st.Username == username {
			return st, true
		}
	}
	return Student{}, false
}

// Filter returns the students whose name or username contains query,
// ignoring case. An empty query matches everyone.
func (e *Export) Filter(query string) []Student {
	if query == "" {
		out := make([]Student, len(e.Students))
		copy(out, e.Students)
		return out
	}

	fold := cases.Fold()
	needle := fold.String(query)
	var out []Student
	for _, st := range e.Students {
		if strings.Contains(fold.String(st.Name), needle) || strings.Contains(fold.String(st.Username), needle) {
			out = append(out, st)
		}
	}
	return out
}

// SessionCredit returns, per member, the problems their teams solved in a
// session.
func (s Session) SessionCredit() map[string]int {
	credit := make(map[string]int)
	for _, team := range s.Results {
		for _, m := range team.Members {
			credit[m] += team.SolvedCount
		}
	}
	return credit
}
