package harness

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot captures everything a scenario resolved, for golden comparison.
type Snapshot struct {
	Scenario string            `json:"scenario"`
	Students []StudentSnapshot `json:"students"`
}

// StudentSnapshot is one student's pass. Goals are sorted by id.
type StudentSnapshot struct {
	Username string         `json:"username"`
	Total    float64        `json:"total"`
	Goals    []GoalSnapshot `json:"goals"`
	Order    []int          `json:"order"`
	Outcomes []string       `json:"outcomes"`
}

// GoalSnapshot is a goal and its points.
type GoalSnapshot struct {
	ID     string  `json:"id"`
	Points float64 `json:"points"`
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(name string, result *Result) Snapshot {
	snap := Snapshot{Scenario: name, Students: []StudentSnapshot{}}
	for _, rep := range result.Reports {
		res := rep.Result
		ss := StudentSnapshot{
			Username: rep.Username,
			Total:    res.Total(),
			Goals:    make([]GoalSnapshot, 0, len(res.Goals)),
			Order:    res.Order,
			Outcomes: make([]string, len(res.Outcomes)),
		}
		if ss.Order == nil {
			ss.Order = []int{}
		}
		for _, g := range res.Goals {
			ss.Goals = append(ss.Goals, GoalSnapshot{ID: g.ID, Points: g.Points})
		}
		slices.SortFunc(ss.Goals, func(a, b GoalSnapshot) int { return strings.Compare(a.ID, b.ID) })
		for i, o := range res.Outcomes {
			ss.Outcomes[i] = string(o.Status)
		}
		snap.Students = append(snap.Students, ss)
	}
	return snap
}

// MarshalSnapshot renders the snapshot exactly as golden files store it.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	data, err := json.MarshalIndent(NewSnapshot(name, result), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
