package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultNow is the scenario clock when none is given.
const DefaultNow = "2017-06-01 12:00:00"

// Scenario defines one resolution scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Rules is the root rule file. Includes resolve relative to it.
	Rules string `yaml:"rules"`

	// Export is the judge export to resolve.
	Export string `yaml:"export"`

	// Now fixes the clock, "2006-01-02 15:04:05" in UTC.
	Now string `yaml:"now,omitempty"`

	// Filter limits the students resolved, like the CLI's --filter.
	Filter string `yaml:"filter,omitempty"`

	// Record writes every pass to the scenario ledger.
	Record bool `yaml:"record,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one fact about a student's pass. Which fields are used
// depends on Type.
type Assertion struct {
	Type    string   `yaml:"type"`
	Student string   `yaml:"student"`
	Goal    string   `yaml:"goal,omitempty"`
	Points  *float64 `yaml:"points,omitempty"`
	Rule    *int     `yaml:"rule,omitempty"`
	Status  string   `yaml:"status,omitempty"`
	Rules   []int    `yaml:"rules,omitempty"`
	Count   *int     `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTotal      = "total"
	AssertGoalPoints = "goal_points"
	AssertStatus     = "status"
	AssertOmitted    = "omitted"
	AssertFaults     = "faults"
	AssertCycle      = "cycle"
	AssertLedger     = "ledger"
)

// LoadScenario reads and parses a scenario YAML file. Rules and Export are
// resolved relative to the scenario's directory. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&scenario.Rules, &scenario.Export} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Clock returns the fixed scenario time.
func (s *Scenario) Clock() (time.Time, error) {
	now := s.Now
	if now == "" {
		now = DefaultNow
	}
	t, err := time.ParseInLocation(time.DateTime, now, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("now: %w", err)
	}
	return t, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Rules == "" {
		return fmt.Errorf("rules is required")
	}
	if s.Export == "" {
		return fmt.Errorf("export is required")
	}
	for _, p := range []string{s.Rules, s.Export} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}
	if _, err := s.Clock(); err != nil {
		return err
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], s.Record); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion, record bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Student == "" {
		return fmt.Errorf("assertions[%d]: student is required", index)
	}

	switch a.Type {
	case AssertTotal:
		if a.Points == nil {
			return fmt.Errorf("assertions[%d]: points is required for total", index)
		}
	case AssertGoalPoints:
		if a.Goal == "" || a.Points == nil {
			return fmt.Errorf("assertions[%d]: goal and points are required for goal_points", index)
		}
	case AssertStatus:
		if a.Rule == nil || a.Status == "" {
			return fmt.Errorf("assertions[%d]: rule and status are required for status", index)
		}
	case AssertOmitted:
		// an empty rules list asserts nothing was omitted
	case AssertFaults:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for faults", index)
		}
	case AssertCycle:
		if len(a.Rules) < 2 {
			return fmt.Errorf("assertions[%d]: cycle needs at least two rules", index)
		}
	case AssertLedger:
		if !record {
			return fmt.Errorf("assertions[%d]: ledger requires record: true", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for ledger", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
