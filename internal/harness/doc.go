// Package harness runs resolution scenarios against real rule files and
// judge exports.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: labs_deadline
//	description: "Late labs give half credit"
//	rules: rules/labs.yaml          # relative to the scenario file
//	export: exports/course.json     # relative to the scenario file
//	now: "2017-03-01 12:00:00"      # clock for today-only submission times
//	filter: anna                    # optional student filter
//	record: true                    # write every pass to an in-memory ledger
//	assertions:
//	  - type: goal_points
//	    student: anna
//	    goal: labs
//	    points: 2.5
//	  - type: status
//	    student: anna
//	    rule: 3
//	    status: omitted
//
// # Assertion Types
//
//   - total: the student's total equals points
//   - goal_points: a goal holds exactly points
//   - status: the outcome of one rule index
//   - omitted: the omitted rule indices, in order
//   - faults: the number of faulted rules
//   - cycle: a dependency cycle with exactly the given rule indices exists
//   - ledger: the number of recorded passes for the student (needs record)
//
// # Deterministic Testing
//
// Every scenario runs with a fixed clock, UTC, fixed pass ids and a fresh
// in-memory SQLite ledger, so snapshots are stable across runs and
// machines. RunWithGolden compares a snapshot of every student's goals and
// rule outcomes against testdata/golden/{name}.golden.
package harness
