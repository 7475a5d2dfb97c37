// Package engine resolves a ruleset into a ledger of goals.
//
// A resolution pass:
//
//  1. Builds the get dependency graph of the ruleset (package graph).
//  2. Schedules rules with Kahn's algorithm, FIFO, declaration order first.
//  3. For each scheduled rule evaluates needs as a bool. When true, it
//     evaluates points as a number and adds them to the goal named by
//     towards. When false, the rule is filed as non-resolved.
//  4. Returns the Result.
//
// Evaluation faults never abort a pass. A fault in needs files the rule as
// non-resolved, a fault in points resolves it with 0 points, and both are
// recorded in Result.Faults. Rules that never become schedulable are not
// evaluated; they are listed in Result.Omitted along with any cycles.
//
// Resolve is single-threaded and deterministic. The Context passed in is
// attached to the Result for the duration of the pass and detached after.
package engine
