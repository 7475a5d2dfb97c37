// Package graph derives the evaluation order of a ruleset.
//
// A rule depends on every rule whose towards goal it reads through a get
// node in its needs or points expression. Schedule runs Kahn's algorithm
// over that relation with a FIFO queue seeded in declaration order, so
// unrelated rules keep their original order. Rules that never become
// schedulable are reported as omitted, and Cycles explains why.
package graph
