// Package eval interprets expression trees through an ordered registry of
// handlers.
//
// A handler pairs a predicate, which decides whether it applies to a tree,
// with an evaluator that computes the tree's value. Evaluation walks the
// registry in priority order and uses the first handler that accepts the
// tree:
//
//	plugins (most recently added first)
//	get
//	+ - * /
//	MAX MIN COUNT
//	AND OR
//	positive negative zero
//	< <= = != >= >
//	bool and number literals
//
// Operator names are disjoint, so for well-formed trees exactly one handler
// applies. A tree no handler accepts fails with *NoHandlerError.
//
// The Context also carries a read-only view of the goal ledger of the pass in
// progress, which is how {"get": "goal"} observes points accumulated by rules
// that were resolved earlier.
package eval
