// Package pipeline orchestrates the staged transformation from
// vulnerability records to an ordered, compliance-annotated deployment
// plan.
//
// The stages run strictly in sequence — validate, resolve signals, score,
// build the dependency graph, schedule, annotate, assemble — and each
// consumes the complete output of the previous one. Scoring may fan out
// across goroutines since records carry no ordering dependency at that
// stage; the scheduler is inherently sequential and runs single-threaded.
//
// The pipeline is a pure function of its Input: identical inputs yield an
// identical plan (the plan ID and timestamp are injectable for tests), and
// a failed run leaves nothing behind, so re-running is always safe.
package pipeline
