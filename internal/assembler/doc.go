// Package assembler chooses a bounded, policy-compliant subset from an
// already rank-sorted result list.
//
// Three strategies are supported:
//
//   - best-match: the first N results (default 5), overlap ignored.
//   - diverse-ensemble: greedy scan in rank order keeping at most one
//     result per specialization, up to N (default 8).
//   - specialist-stack: seed with the top result, then accept a later
//     result only when its average compatibility with the selected set
//     exceeds a fixed threshold (default 0.7), up to N (default 6). A
//     lower-ranked but more compatible candidate can therefore make the
//     stack while a higher-ranked incompatible one does not.
//
// Compatibility between two modules is the Jaccard overlap of their
// compatibility tags plus a fixed bonus for a shared specialization,
// clamped to [0, 1].
//
// An unrecognized strategy identifier fails with
// types.ErrInvalidStrategy. There is no fallback selection.
//
//	sel := assembler.New(assembler.Config{})
//	team, err := sel.Assemble(ranked, assembler.StrategyDiverseEnsemble, "triage-team")
package assembler
