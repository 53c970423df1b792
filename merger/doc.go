// Package merger reduces a set of sorted runs to a single sorted run by
// repeated p-way merge passes.
//
// Each pass splits the current runs into consecutive groups of at most fanIn
// runs and merges every group into one new run, so R runs need
// ceil(log_fanIn R) passes. At most fanIn runs are open for reading at any
// time, plus the one being written. Ties are broken by the position of the
// run within its group, which keeps the output deterministic.
//
// The smallest head of a group is found either with a binary heap or with a
// loser tree; both produce identical output.
package merger
