// Package builder partitions an unbounded stream of records into sorted runs
// while holding at most fanIn records in memory.
//
// Two strategies are provided. Replacement keeps a min-heap of fanIn records
// and keeps extending the current run for as long as the smallest buffered
// record is not smaller than the run's last record. Records that arrive too
// small for the current run wait in a side buffer and seed the next one. On
// uniformly random input this yields runs of about 2*fanIn records, and
// already sorted input becomes a single run.
//
// Chunked is the baseline: it sorts consecutive blocks of fanIn records and
// always produces ceil(N/fanIn) runs.
//
// Both write through a Creator, typically a *run.Manager, and report the
// runs they closed in a Result.
package builder
