// Package xsort sorts sequences of 64-bit integers that do not fit in memory.
//
// A sort runs in two phases. Run formation reads the input once and writes
// sorted runs using a working set of fanIn records, by replacement selection
// unless configured otherwise. The merge phase then combines runs fanIn at a
// time until a single run remains, which is copied to the output. Runs live
// on a run.Storage: temporary files by default, or a Pebble database or
// process memory via WithStorage.
//
// Input is whitespace separated base-10 integers; output is one integer per
// line. The statistics of each sort are returned as a Stats value.
package xsort
