// Package loser implements a tournament tree (also known as a loser tree) for efficiently
// merging multiple sorted sequences. This implementation is based on the work by Bryan
// Boreham (https://github.com/bboreham/go-loser).
//
// A loser tree is a binary tree structure where each internal node holds the "loser" of
// a comparison between its children, and the root holds the overall "winner". This makes
// it particularly efficient for merging multiple sorted sequences, as it requires fewer
// comparisons than a standard merge algorithm.
//
// Sequences are supplied as pull-style cursors, so a sequence backed by a file
// can be read one record at a time and its read errors inspected once the
// merge is done. A cursor that returns false is exhausted and loses every
// later game; no sentinel maximum value is needed.
//
// Basic usage:
//
//	tree := loser.New(
//	    []loser.Cursor[int]{cur1, cur2, cur3},
//	    func(a, b int) bool { return a < b },
//	)
//
//	for v := range tree.All() {
//	    fmt.Println(v)
//	}
//
// Implementation Details:
// The loser tree is implemented as a binary tree laid out in an array where:
//   - For node N, its children are at positions 2N and 2N+1
//   - Leaf nodes are stored in positions M to 2M-1 (where M is the number of cursors)
//   - Internal nodes are stored in positions 1 to M-1
//   - Node 0 is special, containing the current winner
//
// Ties are won by the right-hand competitor; callers that need a stable
// order among equal keys fold a tie-breaker into less.
package loser
