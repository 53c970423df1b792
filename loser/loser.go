// Package loser is adapted from the tournament tree in
// https://github.com/bboreham/go-loser/blob/iter/tree.go.
// Thank you Bryan
package loser

import (
	"iter"
)

// Cursor yields the elements of one sorted sequence, one call at a time.
type Cursor[E any] interface {
	Next() (E, bool)
}

// CursorFunc adapts a function to a Cursor.
type CursorFunc[E any] func() (E, bool)

func (f CursorFunc[E]) Next() (E, bool) { return f() }

func New[E any](cursors []Cursor[E], less func(E, E) bool) *Tree[E] {
	return &Tree[E]{
		nodes:   make([]node[E], len(cursors)*2),
		cursors: cursors,
		less:    less,
	}
}

// A loser tree is a binary tree laid out such that nodes N and N+1 have parent N/2.
// We store M leaf nodes in positions M...2M-1, and M-1 internal nodes in positions 1..M-1.
// Node 0 is a special node, containing the winner of the contest.
type Tree[E any] struct {
	nodes   []node[E]
	cursors []Cursor[E]
	less    func(E, E) bool
	started bool
}

type node[E any] struct {
	index     int  // This is the loser for internal nodes, and the winner for the 0th.
	value     E    // Only meaningful for leaf nodes.
	exhausted bool // Only meaningful for leaf nodes.
}

// Next returns the smallest remaining element across all cursors.
func (t *Tree[E]) Next() (E, bool) {
	var zero E
	if len(t.nodes) == 0 {
		return zero, false
	}

	if !t.started {
		t.started = true
		for i := range t.cursors {
			t.moveNext(i + len(t.cursors))
		}
		t.nodes[0].index = t.playGame(1)
	} else {
		winner := t.nodes[0].index
		t.moveNext(winner)
		t.replayGames(winner)
	}

	w := &t.nodes[t.nodes[0].index]
	if w.exhausted {
		return zero, false
	}
	return w.value, true
}

// All returns an iterator over the merged elements.
func (t *Tree[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for {
			v, ok := t.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

func (t *Tree[E]) moveNext(pos int) {
	n := &t.nodes[pos]
	if n.exhausted {
		return
	}
	if v, ok := t.cursors[pos-len(t.cursors)].Next(); ok {
		n.value = v
		return
	}
	var zero E
	n.value = zero
	n.exhausted = true
}

// beats reports whether leaf a wins against leaf b. Exhausted leaves lose to
// everything.
func (t *Tree[E]) beats(a, b int) bool {
	la, lb := &t.nodes[a], &t.nodes[b]
	if la.exhausted {
		return false
	}
	if lb.exhausted {
		return true
	}
	return t.less(la.value, lb.value)
}

// Find the winner at position pos; if it is a non-leaf node, store the loser.
// pos must be >= 1 and < len(t.nodes).
func (t *Tree[E]) playGame(pos int) int {
	if pos >= len(t.nodes)/2 {
		return pos
	}
	left := t.playGame(pos * 2)
	right := t.playGame(pos*2 + 1)
	if t.beats(left, right) {
		t.nodes[pos].index = right
		return left
	}
	t.nodes[pos].index = left
	return right
}

// Starting at pos, which is a winner, re-consider all games up to the root.
func (t *Tree[E]) replayGames(pos int) {
	for n := parent(pos); n != 0; n = parent(n) {
		node := &t.nodes[n]
		if t.beats(node.index, pos) {
			// Record pos as the loser here, and the old loser is the new winner.
			node.index, pos = pos, node.index
		}
	}
	t.nodes[0].index = pos
}

func parent(i int) int { return i >> 1 }
