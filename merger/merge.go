package merger

import (
	"github.com/davidvella/xsort/loser"
	"github.com/davidvella/xsort/priority"
	"github.com/davidvella/xsort/run"
)

// head is the current record of one input run.
type head struct {
	value  int64
	source int
}

// lessHead orders by value, then by source position, so equal records leave
// in input order.
func lessHead(a, b head) bool {
	if a.value != b.value {
		return a.value < b.value
	}
	return a.source < b.source
}

func mergeHeap(readers []*run.Reader, w *run.Writer) error {
	pq := priority.NewQueue(lessHead, len(readers))
	for i, r := range readers {
		if v, ok := r.Next(); ok {
			pq.Push(head{value: v, source: i})
		}
	}

	for {
		h, ok := pq.Pop()
		if !ok {
			return nil
		}
		if err := w.Append(h.value); err != nil {
			return err
		}
		if v, ok := readers[h.source].Next(); ok {
			pq.Push(head{value: v, source: h.source})
		}
	}
}

func mergeTournament(readers []*run.Reader, w *run.Writer) error {
	cursors := make([]loser.Cursor[head], len(readers))
	for i, r := range readers {
		cursors[i] = loser.CursorFunc[head](func() (head, bool) {
			v, ok := r.Next()
			return head{value: v, source: i}, ok
		})
	}

	tree := loser.New(cursors, lessHead)
	for h, ok := tree.Next(); ok; h, ok = tree.Next() {
		if err := w.Append(h.value); err != nil {
			return err
		}
	}
	return nil
}
