// Package priority implements a generic binary-heap priority queue. Both run
// formation and run merging keep their working set in a Queue: the record
// values waiting to be written to the current run, or the head record of
// every run being merged.
//
// The ordering is determined by a user-provided comparison function. The less
// function should return true if a has higher priority than b, so a queue
// built with a < b pops its smallest element first.
//
// Key features:
//   - Generic implementation supporting any element type
//   - O(log n) push and pop
//   - O(1) peek
//   - Duplicate elements are kept; ties are popped in no particular order
//
// The capacity passed to NewQueue is only an allocation hint. Callers that
// need a bounded working set enforce the bound themselves, which lets a
// caller push one element past the bound before popping one back out.
//
// Basic usage:
//
//	pq := priority.NewQueue(func(a, b int64) bool {
//	    return a < b
//	}, 4)
//
//	pq.Push(5)
//	pq.Push(3)
//	pq.Push(7)
//
//	if v, ok := pq.Peek(); ok {
//	    fmt.Printf("Smallest: %d\n", v)
//	}
//
//	for pq.Len() > 0 {
//	    v, _ := pq.Pop()
//	    fmt.Println(v)
//	}
package priority
