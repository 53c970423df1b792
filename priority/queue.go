package priority

// Queue implements a min-priority queue using a binary heap.
type Queue[E any] struct {
	items []E
	lessF func(a, b E) bool // returns true if a has higher priority than b
}

// NewQueue creates a new priority queue with the given comparator. capacity
// only sizes the backing array; the queue grows past it when pushed to.
func NewQueue[E any](less func(a, b E) bool, capacity int) *Queue[E] {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue[E]{
		items: make([]E, 0, capacity),
		lessF: less,
	}
}

// Len returns the number of items in the queue.
func (pq *Queue[E]) Len() int {
	return len(pq.items)
}

// Push adds an item to the queue.
func (pq *Queue[E]) Push(e E) {
	pq.items = append(pq.items, e)
	pq.up(len(pq.items) - 1)
}

// Pop removes and returns the highest priority item.
func (pq *Queue[E]) Pop() (E, bool) {
	if len(pq.items) == 0 {
		var zero E
		return zero, false
	}

	top := pq.items[0]
	lastIdx := len(pq.items) - 1
	pq.swap(0, lastIdx)

	var zero E
	pq.items[lastIdx] = zero
	pq.items = pq.items[:lastIdx]
	pq.down(0)

	return top, true
}

// Peek returns the highest priority item without removing it.
func (pq *Queue[E]) Peek() (E, bool) {
	if len(pq.items) == 0 {
		var zero E
		return zero, false
	}
	return pq.items[0], true
}

func (pq *Queue[E]) swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

func (pq *Queue[E]) less(i, j int) bool {
	return pq.lessF(pq.items[i], pq.items[j])
}

// up moves the element at index i up to its proper position.
func (pq *Queue[E]) up(i int) {
	for {
		parent := (i - 1) / 2
		if parent == i || !pq.less(i, parent) {
			break
		}
		pq.swap(i, parent)
		i = parent
	}
}

// down moves the element at index i down to its proper position.
func (pq *Queue[E]) down(i int) {
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2

		if left < len(pq.items) && pq.less(left, smallest) {
			smallest = left
		}
		if right < len(pq.items) && pq.less(right, smallest) {
			smallest = right
		}

		if smallest == i {
			break
		}

		pq.swap(i, smallest)
		i = smallest
	}
}
