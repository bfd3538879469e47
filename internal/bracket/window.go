package bracket

// Window is the bounded history of the most recent qualifying records,
// oldest first. Pushing past capacity evicts the oldest record.
type Window struct {
	capacity int
	entries  []Record
}

// NewWindow returns an empty window holding at most capacity records.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		capacity: capacity,
		entries:  make([]Record, 0, capacity+1),
	}
}

// Push appends r and drops the head if the window is over capacity.
func (w *Window) Push(r Record) {
	w.entries = append(w.entries, r)
	if len(w.entries) > w.capacity {
		n := copy(w.entries, w.entries[1:])
		w.entries = w.entries[:n]
	}
}

// Len returns the number of buffered records.
func (w *Window) Len() int { return len(w.entries) }

// Cap returns the window capacity.
func (w *Window) Cap() int { return w.capacity }

// Entries returns a copy of the buffered records, most recent last.
func (w *Window) Entries() []Record {
	out := make([]Record, len(w.entries))
	copy(out, w.entries)
	return out
}

// Tail returns a copy of the trailing k records. It reports false when fewer
// than k records are buffered.
func (w *Window) Tail(k int) ([]Record, bool) {
	view, ok := w.tail(k)
	if !ok {
		return nil, false
	}
	out := make([]Record, k)
	copy(out, view)
	return out, true
}

// tail aliases the buffer; the slice is only valid until the next Push.
func (w *Window) tail(k int) ([]Record, bool) {
	if k <= 0 || k > len(w.entries) {
		return nil, false
	}
	return w.entries[len(w.entries)-k:], true
}
