package dashboard

import "sync"

// DefaultHistorySize is the number of samples kept per machine.
const DefaultHistorySize = 60

// History keeps the recent working percentages of each machine for the
// detail sparkline. It lives only as long as the dashboard session.
type History struct {
	mu       sync.RWMutex
	size     int
	machines map[string]*ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
}

// NewHistory creates a history keeping size samples per machine.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:     size,
		machines: make(map[string]*ringBuffer),
	}
}

// Push records a sample for machineID.
func (h *History) Push(machineID string, workingPercent float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rb, ok := h.machines[machineID]
	if !ok {
		rb = &ringBuffer{data: make([]float64, h.size)}
		h.machines[machineID] = rb
	}
	rb.push(workingPercent)
}

// Get returns up to count of the most recent samples, oldest first.
func (h *History) Get(machineID string, count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rb, ok := h.machines[machineID]
	if !ok {
		return nil
	}
	return rb.last(count)
}

// Forget drops a machine's samples, e.g. after it is removed.
func (h *History) Forget(machineID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.machines, machineID)
}

// Retain forgets every machine not in ids.
func (h *History) Retain(ids []string) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	h.mu.RLock()
	var stale []string
	for id := range h.machines {
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range stale {
		h.Forget(id)
	}
}

func (rb *ringBuffer) push(v float64) {
	rb.data[rb.head] = v
	rb.head = (rb.head + 1) % len(rb.data)
	if rb.count < len(rb.data) {
		rb.count++
	}
}

func (rb *ringBuffer) last(count int) []float64 {
	if count <= 0 || rb.count == 0 {
		return nil
	}
	if count > rb.count {
		count = rb.count
	}

	out := make([]float64, count)
	start := (rb.head - count + len(rb.data)) % len(rb.data)
	for i := 0; i < count; i++ {
		out[i] = rb.data[(start+i)%len(rb.data)]
	}
	return out
}
