package scheduler

import "time"

// Timer keeps the durations of the last N batches in a ring buffer. Once the window is
// full each new sample evicts the oldest.
type Timer struct {
	samples []time.Duration
	next    int
	count   int
	sum     time.Duration
}

func NewTimer(window int) *Timer {
	if window < 1 {
		window = 1
	}
	return &Timer{samples: make([]time.Duration, window)}
}

func (t *Timer) Record(d time.Duration) {
	if t.count == len(t.samples) {
		t.sum -= t.samples[t.next]
	} else {
		t.count++
	}
	t.samples[t.next] = d
	t.sum += d
	t.next = (t.next + 1) % len(t.samples)
}

// Len is the number of samples currently in the window.
func (t *Timer) Len() int {
	return t.count
}

// Window is the maximum number of samples kept.
func (t *Timer) Window() int {
	return len(t.samples)
}

// Average is the rolling mean over the window, zero before the first sample.
func (t *Timer) Average() time.Duration {
	if t.count == 0 {
		return 0
	}
	return t.sum / time.Duration(t.count)
}

// Samples returns the window oldest first.
func (t *Timer) Samples() []time.Duration {
	out := make([]time.Duration, 0, t.count)
	start := t.next - t.count
	if start < 0 {
		start += len(t.samples)
	}
	for i := 0; i < t.count; i++ {
		out = append(out, t.samples[(start+i)%len(t.samples)])
	}
	return out
}
