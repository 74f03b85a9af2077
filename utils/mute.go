package utils

import (
	"sync"
	"time"
)

// BatchMute lets at most max events through per interval. Events beyond
// that are muted and reported once the next interval opens.
type BatchMute struct {
	lock      sync.Mutex
	batchTime time.Time
	interval  time.Duration
	max       int
	ctr       int
	muted     int
}

func (b *BatchMute) allow(t time.Time) (ok bool, skipped int) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.max <= 0 || b.interval <= 0 {
		return true, 0
	}
	if t.Sub(b.batchTime) > b.interval {
		skipped = b.muted
		b.batchTime = t
		b.ctr, b.muted = 0, 0
	}
	b.ctr++
	if b.ctr > b.max {
		b.muted++
		return false, skipped
	}
	return true, skipped
}

// Allow records an event. It reports whether the event may be logged and how
// many events were muted during the previous interval.
func (b *BatchMute) Allow() (ok bool, skipped int) {
	return b.allow(time.Now().UTC())
}

// NewBatchMute creates a BatchMute; a zero interval or max disables muting.
func NewBatchMute(interval time.Duration, max int) *BatchMute {
	return &BatchMute{
		batchTime: time.Now().UTC(),
		interval:  interval,
		max:       max,
	}
}
