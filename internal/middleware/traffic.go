package middleware

import (
	"sync"
	"time"
)

type TrafficWindow struct {
	Requests int64   `json:"requests"`
	Bytes    int64   `json:"bytes"`
	Bps      float64 `json:"bps"`
}

type TrafficSnapshot struct {
	M1  TrafficWindow `json:"1m"`
	H1  TrafficWindow `json:"1h"`
	H24 TrafficWindow `json:"24h"`
	D7  TrafficWindow `json:"7d"`
}

// TrafficStats is a week-long ring of per-minute counters. A bucket is
// valid only when its mark equals the minute it was written for, so
// stale slots from previous weeks read as zero.
type TrafficStats struct {
	mu       sync.Mutex
	bytes    []int64
	requests []int64
	marks    []int64
	size     int64
}

func NewTrafficStats() *TrafficStats {
	const minutesInWeek = 7 * 24 * 60
	return &TrafficStats{
		bytes:    make([]int64, minutesInWeek),
		requests: make([]int64, minutesInWeek),
		marks:    make([]int64, minutesInWeek),
		size:     minutesInWeek,
	}
}

func (t *TrafficStats) Add(bytes int, now time.Time) {
	minute := now.Unix() / 60
	idx := minute % t.size

	t.mu.Lock()
	if t.marks[idx] != minute {
		t.marks[idx] = minute
		t.bytes[idx] = 0
		t.requests[idx] = 0
	}
	t.bytes[idx] += int64(bytes)
	t.requests[idx]++
	t.mu.Unlock()
}

func (t *TrafficStats) Snapshot(now time.Time) TrafficSnapshot {
	current := now.Unix() / 60

	window := func(minutes int64) TrafficWindow {
		var w TrafficWindow
		for i := int64(0); i < minutes; i++ {
			minute := current - i
			idx := minute % t.size
			if t.marks[idx] == minute {
				w.Bytes += t.bytes[idx]
				w.Requests += t.requests[idx]
			}
		}
		if seconds := float64(minutes * 60); seconds > 0 {
			w.Bps = float64(w.Bytes) / seconds
		}
		return w
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return TrafficSnapshot{
		M1:  window(1),
		H1:  window(60),
		H24: window(24 * 60),
		D7:  window(7 * 24 * 60),
	}
}
