package timer

import (
	"fmt"
	"strings"
	"time"
)

// MarkPoint a named stage and how long it took since the previous mark
type MarkPoint struct {
	tag   string
	delta time.Duration
}

// XTimer records the stages of a single request
type XTimer struct {
	bornTime   time.Time
	latestTime time.Time
	points     []*MarkPoint
}

func NewXTimer() *XTimer {
	now := time.Now()
	return &XTimer{
		bornTime:   now,
		latestTime: now,
	}
}

// Mark closes the current stage under tag
func (timer *XTimer) Mark(tag string) {
	now := time.Now()
	timer.points = append(timer.points, &MarkPoint{
		tag:   tag,
		delta: now.Sub(timer.latestTime),
	})
	timer.latestTime = now
}

// Elapsed time since the timer was created
func (timer *XTimer) Elapsed() time.Duration {
	return time.Since(timer.bornTime)
}

// Print all marked stages and the total, e.g. "decode:0.01ms,handle:1.20ms,total:1.25ms"
func (timer *XTimer) Print() string {
	msg := make([]string, 0, len(timer.points)+1)
	for _, point := range timer.points {
		msg = append(msg, fmt.Sprintf("%s:%.2fms", point.tag, toMs(point.delta)))
	}
	msg = append(msg, fmt.Sprintf("total:%.2fms", toMs(timer.Elapsed())))
	return strings.Join(msg, ",")
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
