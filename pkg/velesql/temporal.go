package velesql

import (
	"fmt"
	"time"
)

// secondsPerUnit maps an INTERVAL unit name (already singularized and
// lowercased by the parser) to its length in seconds. Month and year
// are calendar-approximate (30 and 365 days) since VelesQL intervals
// are arithmetic offsets, not calendar-aware date math.
var secondsPerUnit = map[string]float64{
	"second": 1,
	"minute": 60,
	"hour":   3600,
	"day":    86400,
	"week":   86400 * 7,
	"month":  86400 * 30,
	"year":   86400 * 365,
}

// EvalInterval converts an IntervalExpr to a signed second count.
func EvalInterval(e IntervalExpr) (float64, error) {
	perUnit, ok := secondsPerUnit[e.Unit]
	if !ok {
		return 0, fmt.Errorf("unknown interval unit %q", e.Unit)
	}
	return e.Amount * perUnit, nil
}

// Clock abstracts the current-time source NowExpr evaluates against,
// so executors can inject a fixed time in tests instead of depending
// on the wall clock.
type Clock func() time.Time

// SystemClock is the default Clock, backed by time.Now.
func SystemClock() time.Time { return time.Now() }

// EvalNow returns the epoch-second timestamp a NowExpr evaluates to.
func EvalNow(clock Clock) int64 {
	if clock == nil {
		clock = SystemClock
	}
	return clock().Unix()
}
