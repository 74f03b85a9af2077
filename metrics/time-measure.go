package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type TimeMeasure struct {
	now time.Time
}

func TimeMeasureNow() TimeMeasure {
	return TimeMeasure{now: time.Now()}
}

func (t TimeMeasure) Since() time.Duration {
	return time.Since(t.now)
}

// MeasureRun stores the time elapsed since t in RunDuration for engine.
func (t TimeMeasure) MeasureRun(engine string) time.Duration {
	elapsed := t.Since()
	RunDuration.With(prometheus.Labels{"engine": engine}).Set(float64(elapsed.Milliseconds()))
	return elapsed
}
