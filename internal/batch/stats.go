// internal/batch/stats.go
package batch

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Stats aggregates one run. Successful, Failed, Skipped and Remaining
// always sum to Total; Remaining is zero on a run that reached every item.
type Stats struct {
	Total      int
	Successful int
	Failed     int
	Skipped    int
	Remaining  int

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall-clock span of the processing loop.
func (s Stats) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// SuccessRate is the percentage of successes over the items that were not
// skipped. ok is false when every item was skipped.
func (s Stats) SuccessRate() (pct float64, ok bool) {
	n := s.Total - s.Skipped
	if n <= 0 {
		return 0, false
	}
	return float64(s.Successful) / float64(n) * 100, true
}

// Throughput is created tickets per minute of run time. ok is false for a
// zero-length run.
func (s Stats) Throughput() (perMinute float64, ok bool) {
	d := s.Duration()
	if d <= 0 {
		return 0, false
	}
	return float64(s.Successful) / d.Minutes(), true
}

func (r *Runner) logSummary(s Stats) {
	fields := []zap.Field{
		zap.Duration("duration", s.Duration()),
		zap.Int("total", s.Total),
		zap.Int("successful", s.Successful),
		zap.Int("failed", s.Failed),
		zap.Int("skipped", s.Skipped),
	}
	if s.Remaining > 0 {
		fields = append(fields, zap.Int("remaining", s.Remaining))
	}
	if pct, ok := s.SuccessRate(); ok {
		fields = append(fields, zap.String("success_rate", fmt.Sprintf("%.1f%%", pct)))
	}
	if perMinute, ok := s.Throughput(); ok {
		fields = append(fields, zap.String("speed", fmt.Sprintf("%.1f tickets/minute", perMinute)))
	}
	r.log.Info("Automation complete.", fields...)
}
