// internal/reporting/summary.go
package reporting

import (
	"time"

	"github.com/xkilldash9x/dpbot/internal/batch"
)

// RunSummary is the report envelope for one finished run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Totals Totals `json:"totals"`
	Rates  Rates  `json:"rates"`
	Items  []Item `json:"items"`
}

// Totals carries the run's aggregate buckets. They always sum to Total.
type Totals struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	Remaining  int `json:"remaining,omitempty"`
}

// Rates are omitted when undefined: the success percentage needs at least
// one non-skipped item, throughput a non-zero duration.
type Rates struct {
	SuccessPercent   *float64 `json:"success_percent,omitempty"`
	TicketsPerMinute *float64 `json:"tickets_per_minute,omitempty"`
}

// Item is one work-list entry's disposition.
type Item struct {
	Code     string `json:"code"`
	Outcome  string `json:"outcome"`
	Attempts int    `json:"attempts,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Duration is the run's wall-clock span.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Summarize converts a finished batch run into the report envelope.
func Summarize(runID string, res batch.Result) *RunSummary {
	s := &RunSummary{
		RunID:      runID,
		StartedAt:  res.Stats.StartedAt,
		FinishedAt: res.Stats.FinishedAt,
		Totals: Totals{
			Total:      res.Stats.Total,
			Successful: res.Stats.Successful,
			Failed:     res.Stats.Failed,
			Skipped:    res.Stats.Skipped,
			Remaining:  res.Stats.Remaining,
		},
		Items: make([]Item, 0, len(res.Items)),
	}
	if pct, ok := res.Stats.SuccessRate(); ok {
		s.Rates.SuccessPercent = &pct
	}
	if perMinute, ok := res.Stats.Throughput(); ok {
		s.Rates.TicketsPerMinute = &perMinute
	}
	for _, item := range res.Items {
		s.Items = append(s.Items, Item{
			Code:     item.Code,
			Outcome:  item.Outcome,
			Attempts: item.Attempts,
			Reason:   item.Reason,
		})
	}
	return s
}
