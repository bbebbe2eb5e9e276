package payperiod

import (
	"context"

	"github.com/warp/budget-engine/budget"
)

// PeriodSummary is one period's bounds and overall sums.
type PeriodSummary struct {
	Start    budget.Date  `json:"start_date"`
	End      budget.Date  `json:"end_date"`
	IsInPast bool         `json:"is_in_past"`
	Overall  *OverallSums `json:"overall_sums"`
}

// Range returns count consecutive periods beginning with from.
func Range(from *Period, count int) []*Period {
	periods := make([]*Period, 0, count)
	p := from
	for i := 0; i < count; i++ {
		periods = append(periods, p)
		p = p.Next()
	}
	return periods
}

// Summarize computes overall sums for each period, in order.
func Summarize(ctx context.Context, periods []*Period) ([]PeriodSummary, error) {
	out := make([]PeriodSummary, 0, len(periods))
	for _, p := range periods {
		overall, err := p.OverallSums(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, PeriodSummary{
			Start:    p.Start(),
			End:      p.End(),
			IsInPast: p.IsInPast(),
			Overall:  overall,
		})
	}
	return out, nil
}

// Overview summarizes the previous, current, next and following periods
// around today.
func (c *Calendar) Overview(ctx context.Context) ([]PeriodSummary, error) {
	return Summarize(ctx, Range(c.Current().Previous(), 4))
}
