package budget_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/budget-engine/budget"
)

func TestMonthlyDayInRange(t *testing.T) {
	tests := []struct {
		name            string
		day, start, end int
		want            bool
	}{
		{"within one month, inside", 14, 1, 14, true},
		{"within one month, first day", 1, 1, 14, true},
		{"within one month, after", 15, 1, 14, false},
		{"crossing months, late day", 25, 21, 3, true},
		{"crossing months, early day", 2, 21, 3, true},
		{"crossing months, end day", 3, 21, 3, true},
		{"crossing months, gap", 10, 21, 3, false},
		{"crossing months, day 31", 31, 21, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, budget.MonthlyDayInRange(tt.day, tt.start, tt.end))
		})
	}
}

func TestMonthlyDate(t *testing.T) {
	tests := []struct {
		name       string
		day        int
		start, end string
		want       string
	}{
		{"same month", 10, "2017-07-01", "2017-07-14", "2017-07-10"},
		{"late day in start month", 30, "2017-07-28", "2017-08-10", "2017-07-30"},
		{"early day rolls into next month", 5, "2017-07-28", "2017-08-10", "2017-08-05"},
		{"rolls over the year", 2, "2017-12-22", "2018-01-04", "2018-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := budget.MonthlyDate(tt.day, budget.MustParseDate(tt.start), budget.MustParseDate(tt.end))
			assert.Equal(t, tt.want, got.String())
		})
	}
}
