package payperiod

import (
	"sort"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// LEDGER MERGER
// =============================================================================

// mergeLedger combines one period's record sets into a single ordered ledger.
//
// Scheduled transactions already fulfilled by an actual transaction in the
// period are dropped (date/monthly) or emitted fewer times (per-period).
// Ordering is two-phase and relies on stable sorting:
//
//  1. actual + unfulfilled date/monthly records, stable-sorted by date
//  2. per-period copies prepended, then the whole ledger stable-sorted by
//     (date, amount) with undated records at MinDate
//
// Ties on (date, amount) therefore keep per-period entries first, then the
// phase-one order.
func mergeLedger(start, end budget.Date, actual []budget.Transaction, dated, perPeriod, monthly []budget.ScheduledTransaction) []Record {
	fulfilled := make(map[int64]int)
	for _, t := range actual {
		if t.ScheduledID != nil {
			fulfilled[*t.ScheduledID]++
		}
	}

	unordered := make([]Record, 0, len(actual)+len(dated)+len(monthly))
	for _, t := range actual {
		unordered = append(unordered, normalizeActual(t))
	}
	for _, s := range dated {
		if _, done := fulfilled[s.ID]; !done {
			unordered = append(unordered, normalizeScheduled(s, start, end))
		}
	}
	for _, s := range monthly {
		if _, done := fulfilled[s.ID]; !done {
			unordered = append(unordered, normalizeScheduled(s, start, end))
		}
	}
	sort.SliceStable(unordered, func(i, j int) bool {
		return sortDate(unordered[i]).Before(sortDate(unordered[j]))
	})

	ledger := make([]Record, 0, len(unordered)+len(perPeriod))
	for _, s := range perPeriod {
		for n := s.NumPerPeriod - fulfilled[s.ID]; n > 0; n-- {
			ledger = append(ledger, normalizeScheduled(s, start, end))
		}
	}
	ledger = append(ledger, unordered...)

	sort.SliceStable(ledger, func(i, j int) bool {
		di, dj := sortDate(ledger[i]), sortDate(ledger[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return ledger[i].Total().LessThan(ledger[j].Total())
	})
	return ledger
}
