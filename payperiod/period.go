/*
Package payperiod implements the biweekly pay-period accounting engine.

PURPOSE:
  Given a fixed epoch and a 14-day interval, classifies dates into pay
  periods, merges scheduled and actual transactions into one ordered ledger
  per period, and folds that ledger into per-budget and overall sums.

KEY TYPES:
  Calendar: Epoch + store + clock; hands out Periods
  Period:   One 14-day window; lazily loads and memoizes its data
  Record:   Normalized ledger entry (ActualRecord | ScheduledRecord)

TILING:
  Periods tile the date line with no gaps or overlaps, anchored at the
  epoch. period N starts at epoch + 14*N days, N may be negative.
  end = start + 13 days (inclusive).

CACHING:
  A Period loads everything it needs on first access and keeps it until
  ClearCache(). There is no TTL and no cross-period cache. A Period is not
  safe for concurrent use; build one per request.

SEE ALSO:
  - record.go: Entity normalizer
  - ledger.go: Ledger merger
  - sums.go:   Budget and overall aggregators
*/
package payperiod

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/budget-engine/budget"
	"go.uber.org/zap"
)

// Length is the number of days in a pay period.
const Length = 14

// =============================================================================
// CALENDAR - Epoch anchored period factory
// =============================================================================

// Calendar hands out pay periods anchored at an epoch and reads their data
// from a store.
type Calendar struct {
	epoch budget.Date
	store budget.PeriodQueries
	now   func() time.Time
	log   *zap.SugaredLogger
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithClock overrides the clock used for Current and IsInPast.
func WithClock(now func() time.Time) Option {
	return func(c *Calendar) { c.now = now }
}

// WithLogger sets the logger used for period loads.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Calendar) { c.log = log }
}

// NewCalendar creates a calendar whose periods are anchored at epoch.
func NewCalendar(epoch budget.Date, store budget.PeriodQueries, opts ...Option) *Calendar {
	c := &Calendar{
		epoch: epoch,
		store: store,
		now:   time.Now,
		log:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Epoch returns the start of the period every other period is counted from.
func (c *Calendar) Epoch() budget.Date { return c.epoch }

// Today returns the clock's current day.
func (c *Calendar) Today() budget.Date { return budget.DateOf(c.now()) }

// Period returns the period starting on start. start need not be aligned to
// the epoch; PeriodFor always returns aligned periods.
func (c *Calendar) Period(start budget.Date) *Period {
	return &Period{start: start, cal: c}
}

// PeriodFor returns the unique epoch-aligned period containing d.
//
// Computed as floor((d - epoch) / 14); matches walking period by period
// from the epoch for every d, before or after it.
func (c *Calendar) PeriodFor(d budget.Date) *Period {
	offset := c.epoch.DaysUntil(d)
	index := offset / Length
	if offset%Length < 0 {
		index--
	}
	return c.Period(c.epoch.AddDays(index * Length))
}

// Current returns the period containing today.
func (c *Calendar) Current() *Period {
	return c.PeriodFor(c.Today())
}

// =============================================================================
// PERIOD - One 14-day window
// =============================================================================

// Period is identified by its start date. Derived data is computed on first
// access and memoized until ClearCache.
type Period struct {
	start budget.Date
	cal   *Calendar
	data  *periodData
}

func (p *Period) Start() budget.Date { return p.start }

// End is the last day of the period, inclusive.
func (p *Period) End() budget.Date { return p.start.AddDays(Length - 1) }

// Contains returns true if d is within [Start, End].
func (p *Period) Contains(d budget.Date) bool {
	return p.start.BeforeOrEqual(d) && d.BeforeOrEqual(p.End())
}

func (p *Period) Next() *Period     { return p.cal.Period(p.start.AddDays(Length)) }
func (p *Period) Previous() *Period { return p.cal.Period(p.start.AddDays(-Length)) }

// Equal compares periods by start date.
func (p *Period) Equal(other *Period) bool { return p.start.Equal(other.start) }

// Compare orders periods by start date.
func (p *Period) Compare(other *Period) int { return p.start.Compare(other.start) }

// IsInPast reports whether the period ended before today.
func (p *Period) IsInPast() bool {
	return p.End().Before(p.cal.Today())
}

func (p *Period) String() string {
	return fmt.Sprintf("Period(%s - %s)", p.start, p.End())
}

// =============================================================================
// CACHED DATA
// =============================================================================

type periodData struct {
	actual    []budget.Transaction
	dated     []budget.ScheduledTransaction
	perPeriod []budget.ScheduledTransaction
	monthly   []budget.ScheduledTransaction
	budgets   []budget.Budget

	transactions []Record
	budgetSums   map[int64]*BudgetSums
	overall      *OverallSums
}

// ClearCache discards loaded data; the next access reloads from the store.
func (p *Period) ClearCache() { p.data = nil }

// Transactions returns the merged, ordered ledger for the period.
func (p *Period) Transactions(ctx context.Context) ([]Record, error) {
	d, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	return d.transactions, nil
}

// BudgetSums returns sums keyed by budget id for every active periodic budget.
func (p *Period) BudgetSums(ctx context.Context) (map[int64]*BudgetSums, error) {
	d, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	return d.budgetSums, nil
}

// OverallSums returns the whole-period totals.
func (p *Period) OverallSums(ctx context.Context) (*OverallSums, error) {
	d, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	return d.overall, nil
}

// load queries the store once and derives everything. Nothing is cached
// unless every query succeeds.
func (p *Period) load(ctx context.Context) (*periodData, error) {
	if p.data != nil {
		return p.data, nil
	}

	start, end := p.start, p.End()
	q := p.cal.store
	d := &periodData{}
	var err error

	if d.actual, err = q.TransactionsBetween(ctx, start, end); err != nil {
		return nil, fmt.Errorf("loading transactions for %s: %w", p, err)
	}
	if d.dated, err = q.ScheduledByDate(ctx, start, end); err != nil {
		return nil, fmt.Errorf("loading date scheduled transactions for %s: %w", p, err)
	}
	if d.perPeriod, err = q.ScheduledPerPeriod(ctx); err != nil {
		return nil, fmt.Errorf("loading per-period scheduled transactions for %s: %w", p, err)
	}
	if d.monthly, err = q.ScheduledMonthly(ctx, start.Day(), end.Day()); err != nil {
		return nil, fmt.Errorf("loading monthly scheduled transactions for %s: %w", p, err)
	}
	if d.budgets, err = q.ActiveBudgets(ctx); err != nil {
		return nil, fmt.Errorf("loading budgets for %s: %w", p, err)
	}

	d.transactions = mergeLedger(start, end, d.actual, d.dated, d.perPeriod, d.monthly)
	d.budgetSums = sumBudgets(d.budgets, d.transactions)
	d.overall = sumOverall(d.budgetSums, p.IsInPast())

	p.cal.log.Debugw("pay period loaded",
		"start", start.String(),
		"end", end.String(),
		"transactions", len(d.actual),
		"ledger_entries", len(d.transactions),
		"budgets", len(d.budgetSums),
	)

	p.data = d
	return d, nil
}
