package interest

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
)

// MaxPayoffPeriods bounds CalculatePayoffs; a method still paying after this
// many billing periods never converges.
const MaxPayoffPeriods = 1200

// =============================================================================
// LIMITS - Max total payment per billing period
// =============================================================================

// Limits is the total a payoff method may pay across every card per billing
// period.
//
//	MaxTotal:  base amount
//	Increases: new base amount from its date on; the latest one on or before
//	           the payment date wins
//	Onetimes:  extra amount added to the first payment on or after its date
type Limits struct {
	MaxTotal  decimal.Decimal
	Increases Adjustments
	Onetimes  Adjustments
}

// ForPeriod returns the max total payment for period p.
func (l Limits) ForPeriod(p BillingPeriod) decimal.Decimal {
	pay := p.PaymentDate()
	res := l.MaxTotal

	increases := append(Adjustments(nil), l.Increases...)
	sort.SliceStable(increases, func(i, j int) bool { return increases[i].Date.After(increases[j].Date) })
	for _, inc := range increases {
		if inc.Date.After(pay) {
			continue
		}
		res = inc.Amount
		break
	}

	prevPay := p.Previous().PaymentDate()
	for _, ot := range l.Onetimes {
		if prevPay.Before(ot.Date) && ot.Date.BeforeOrEqual(pay) {
			res = res.Add(ot.Amount)
		}
	}
	return res
}

// =============================================================================
// PAYOFF METHODS
// =============================================================================

// PayoffMethod decides how much to pay on each statement this period.
// The result is in the same order as statements.
type PayoffMethod interface {
	FindPayments(statements []*Statement) ([]decimal.Decimal, error)
}

// MinPaymentMethod pays only the minimum on each statement.
type MinPaymentMethod struct{}

func (MinPaymentMethod) FindPayments(statements []*Statement) ([]decimal.Decimal, error) {
	res := make([]decimal.Decimal, len(statements))
	for i, s := range statements {
		res[i] = s.MinimumPayment()
	}
	return res, nil
}

// FixedPaymentMethod pays the max total on every statement. Testing only.
type FixedPaymentMethod struct {
	Limits Limits
}

func (m FixedPaymentMethod) FindPayments(statements []*Statement) ([]decimal.Decimal, error) {
	res := make([]decimal.Decimal, len(statements))
	for i := range statements {
		res[i] = m.Limits.MaxTotal
	}
	return res, nil
}

// PriorityMethod pays the minimum on every statement except the one pick
// selects, which gets whatever is left of the period's max total.
type PriorityMethod struct {
	Limits Limits
	pick   func(statements []*Statement) int
}

// FindPayments returns ErrMinimumPaymentsExceedMax if the max total cannot
// cover the minimums.
func (m PriorityMethod) FindPayments(statements []*Statement) ([]decimal.Decimal, error) {
	if len(statements) == 0 {
		return nil, nil
	}
	maxTotal := m.Limits.ForPeriod(statements[0].BillingPeriod())

	mins := make([]decimal.Decimal, len(statements))
	minSum := decimal.Zero
	for i, s := range statements {
		mins[i] = s.MinimumPayment()
		minSum = minSum.Add(mins[i])
	}
	if minSum.GreaterThan(maxTotal) {
		return nil, fmt.Errorf("max total payment of %s is less than sum of minimum payments (%s): %w",
			maxTotal.StringFixed(2), minSum.StringFixed(2), budget.ErrMinimumPaymentsExceedMax)
	}

	res := append([]decimal.Decimal(nil), mins...)
	if idx := m.pick(statements); idx >= 0 {
		res[idx] = maxTotal.Sub(minSum.Sub(mins[idx]))
	}
	return res, nil
}

// highest picks the first statement whose key is the largest positive one.
// -1 if no key is positive.
func highest(key func(*Statement) decimal.Decimal) func([]*Statement) int {
	return func(statements []*Statement) int {
		best, idx := decimal.Zero, -1
		for i, s := range statements {
			if k := key(s); k.GreaterThan(best) {
				best, idx = k, i
			}
		}
		return idx
	}
}

// lowest picks the first statement with the smallest key.
func lowest(key func(*Statement) decimal.Decimal) func([]*Statement) int {
	return func(statements []*Statement) int {
		var best decimal.Decimal
		idx := -1
		for i, s := range statements {
			if k := key(s); idx < 0 || k.LessThan(best) {
				best, idx = k, i
			}
		}
		return idx
	}
}

func principalOf(s *Statement) decimal.Decimal { return s.Principal() }
func aprOf(s *Statement) decimal.Decimal       { return s.APR() }

func NewHighestBalanceFirst(l Limits) PriorityMethod {
	return PriorityMethod{Limits: l, pick: highest(principalOf)}
}

func NewHighestInterestRateFirst(l Limits) PriorityMethod {
	return PriorityMethod{Limits: l, pick: highest(aprOf)}
}

func NewLowestBalanceFirst(l Limits) PriorityMethod {
	return PriorityMethod{Limits: l, pick: lowest(principalOf)}
}

func NewLowestInterestRateFirst(l Limits) PriorityMethod {
	return PriorityMethod{Limits: l, pick: lowest(aprOf)}
}

func init() {
	RegisterPayoffMethod(MethodInfo{
		Name:        "MinPaymentMethod",
		Description: "Minimum Payment Only",
		ShowInUI:    true,
		New:         func(Limits) PayoffMethod { return MinPaymentMethod{} },
	})
	RegisterPayoffMethod(MethodInfo{
		Name:        "FixedPaymentMethod",
		Description: "TESTING ONLY - Fixed Payment for All Statements",
		New:         func(l Limits) PayoffMethod { return FixedPaymentMethod{Limits: l} },
	})
	RegisterPayoffMethod(MethodInfo{
		Name:        "HighestBalanceFirstMethod",
		Description: "Highest to Lowest Balance",
		ShowInUI:    true,
		New:         func(l Limits) PayoffMethod { return NewHighestBalanceFirst(l) },
	})
	RegisterPayoffMethod(MethodInfo{
		Name:        "HighestInterestRateFirstMethod",
		Description: "Highest to Lowest Interest Rate",
		ShowInUI:    true,
		New:         func(l Limits) PayoffMethod { return NewHighestInterestRateFirst(l) },
	})
	RegisterPayoffMethod(MethodInfo{
		Name:        "LowestBalanceFirstMethod",
		Description: "Lowest to Highest Balance (a.k.a. Snowball Method)",
		ShowInUI:    true,
		New:         func(l Limits) PayoffMethod { return NewLowestBalanceFirst(l) },
	})
	RegisterPayoffMethod(MethodInfo{
		Name:        "LowestInterestRateFirstMethod",
		Description: "Lowest to Highest Interest Rate",
		ShowInUI:    true,
		New:         func(l Limits) PayoffMethod { return NewLowestInterestRateFirst(l) },
	})
}

// =============================================================================
// SIMULATION
// =============================================================================

// Payoff is how long one statement took to pay off and the total paid.
type Payoff struct {
	Months    int
	TotalPaid decimal.Decimal
}

// CalculatePayoffs pays statements period by period with method until every
// balance reaches zero. Results are in the order of statements.
func CalculatePayoffs(method PayoffMethod, statements []*Statement) ([]Payoff, error) {
	payoffs := make([]Payoff, len(statements))
	current := append([]*Statement(nil), statements...)
	done := make([]bool, len(statements))
	for i := range payoffs {
		payoffs[i].TotalPaid = decimal.Zero
	}

	for period := 0; ; period++ {
		var idx []int
		var unpaid []*Statement
		for i, s := range current {
			if !done[i] {
				idx = append(idx, i)
				unpaid = append(unpaid, s)
			}
		}
		if len(unpaid) == 0 {
			return payoffs, nil
		}
		if period >= MaxPayoffPeriods {
			return nil, fmt.Errorf("%d statements unpaid after %d billing periods: %w",
				len(unpaid), MaxPayoffPeriods, budget.ErrPayoffDiverges)
		}

		amounts, err := method.FindPayments(unpaid)
		if err != nil {
			return nil, err
		}

		for k, i := range idx {
			s, amt := current[i], amounts[k]
			switch {
			case !s.Principal().IsPositive():
				done[i] = true
			case s.Principal().LessThanOrEqual(amt):
				done[i] = true
				payoffs[i].Months++
				payoffs[i].TotalPaid = payoffs[i].TotalPaid.Add(s.Principal())
			default:
				payoffs[i].Months++
				payoffs[i].TotalPaid = payoffs[i].TotalPaid.Add(amt)
				current[i] = s.Pay(amt.Neg())
			}
		}
	}
}
