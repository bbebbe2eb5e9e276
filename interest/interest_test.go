package interest_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/interest"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(s string) budget.Date { return budget.MustParseDate(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

// =============================================================================
// BILLING PERIODS
// =============================================================================

func TestBillingPeriodFor(t *testing.T) {
	tests := []struct {
		statement  string
		start, end string
		payment    string
	}{
		{"2017-07-10", "2017-06-01", "2017-06-30", "2017-06-15"},
		{"2017-07-14", "2017-06-01", "2017-06-30", "2017-06-15"},
		{"2017-07-15", "2017-07-01", "2017-07-31", "2017-07-16"},
		{"2017-03-05", "2017-02-01", "2017-02-28", "2017-02-14"},
		{"2018-01-02", "2017-12-01", "2017-12-31", "2017-12-16"},
	}
	for _, tt := range tests {
		t.Run(tt.statement, func(t *testing.T) {
			p := interest.BillingPeriodFor(date(tt.statement))
			assert.Equal(t, tt.start, p.Start().String())
			assert.Equal(t, tt.end, p.End().String())
			assert.Equal(t, tt.payment, p.PaymentDate().String())
		})
	}
}

func TestBillingPeriod_NextAndPrevious(t *testing.T) {
	july := interest.BillingPeriodFor(date("2017-07-20"))

	next := july.Next()
	assert.Equal(t, "2017-08-01", next.Start().String())
	assert.Equal(t, "2017-08-31", next.End().String())

	prev := july.Previous()
	assert.Equal(t, "2017-06-01", prev.Start().String())
	assert.Equal(t, "2017-06-30", prev.End().String())

	assert.Equal(t, july, july.Next().Previous())
	assert.Equal(t, "2018-01-01", interest.BillingPeriodStarting(date("2017-12-01")).Next().Start().String())
}

// =============================================================================
// INTEREST CALCULATIONS
// =============================================================================

func TestSimpleInterest(t *testing.T) {
	calc := interest.NewSimpleInterest(dec("0.12"))
	july := interest.BillingPeriodFor(date("2017-07-20"))

	res := calc.Calculate(dec("1000"), july.Start(), july.End(), nil)
	assertDecimal(t, "10.19", res.InterestPaid.Round(2), "interest")
	assertDecimal(t, "1010.19", res.EndBalance.Round(2), "end balance")

	// a payment moves the balance interest is charged on
	res = calc.Calculate(dec("1000"), july.Start(), july.End(), interest.Adjustments{{Date: date("2017-07-16"), Amount: dec("-100")}})
	assertDecimal(t, "9.17", res.InterestPaid.Round(2), "interest after payment")
	assertDecimal(t, "909.17", res.EndBalance.Round(2), "end balance after payment")
}

func TestAdbCompoundedDaily(t *testing.T) {
	calc := interest.NewAdbCompoundedDaily(dec("0.1999"))
	july := interest.BillingPeriodFor(date("2017-07-20"))

	res := calc.Calculate(dec("1000"), july.Start(), july.End(), nil)
	assertDecimal(t, "17.13", res.InterestPaid.Round(2), "interest")
	assertDecimal(t, "1017.13", res.EndBalance.Round(2), "end balance")

	res = calc.Calculate(dec("1000"), july.Start(), july.End(), interest.Adjustments{{Date: date("2017-07-16"), Amount: dec("-200")}})
	assertDecimal(t, "15.37", res.InterestPaid.Round(2), "interest after payment")
	assertDecimal(t, "815.37", res.EndBalance.Round(2), "end balance after payment")
}

func TestAdbCompoundedDaily_ZeroAPR(t *testing.T) {
	calc := interest.NewAdbCompoundedDaily(decimal.Zero)
	res := calc.Calculate(dec("500"), date("2017-07-01"), date("2017-07-31"), interest.Adjustments{
		{Date: date("2017-07-05"), Amount: dec("-20")},
		{Date: date("2017-07-05"), Amount: dec("-30")},
	})
	assert.True(t, res.InterestPaid.IsZero())
	assertDecimal(t, "450", res.EndBalance, "end balance")
}

// =============================================================================
// MINIMUM PAYMENTS
// =============================================================================

func TestMinPaymentFormulas(t *testing.T) {
	tests := []struct {
		name              string
		formula           interest.MinPaymentFormula
		balance, interest string
		want              string
	}{
		{"amex floor", interest.MinPaymentAmEx{}, "1000", "10", "35"},
		{"amex percent", interest.MinPaymentAmEx{}, "5000", "20", "70"},
		{"discover floor", interest.MinPaymentDiscover{}, "1000", "10", "35"},
		{"discover percent", interest.MinPaymentDiscover{}, "3000", "10", "60"},
		{"discover interest", interest.MinPaymentDiscover{}, "100", "40", "60"},
		{"citi floor", interest.MinPaymentCiti{}, "1000", "10", "25"},
		{"citi one and a half", interest.MinPaymentCiti{}, "5000", "10", "75"},
		{"citi small balance", interest.MinPaymentCiti{}, "10", "0", "25"},
		{"citi rounds half to even up", interest.MinPaymentCiti{}, "1700", "0", "26"},
		{"citi rounds half to even down", interest.MinPaymentCiti{}, "2300", "0", "34"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, tt.formula.Calculate(dec(tt.balance), dec(tt.interest)), "minimum")
		})
	}
}

// =============================================================================
// REGISTRIES
// =============================================================================

func TestRegistries(t *testing.T) {
	calc, err := interest.NewCalculation("AdbCompoundedDaily", dec("0.2"))
	require.NoError(t, err)
	assertDecimal(t, "0.2", calc.APR(), "apr")

	_, err = interest.NewMinPaymentFormula("MinPaymentChase")
	var unknown *interest.UnknownNameError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "MinPaymentChase", unknown.Name)
	assert.ErrorIs(t, err, budget.ErrInvalidInput)

	var names []string
	for _, m := range interest.PayoffMethods() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{
		"FixedPaymentMethod",
		"HighestBalanceFirstMethod",
		"HighestInterestRateFirstMethod",
		"LowestBalanceFirstMethod",
		"LowestInterestRateFirstMethod",
		"MinPaymentMethod",
	}, names)
	assert.Len(t, interest.Calculations(), 2)
	assert.Len(t, interest.MinPaymentFormulas(), 3)
}
