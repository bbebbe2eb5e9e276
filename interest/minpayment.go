package interest

import "github.com/shopspring/decimal"

// MinPaymentFormula computes a statement's minimum payment from its balance
// and the interest charged on it.
type MinPaymentFormula interface {
	Calculate(balance, interest decimal.Decimal) decimal.Decimal
}

var (
	onePercent          = decimal.RequireFromString("0.01")
	onePointFivePercent = decimal.RequireFromString("0.015")
	twoPercent          = decimal.RequireFromString("0.02")
)

// MinPaymentAmEx is interest plus 1% of the balance, at least 35.
type MinPaymentAmEx struct{}

func (MinPaymentAmEx) Calculate(balance, interest decimal.Decimal) decimal.Decimal {
	return decimal.Max(interest.Add(balance.Mul(onePercent)), decimal.NewFromInt(35))
}

// MinPaymentDiscover is the greatest of 35, 2% of the balance, or 20 plus
// interest.
type MinPaymentDiscover struct{}

func (MinPaymentDiscover) Calculate(balance, interest decimal.Decimal) decimal.Decimal {
	return decimal.Max(
		decimal.NewFromInt(35),
		balance.Mul(twoPercent),
		decimal.NewFromInt(20).Add(interest),
	)
}

// MinPaymentCiti is the greatest of 25, 1% of the balance plus interest, or
// 1.5% of the balance rounded to the dollar. A balance under 25 is also a
// candidate.
type MinPaymentCiti struct{}

func (MinPaymentCiti) Calculate(balance, interest decimal.Decimal) decimal.Decimal {
	floor := decimal.NewFromInt(25)
	options := []decimal.Decimal{
		balance.Mul(onePercent).Add(interest),
		balance.Mul(onePointFivePercent).RoundBank(0),
	}
	if balance.LessThan(floor) {
		options = append(options, balance)
	}
	return decimal.Max(floor, options...)
}

func init() {
	RegisterMinPaymentFormula(FormulaInfo{
		Name:        "MinPaymentAmEx",
		Description: "AmEx - Greatest of Interest Plus 1% of Principal, or $35",
		New:         func() MinPaymentFormula { return MinPaymentAmEx{} },
	})
	RegisterMinPaymentFormula(FormulaInfo{
		Name:        "MinPaymentDiscover",
		Description: "Discover - Greatest of 2% of Principal, or $20 plus Interest, or $35",
		New:         func() MinPaymentFormula { return MinPaymentDiscover{} },
	})
	RegisterMinPaymentFormula(FormulaInfo{
		Name:        "MinPaymentCiti",
		Description: "Citi - Greatest of 1.5% of Principal, or 1% of Principal plus interest and fees, or $25, or Principal",
		New:         func() MinPaymentFormula { return MinPaymentCiti{} },
	})
}
