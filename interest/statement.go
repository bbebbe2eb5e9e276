package interest

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Statement is one credit card statement: the balance and interest at the
// close of a billing period.
type Statement struct {
	calc      Calculation
	formula   MinPaymentFormula
	period    BillingPeriod
	principal decimal.Decimal
	interest  decimal.Decimal
	txns      Adjustments
}

// NewStatement projects a statement: starting from principal, applies txns
// over period and charges interest with calc.
func NewStatement(calc Calculation, principal decimal.Decimal, formula MinPaymentFormula, period BillingPeriod, txns Adjustments) *Statement {
	res := calc.Calculate(principal, period.Start(), period.End(), txns)
	return &Statement{
		calc:      calc,
		formula:   formula,
		period:    period,
		principal: res.EndBalance,
		interest:  res.InterestPaid,
		txns:      txns,
	}
}

// NewStatementFromBalance is a statement whose closing balance and interest
// are already known, such as the latest one reported by the bank.
func NewStatementFromBalance(calc Calculation, formula MinPaymentFormula, period BillingPeriod, endBalance, interestAmt decimal.Decimal) *Statement {
	return &Statement{
		calc:      calc,
		formula:   formula,
		period:    period,
		principal: endBalance,
		interest:  interestAmt,
	}
}

// Principal is the balance at the end of the statement.
func (s *Statement) Principal() decimal.Decimal      { return s.principal }
func (s *Statement) Interest() decimal.Decimal       { return s.interest }
func (s *Statement) APR() decimal.Decimal            { return s.calc.APR() }
func (s *Statement) BillingPeriod() BillingPeriod    { return s.period }
func (s *Statement) Transactions() Adjustments       { return s.txns }
func (s *Statement) MinimumPayment() decimal.Decimal { return s.formula.Calculate(s.principal, s.interest) }

// NextWithTransactions projects the next billing period with txns applied.
func (s *Statement) NextWithTransactions(txns Adjustments) *Statement {
	return NewStatement(s.calc, s.principal, s.formula, s.period.Next(), txns)
}

// Pay projects the next billing period with a payment of amount made on its
// payment date. Pass a negative amount to reduce the balance.
func (s *Statement) Pay(amount decimal.Decimal) *Statement {
	return s.NextWithTransactions(Adjustments{{Date: s.period.Next().PaymentDate(), Amount: amount}})
}

func (s *Statement) String() string {
	return fmt.Sprintf("Statement(%s principal=%s interest=%s apr=%s)",
		s.period, s.principal.StringFixed(2), s.interest.StringFixed(2), s.calc.APR())
}
