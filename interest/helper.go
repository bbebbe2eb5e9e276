package interest

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
	"go.uber.org/zap"
)

// AccountSource lists the accounts the helper simulates.
type AccountSource interface {
	ActiveCreditAccounts(ctx context.Context) ([]budget.Account, error)
}

// Helper builds the latest statement for every active credit account and
// runs payoff simulations over them.
type Helper struct {
	accounts   []budget.Account
	statements []*Statement
	increases  Adjustments
	onetimes   Adjustments
	log        *zap.SugaredLogger
}

type HelperOption func(*Helper)

// WithIncreases sets max total payment increases, each effective from its date.
func WithIncreases(increases Adjustments) HelperOption {
	return func(h *Helper) { h.increases = increases }
}

// WithOnetimes sets one-time additions to the first max payment on or after
// each date.
func WithOnetimes(onetimes Adjustments) HelperOption {
	return func(h *Helper) { h.onetimes = onetimes }
}

func WithHelperLogger(log *zap.SugaredLogger) HelperOption {
	return func(h *Helper) { h.log = log }
}

// NewHelper loads active credit accounts from src and builds one statement
// per account from its ledger balance. Unknown class names fail the whole
// helper with an *UnknownNameError.
func NewHelper(ctx context.Context, src AccountSource, opts ...HelperOption) (*Helper, error) {
	h := &Helper{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(h)
	}

	accounts, err := src.ActiveCreditAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading credit accounts: %w", err)
	}
	h.accounts = accounts

	h.statements = make([]*Statement, 0, len(accounts))
	for _, a := range accounts {
		stmt, err := statementFor(a)
		if err != nil {
			return nil, fmt.Errorf("account %d (%s): %w", a.ID, a.Name, err)
		}
		h.statements = append(h.statements, stmt)
	}
	h.log.Debugw("interest helper ready", "accounts", len(accounts))
	return h, nil
}

func statementFor(a budget.Account) (*Statement, error) {
	calc, err := NewCalculation(a.InterestClass, a.APR)
	if err != nil {
		return nil, err
	}
	formula, err := NewMinPaymentFormula(a.MinPaymentClass)
	if err != nil {
		return nil, err
	}
	bal := a.Balance.Abs()
	return NewStatementFromBalance(calc, formula, BillingPeriodFor(a.BalanceDate), bal, decimal.Zero), nil
}

func (h *Helper) Accounts() []budget.Account { return h.accounts }

// MinPayments returns the minimum payment on the latest statement, by
// account id.
func (h *Helper) MinPayments() map[int64]decimal.Decimal {
	res := make(map[int64]decimal.Decimal, len(h.accounts))
	for i, a := range h.accounts {
		res[a.ID] = h.statements[i].MinimumPayment()
	}
	return res
}

// AccountPayoff is one account's result under one payoff method.
type AccountPayoff struct {
	PayoffMonths  int             `json:"payoff_months"`
	TotalPayments decimal.Decimal `json:"total_payments"`
	TotalInterest decimal.Decimal `json:"total_interest"`
}

// MethodResult is one payoff method's outcome: per-account results, or the
// error that stopped it.
type MethodResult struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Results     map[int64]AccountPayoff `json:"results,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// CalculatePayoffs runs every UI-visible payoff method, in name order, with
// a max total payment equal to the sum of the current minimum payments.
func (h *Helper) CalculatePayoffs() []MethodResult {
	maxTotal := decimal.Zero
	for _, m := range h.MinPayments() {
		maxTotal = maxTotal.Add(m)
	}
	limits := Limits{MaxTotal: maxTotal, Increases: h.increases, Onetimes: h.onetimes}

	var res []MethodResult
	for _, info := range PayoffMethods() {
		if !info.ShowInUI {
			continue
		}
		mr := MethodResult{Name: info.Name, Description: info.Description}
		results, err := h.calculate(info.New(limits))
		if err != nil {
			h.log.Errorw("payoff method failed", "method", info.Name, "error", err)
			mr.Error = err.Error()
		} else {
			mr.Results = results
		}
		res = append(res, mr)
	}
	return res
}

func (h *Helper) calculate(method PayoffMethod) (map[int64]AccountPayoff, error) {
	payoffs, err := CalculatePayoffs(method, h.statements)
	if err != nil {
		return nil, err
	}
	res := make(map[int64]AccountPayoff, len(payoffs))
	for i, p := range payoffs {
		res[h.accounts[i].ID] = AccountPayoff{
			PayoffMonths:  p.Months,
			TotalPayments: p.TotalPaid,
			TotalInterest: p.TotalPaid.Sub(h.statements[i].Principal()),
		}
	}
	return res, nil
}
