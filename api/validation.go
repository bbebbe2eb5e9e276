package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
)

// newValidator returns a validator with the budget-specific tags registered.
// Field names in errors use the json tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("account_type", validateAccountType)
	_ = v.RegisterValidation("schedule_type", validateScheduleType)
	_ = v.RegisterValidation("decimal", validateDecimal)
	return v
}

func validateAccountType(fl validator.FieldLevel) bool {
	return budget.AccountType(fl.Field().String()).Valid()
}

func validateScheduleType(fl validator.FieldLevel) bool {
	return budget.ScheduleType(fl.Field().String()).Valid()
}

func validateDecimal(fl validator.FieldLevel) bool {
	_, err := decimal.NewFromString(fl.Field().String())
	return err == nil
}

// decode reads a JSON body into dst and validates it. Every failure is a
// budget.ErrInvalidInput.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &budget.ValidationError{Field: "body", Message: err.Error()}
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationErrors(err)
	}
	return nil
}

// validationErrors converts validator errors into joined *budget.ValidationError.
func validationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &budget.ValidationError{Field: "body", Message: err.Error()}
	}
	errs := make([]error, len(verrs))
	for i, fe := range verrs {
		errs[i] = &budget.ValidationError{Field: fieldPath(fe), Message: describe(fe)}
	}
	return errors.Join(errs...)
}

// fieldPath drops the request type from the namespace:
// "CreateTransactionRequest.budgets[0].amount" becomes "budgets[0].amount".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return fmt.Sprintf("is required when %s", strings.Replace(fe.Param(), " ", " is ", 1))
	case "excluded_unless":
		return fmt.Sprintf("must be empty unless %s", strings.Replace(fe.Param(), " ", " is ", 1))
	case "account_type":
		return fmt.Sprintf("unknown account type %q", fe.Value())
	case "schedule_type":
		return fmt.Sprintf("unknown schedule type %q (use date, monthly or per_period)", fe.Value())
	case "decimal":
		return fmt.Sprintf("%q is not a decimal number", fe.Value())
	case "datetime":
		return fmt.Sprintf("%q is not a YYYY-MM-DD date", fe.Value())
	case "min", "gte", "gt":
		return fmt.Sprintf("must be at least %s", minimum(fe))
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

func minimum(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		return "1"
	}
	return fe.Param()
}
