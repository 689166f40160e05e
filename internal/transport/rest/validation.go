package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"loan-api/internal/domain"

	"github.com/shopspring/decimal"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type LoanRequest struct {
	CustomerID           int64
	Amount               decimal.Decimal
	Interest             decimal.Decimal
	NumberOfInstallments int
}

type rawLoanRequest struct {
	CustomerID           interface{} `json:"customer_id"`
	Amount               interface{} `json:"amount"`
	Interest             interface{} `json:"interest"`
	NumberOfInstallments interface{} `json:"number_of_installments"`
}

// ValidateLoanRequest parses and validates JSON input for loan creation.
// Amounts may arrive as JSON numbers or strings; strings keep full
// decimal precision.
func ValidateLoanRequest(r *http.Request) (*LoanRequest, error) {
	var raw rawLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}

	customerID, err := toInt64(raw.CustomerID)
	if err != nil {
		return nil, &ValidationError{Field: "customer_id", Message: "customer_id is required and must be an integer"}
	}

	amount, err := toDecimal(raw.Amount)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Message: "amount is required and must be a decimal"}
	}
	if amount.Sign() <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}

	interest, err := toDecimal(raw.Interest)
	if err != nil {
		return nil, &ValidationError{Field: "interest", Message: "interest is required and must be a decimal"}
	}
	if !domain.IsValidInterestRate(interest) {
		return nil, &ValidationError{Field: "interest", Message: "interest rate must be between 0.1 and 0.5"}
	}

	n, err := toInt64(raw.NumberOfInstallments)
	if err != nil || !domain.IsValidInstallmentCount(int(n)) {
		return nil, &ValidationError{Field: "number_of_installments", Message: "number of installments must be 6, 9, 12 or 24"}
	}

	return &LoanRequest{
		CustomerID:           customerID,
		Amount:               amount,
		Interest:             interest,
		NumberOfInstallments: int(n),
	}, nil
}

type PayLoanRequest struct {
	Amount      decimal.Decimal
	PaymentDate time.Time
}

type rawPayLoanRequest struct {
	Amount      interface{} `json:"amount"`
	PaymentDate interface{} `json:"payment_date"`
}

// ValidatePayLoanRequest parses and validates JSON input for loan
// payment. The payment date defaults to today when omitted.
func ValidatePayLoanRequest(r *http.Request) (*PayLoanRequest, error) {
	var raw rawPayLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}

	amount, err := toDecimal(raw.Amount)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Message: "amount is required and must be a decimal"}
	}
	if amount.Sign() <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}

	paymentDate := time.Now()
	if raw.PaymentDate != nil {
		parsed, err := toDate(raw.PaymentDate)
		if err != nil {
			return nil, &ValidationError{Field: "payment_date", Message: "payment_date must be YYYY-MM-DD or RFC3339"}
		}
		paymentDate = parsed
	}

	return &PayLoanRequest{Amount: amount, PaymentDate: paymentDate}, nil
}

func toInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		var i int64
		if _, err := fmt.Sscanf(t, "%d", &i); err != nil {
			return 0, err
		}
		return i, nil
	default:
		return 0, &ValidationError{Message: "invalid type for int field"}
	}
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), nil
	case string:
		return decimal.NewFromString(t)
	default:
		return decimal.Zero, &ValidationError{Message: "invalid type for decimal field"}
	}
}

func toDate(v interface{}) (time.Time, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, &ValidationError{Message: "invalid type for date field"}
	}
	if parsed, err := time.Parse("2006-01-02", s); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, s)
}
