package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValidInstallmentCounts are the only loan terms the product offers.
var ValidInstallmentCounts = []int{6, 9, 12, 24}

var (
	MinInterestRate = decimal.NewFromFloat(0.1)
	MaxInterestRate = decimal.NewFromFloat(0.5)
)

type Loan struct {
	ID                   int64           `json:"id"`
	CustomerID           int64           `json:"customer_id"`
	LoanAmount           decimal.Decimal `json:"loan_amount"`
	InterestRate         decimal.Decimal `json:"interest_rate"`
	NumberOfInstallments int             `json:"number_of_installments"`
	CreatedAt            time.Time       `json:"created_at"`
	IsPaid               bool            `json:"is_paid"`
}

// TotalAmount is principal plus interest, fixed at creation and never
// recomputed.
func (l *Loan) TotalAmount() decimal.Decimal {
	return TotalPayable(l.LoanAmount, l.InterestRate)
}

func TotalPayable(principal, interestRate decimal.Decimal) decimal.Decimal {
	return principal.Mul(decimal.NewFromInt(1).Add(interestRate))
}

func IsValidInstallmentCount(n int) bool {
	for _, v := range ValidInstallmentCounts {
		if v == n {
			return true
		}
	}
	return false
}

func IsValidInterestRate(rate decimal.Decimal) bool {
	return rate.Cmp(MinInterestRate) >= 0 && rate.Cmp(MaxInterestRate) <= 0
}
