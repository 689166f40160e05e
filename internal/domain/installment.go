package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// dailyAdjustmentRate is applied per whole day between the payment date
// and the due date: a discount when paying early, a penalty when late.
var dailyAdjustmentRate = decimal.NewFromFloat(0.001)

type Installment struct {
	ID          int64           `json:"id"`
	LoanID      int64           `json:"loan_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	DueDate     time.Time       `json:"due_date"`
	PaymentDate *time.Time      `json:"payment_date"`
	IsPaid      bool            `json:"is_paid"`
}

// SettlementAmount is the amount actually charged for this installment
// when settled on paymentDate: the scheduled amount minus 0.1% per day
// early, or plus 0.1% per day late. Rounded to 2 fractional digits,
// half up, like the scheduled amounts.
func (i *Installment) SettlementAmount(paymentDate time.Time) decimal.Decimal {
	days := wholeDaysBetween(paymentDate, i.DueDate)
	if days == 0 {
		return i.Amount
	}

	// days is positive when paying early (discount) and negative when
	// paying late, which turns the subtraction into a penalty.
	adjustment := i.Amount.Mul(dailyAdjustmentRate).Mul(decimal.NewFromInt(days))
	return i.Amount.Sub(adjustment).Round(2)
}

// wholeDaysBetween returns the number of whole calendar days from a to
// b, negative when a is after b. Time-of-day is ignored.
func wholeDaysBetween(a, b time.Time) int64 {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int64(bd.Sub(ad).Hours() / 24)
}
