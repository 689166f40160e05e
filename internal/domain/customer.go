package domain

import "github.com/shopspring/decimal"

type Customer struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Surname         string          `json:"surname"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	UsedCreditLimit decimal.Decimal `json:"used_credit_limit"`
}

// AvailableCredit is the portion of the credit limit not reserved by
// open loans.
func (c *Customer) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.UsedCreditLimit)
}
