package service

import (
	"context"

	"loan-api/internal/domain"
	"loan-api/internal/repository"

	"github.com/shopspring/decimal"
)

// CreditLedger owns every mutation of a customer's used credit limit.
// Callers must hold the customer row lock (FindByIDForUpdate) for the
// surrounding transaction, so the available-credit check and the update
// cannot interleave with a concurrent writer.
type CreditLedger struct{}

// Reserve charges amount against the customer's credit line.
func (CreditLedger) Reserve(ctx context.Context, customers repository.CustomerStore, c *domain.Customer, amount decimal.Decimal) error {
	if c.AvailableCredit().Cmp(amount) < 0 {
		return domain.ErrInsufficientCredit
	}
	c.UsedCreditLimit = c.UsedCreditLimit.Add(amount)
	return customers.UpdateUsedCredit(ctx, c)
}

// Release returns a prior reservation to the customer's credit line.
// The amount must equal the original total payable of the loan being
// settled, so the used limit round-trips exactly.
func (CreditLedger) Release(ctx context.Context, customers repository.CustomerStore, c *domain.Customer, amount decimal.Decimal) error {
	c.UsedCreditLimit = c.UsedCreditLimit.Sub(amount)
	return customers.UpdateUsedCredit(ctx, c)
}
