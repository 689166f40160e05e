package service

import (
	"context"
	"log"
	"time"

	"loan-api/internal/domain"
	"loan-api/internal/repository"

	"github.com/shopspring/decimal"
)

// eligibleWindowMonths bounds how far ahead of the payment date an
// unpaid installment may be due and still be settled by that payment.
const eligibleWindowMonths = 3

type PaymentResult struct {
	LoanID           int64           `json:"loan_id"`
	InstallmentsPaid int             `json:"installments_paid"`
	TotalAmountSpent decimal.Decimal `json:"total_amount_spent"`
	LoanFullyPaid    bool            `json:"loan_fully_paid"`
}

// PaymentService allocates a payment across a loan's eligible
// installments, oldest due date first.
type PaymentService struct {
	uow    repository.UnitOfWork
	ledger CreditLedger
	cache  Cache
}

func NewPaymentService(uow repository.UnitOfWork, cache Cache) *PaymentService {
	return &PaymentService{uow: uow, cache: cache}
}

// PayLoan settles as many whole installments as the payment covers,
// within the eligible window. Each settled installment is charged its
// time-adjusted amount, not its scheduled amount, but eligibility and
// the installment count are decided from the scheduled amount alone.
// When the last installment settles, the loan is marked paid and its
// total payable is released back to the customer's credit line.
func (s *PaymentService) PayLoan(ctx context.Context, loanID int64, amount decimal.Decimal, paymentDate time.Time) (*PaymentResult, error) {
	var (
		result     *PaymentResult
		customerID int64
	)

	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		loan, err := r.Loans.FindByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		customerID = loan.CustomerID

		maxDueDate := paymentDate.AddDate(0, eligibleWindowMonths, 0)
		eligible, err := r.Installments.ListUnpaidDueBefore(ctx, loanID, maxDueDate)
		if err != nil {
			return err
		}
		if len(eligible) == 0 {
			return domain.ErrNoPayableInstallments
		}

		// Installments of a loan share one scheduled amount, so the
		// first eligible one prices the whole payment.
		unit := eligible[0].Amount
		maxPayable := int(amount.Div(unit).IntPart())
		if maxPayable <= 0 {
			return domain.ErrInsufficientPayment
		}

		toPay := maxPayable
		if toPay > len(eligible) {
			toPay = len(eligible)
		}

		totalSpent := decimal.Zero
		for i := 0; i < toPay; i++ {
			inst := eligible[i]
			settled := inst.SettlementAmount(paymentDate)

			pd := paymentDate
			inst.PaidAmount = settled
			inst.PaymentDate = &pd
			inst.IsPaid = true
			if err := r.Installments.MarkPaid(ctx, &inst); err != nil {
				return err
			}
			totalSpent = totalSpent.Add(settled)
		}

		// Full-repayment check runs over every installment of the
		// loan, not just the eligible window.
		all, err := r.Installments.ListByLoan(ctx, loanID)
		if err != nil {
			return err
		}
		fullyPaid := true
		for _, inst := range all {
			if !inst.IsPaid {
				fullyPaid = false
				break
			}
		}

		if fullyPaid {
			if err := r.Loans.MarkPaid(ctx, loanID); err != nil {
				return err
			}
			customer, err := r.Customers.FindByIDForUpdate(ctx, loan.CustomerID)
			if err != nil {
				return err
			}
			if err := s.ledger.Release(ctx, r.Customers, customer, loan.TotalAmount()); err != nil {
				return err
			}
		}

		result = &PaymentResult{
			LoanID:           loanID,
			InstallmentsPaid: toPay,
			TotalAmountSpent: totalSpent,
			LoanFullyPaid:    fullyPaid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateListings(ctx, s.cache, customerID, loanID)
	log.Printf("loan %d payment: installments=%d spent=%s fully_paid=%v",
		loanID, result.InstallmentsPaid, result.TotalAmountSpent, result.LoanFullyPaid)
	return result, nil
}
