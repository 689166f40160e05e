package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"loan-api/internal/domain"
	"loan-api/internal/repository"

	"github.com/shopspring/decimal"
)

// LoanService originates loans against a customer's credit line and
// serves loan/installment listings.
type LoanService struct {
	uow    repository.UnitOfWork
	repos  repository.Repos
	ledger CreditLedger
	cache  Cache

	now func() time.Time
}

func NewLoanService(uow repository.UnitOfWork, repos repository.Repos, cache Cache) *LoanService {
	return &LoanService{
		uow:   uow,
		repos: repos,
		cache: cache,
		now:   time.Now,
	}
}

// CreateLoan reserves principal plus interest on the customer's credit
// line and creates the loan with its full installment schedule, all in
// one transaction. On any failure nothing is persisted, including the
// reservation.
func (s *LoanService) CreateLoan(ctx context.Context, customerID int64, amount, interestRate decimal.Decimal, numberOfInstallments int) (*domain.Loan, error) {
	// The transport layer validates these; re-asserted here so the
	// invariants hold no matter who calls in.
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("loan amount must be positive")
	}
	if !domain.IsValidInterestRate(interestRate) {
		return nil, fmt.Errorf("interest rate must be between %s and %s", domain.MinInterestRate, domain.MaxInterestRate)
	}
	if !domain.IsValidInstallmentCount(numberOfInstallments) {
		return nil, fmt.Errorf("number of installments must be one of %v", domain.ValidInstallmentCounts)
	}

	var loan *domain.Loan

	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		customer, err := r.Customers.FindByIDForUpdate(ctx, customerID)
		if err != nil {
			return err
		}

		total := domain.TotalPayable(amount, interestRate)
		if err := s.ledger.Reserve(ctx, r.Customers, customer, total); err != nil {
			return err
		}

		l := &domain.Loan{
			CustomerID:           customerID,
			LoanAmount:           amount,
			InterestRate:         interestRate,
			NumberOfInstallments: numberOfInstallments,
			CreatedAt:            s.now(),
			IsPaid:               false,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}

		if err := r.Installments.CreateBatch(ctx, buildSchedule(l, total)); err != nil {
			return err
		}

		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateListings(ctx, s.cache, customerID, loan.ID)
	log.Printf("loan %d created for customer %d: amount=%s rate=%s installments=%d",
		loan.ID, customerID, amount, interestRate, numberOfInstallments)
	return loan, nil
}

// buildSchedule splits the total payable into equal installments due on
// the first day of each month, starting the month after creation. The
// per-installment amount is rounded to cents without redistributing the
// remainder, so the scheduled sum may drift from the total by a few
// cents.
func buildSchedule(l *domain.Loan, total decimal.Decimal) []domain.Installment {
	per := total.Div(decimal.NewFromInt(int64(l.NumberOfInstallments))).Round(2)

	due := firstOfNextMonth(l.CreatedAt)
	installments := make([]domain.Installment, 0, l.NumberOfInstallments)
	for i := 0; i < l.NumberOfInstallments; i++ {
		installments = append(installments, domain.Installment{
			LoanID:     l.ID,
			Amount:     per,
			PaidAmount: decimal.Zero,
			DueDate:    due,
		})
		due = due.AddDate(0, 1, 0)
	}
	return installments
}

func firstOfNextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

func (s *LoanService) GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error) {
	return s.repos.Loans.FindByID(ctx, loanID)
}

func (s *LoanService) ListLoans(ctx context.Context, f repository.LoansFilter) ([]domain.Loan, error) {
	// Only the unfiltered listing is cached; filtered variants go to
	// the database directly.
	cacheable := f.NumberOfInstallments == nil && f.IsPaid == nil

	if cacheable && s.cache != nil {
		if data, err := s.cache.Get(ctx, loansCacheKey(f.CustomerID)); err == nil {
			var loans []domain.Loan
			if err := json.Unmarshal([]byte(data), &loans); err == nil {
				return loans, nil
			}
		}
	}

	loans, err := s.repos.Loans.List(ctx, f)
	if err != nil {
		return nil, err
	}

	if cacheable && s.cache != nil {
		if data, err := json.Marshal(loans); err == nil {
			_ = s.cache.Set(ctx, loansCacheKey(f.CustomerID), string(data), listingCacheTTL)
		}
	}
	return loans, nil
}

func (s *LoanService) ListInstallments(ctx context.Context, loanID int64) ([]domain.Installment, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, installmentsCacheKey(loanID)); err == nil {
			var installments []domain.Installment
			if err := json.Unmarshal([]byte(data), &installments); err == nil {
				return installments, nil
			}
		}
	}

	if _, err := s.repos.Loans.FindByID(ctx, loanID); err != nil {
		return nil, err
	}
	installments, err := s.repos.Installments.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(installments); err == nil {
			_ = s.cache.Set(ctx, installmentsCacheKey(loanID), string(data), listingCacheTTL)
		}
	}
	return installments, nil
}
