package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loan-api/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the repositories can
// run standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type CustomerStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Customer, error)
	// FindByIDForUpdate locks the customer row for the duration of the
	// surrounding transaction, serializing credit reserve/release
	// against concurrent operations on the same customer.
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Customer, error)
	UpdateUsedCredit(ctx context.Context, c *domain.Customer) error
}

type LoanStore interface {
	Create(ctx context.Context, l *domain.Loan) error
	FindByID(ctx context.Context, id int64) (*domain.Loan, error)
	// FindByIDForUpdate locks the loan row so that concurrent payments
	// on the same loan are linearized.
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error)
	List(ctx context.Context, f LoansFilter) ([]domain.Loan, error)
	MarkPaid(ctx context.Context, id int64) error
}

type InstallmentStore interface {
	CreateBatch(ctx context.Context, installments []domain.Installment) error
	ListByLoan(ctx context.Context, loanID int64) ([]domain.Installment, error)
	ListUnpaidDueBefore(ctx context.Context, loanID int64, maxDueDate time.Time) ([]domain.Installment, error)
	MarkPaid(ctx context.Context, i *domain.Installment) error
}

type Repos struct {
	Customers    CustomerStore
	Loans        LoanStore
	Installments InstallmentStore
}

func NewRepos(db DBTX) Repos {
	return Repos{
		Customers:    NewCustomerRepository(db),
		Loans:        NewLoanRepository(db),
		Installments: NewInstallmentRepository(db),
	}
}

// UnitOfWork runs a function against a transactional set of repositories:
// either everything inside fn commits, or nothing does.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}

type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(NewRepos(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
