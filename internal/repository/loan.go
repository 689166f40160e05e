package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"loan-api/internal/domain"
)

type LoansFilter struct {
	CustomerID           int64
	NumberOfInstallments *int
	IsPaid               *bool
}

type LoanRepository struct {
	db DBTX
}

func NewLoanRepository(db DBTX) *LoanRepository {
	return &LoanRepository{db: db}
}

const loanColumns = `id, customer_id, loan_amount, interest_rate, number_of_installments, created_at, is_paid`

func (r *LoanRepository) Create(ctx context.Context, l *domain.Loan) error {
	query := `
		INSERT INTO loans (customer_id, loan_amount, interest_rate, number_of_installments, created_at, is_paid)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		l.CustomerID, l.LoanAmount, l.InterestRate, l.NumberOfInstallments, l.CreatedAt, l.IsPaid).
		Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, id int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *LoanRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

func (r *LoanRepository) scanOne(ctx context.Context, query string, id int64) (*domain.Loan, error) {
	l := &domain.Loan{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&l.ID, &l.CustomerID, &l.LoanAmount, &l.InterestRate, &l.NumberOfInstallments, &l.CreatedAt, &l.IsPaid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan %d: %w", id, err)
	}
	return l, nil
}

func (r *LoanRepository) List(ctx context.Context, f LoansFilter) ([]domain.Loan, error) {
	base := `SELECT ` + loanColumns + ` FROM loans`

	where := []string{"customer_id = $1"}
	args := []any{f.CustomerID}
	i := 2

	if f.NumberOfInstallments != nil {
		where = append(where, fmt.Sprintf("number_of_installments = $%d", i))
		args = append(args, *f.NumberOfInstallments)
		i++
	}
	if f.IsPaid != nil {
		where = append(where, fmt.Sprintf("is_paid = $%d", i))
		args = append(args, *f.IsPaid)
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Loan
	for rows.Next() {
		var l domain.Loan
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.LoanAmount, &l.InterestRate,
			&l.NumberOfInstallments, &l.CreatedAt, &l.IsPaid); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) MarkPaid(ctx context.Context, id int64) error {
	query := `UPDATE loans SET is_paid = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark loan %d paid: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}
