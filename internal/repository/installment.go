package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loan-api/internal/domain"
)

type InstallmentRepository struct {
	db DBTX
}

func NewInstallmentRepository(db DBTX) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

const installmentColumns = `id, loan_id, amount, paid_amount, due_date, payment_date, is_paid`

func (r *InstallmentRepository) CreateBatch(ctx context.Context, installments []domain.Installment) error {
	if len(installments) == 0 {
		return nil
	}

	values := make([]string, 0, len(installments))
	args := make([]any, 0, len(installments)*4)
	i := 1
	for _, inst := range installments {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d)", i, i+1, i+2, i+3))
		args = append(args, inst.LoanID, inst.Amount, inst.PaidAmount, inst.DueDate)
		i += 4
	}

	query := `
		INSERT INTO loan_installments (loan_id, amount, paid_amount, due_date)
		VALUES ` + strings.Join(values, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create installments: %w", err)
	}
	return nil
}

func (r *InstallmentRepository) ListByLoan(ctx context.Context, loanID int64) ([]domain.Installment, error) {
	query := `SELECT ` + installmentColumns + `
		FROM loan_installments
		WHERE loan_id = $1
		ORDER BY due_date`
	return r.list(ctx, query, loanID)
}

func (r *InstallmentRepository) ListUnpaidDueBefore(ctx context.Context, loanID int64, maxDueDate time.Time) ([]domain.Installment, error) {
	query := `SELECT ` + installmentColumns + `
		FROM loan_installments
		WHERE loan_id = $1 AND is_paid = FALSE AND due_date <= $2
		ORDER BY due_date`
	return r.list(ctx, query, loanID, maxDueDate)
}

func (r *InstallmentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Installment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Installment
	for rows.Next() {
		var inst domain.Installment
		if err := rows.Scan(&inst.ID, &inst.LoanID, &inst.Amount, &inst.PaidAmount,
			&inst.DueDate, &inst.PaymentDate, &inst.IsPaid); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPaid persists the one-time unpaid -> paid transition of an
// installment. The guard on is_paid keeps a settled installment from
// ever being settled twice.
func (r *InstallmentRepository) MarkPaid(ctx context.Context, inst *domain.Installment) error {
	query := `
		UPDATE loan_installments
		SET paid_amount = $1, payment_date = $2, is_paid = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND is_paid = FALSE`
	res, err := r.db.ExecContext(ctx, query, inst.PaidAmount, inst.PaymentDate, inst.ID)
	if err != nil {
		return fmt.Errorf("failed to mark installment %d paid: %w", inst.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("installment %d already paid or missing", inst.ID)
	}
	return nil
}
