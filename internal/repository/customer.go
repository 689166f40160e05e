package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"loan-api/internal/domain"
)

type CustomerRepository struct {
	db DBTX
}

func NewCustomerRepository(db DBTX) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, name, surname, credit_limit, used_credit_limit`

func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *CustomerRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

func (r *CustomerRepository) scanOne(ctx context.Context, query string, id int64) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.Surname, &c.CreditLimit, &c.UsedCreditLimit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer %d: %w", id, err)
	}
	return c, nil
}

func (r *CustomerRepository) UpdateUsedCredit(ctx context.Context, c *domain.Customer) error {
	query := `UPDATE customers SET used_credit_limit = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, c.UsedCreditLimit, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update customer %d: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}
