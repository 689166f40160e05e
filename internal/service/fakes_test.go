package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"loan-api/internal/domain"
	"loan-api/internal/repository"
)

// In-memory stores backing the service tests. They keep the same
// not-found semantics as the SQL repositories.

type memCustomerStore struct {
	customers map[int64]*domain.Customer
}

func (s *memCustomerStore) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memCustomerStore) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.FindByID(ctx, id)
}

func (s *memCustomerStore) UpdateUsedCredit(ctx context.Context, c *domain.Customer) error {
	stored, ok := s.customers[c.ID]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	stored.UsedCreditLimit = c.UsedCreditLimit
	return nil
}

type memLoanStore struct {
	loans  map[int64]*domain.Loan
	nextID int64
}

func (s *memLoanStore) Create(ctx context.Context, l *domain.Loan) error {
	s.nextID++
	l.ID = s.nextID
	cp := *l
	s.loans[l.ID] = &cp
	return nil
}

func (s *memLoanStore) FindByID(ctx context.Context, id int64) (*domain.Loan, error) {
	l, ok := s.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *memLoanStore) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error) {
	return s.FindByID(ctx, id)
}

func (s *memLoanStore) List(ctx context.Context, f repository.LoansFilter) ([]domain.Loan, error) {
	var out []domain.Loan
	for _, l := range s.loans {
		if l.CustomerID != f.CustomerID {
			continue
		}
		if f.NumberOfInstallments != nil && l.NumberOfInstallments != *f.NumberOfInstallments {
			continue
		}
		if f.IsPaid != nil && l.IsPaid != *f.IsPaid {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memLoanStore) MarkPaid(ctx context.Context, id int64) error {
	l, ok := s.loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	l.IsPaid = true
	return nil
}

type memInstallmentStore struct {
	installments map[int64]*domain.Installment
	nextID       int64
}

func (s *memInstallmentStore) CreateBatch(ctx context.Context, installments []domain.Installment) error {
	for _, inst := range installments {
		s.nextID++
		inst.ID = s.nextID
		cp := inst
		s.installments[inst.ID] = &cp
	}
	return nil
}

func (s *memInstallmentStore) ListByLoan(ctx context.Context, loanID int64) ([]domain.Installment, error) {
	var out []domain.Installment
	for _, inst := range s.installments {
		if inst.LoanID == loanID {
			out = append(out, *inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *memInstallmentStore) ListUnpaidDueBefore(ctx context.Context, loanID int64, maxDueDate time.Time) ([]domain.Installment, error) {
	var out []domain.Installment
	for _, inst := range s.installments {
		if inst.LoanID == loanID && !inst.IsPaid && !inst.DueDate.After(maxDueDate) {
			out = append(out, *inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *memInstallmentStore) MarkPaid(ctx context.Context, i *domain.Installment) error {
	stored, ok := s.installments[i.ID]
	if !ok {
		return domain.ErrLoanNotFound
	}
	stored.PaidAmount = i.PaidAmount
	stored.PaymentDate = i.PaymentDate
	stored.IsPaid = true
	return nil
}

// memUnitOfWork hands the shared in-memory stores to fn. There is no
// rollback; tests that exercise failure paths assert on errors, not on
// store state after a failed call.
type memUnitOfWork struct {
	repos repository.Repos
}

func (m *memUnitOfWork) WithinTx(ctx context.Context, fn func(r repository.Repos) error) error {
	return fn(m.repos)
}

// memCache is safe for concurrent use like the redis client it stands
// in for; the statement export writes to it from a goroutine.
type memCache struct {
	mu     sync.Mutex
	values map[string]string
	sets   map[string][]any
}

func newMemCache() *memCache {
	return &memCache{values: map[string]string{}, sets: map[string][]any{}}
}

var errCacheMiss = errors.New("cache miss")

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", errCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s, ok := value.(string)
	if !ok {
		s = ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = s
	return nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *memCache) SAdd(ctx context.Context, key string, members ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[key] = append(c.sets[key], members...)
	return nil
}

func (c *memCache) SMembers(ctx context.Context, key string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.sets[key] {
		if s, ok := m.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type testEnv struct {
	customers    *memCustomerStore
	loans        *memLoanStore
	installments *memInstallmentStore
	repos        repository.Repos
	uow          *memUnitOfWork
	cache        *memCache
}

func newTestEnv() *testEnv {
	customers := &memCustomerStore{customers: map[int64]*domain.Customer{}}
	loans := &memLoanStore{loans: map[int64]*domain.Loan{}}
	installments := &memInstallmentStore{installments: map[int64]*domain.Installment{}}
	repos := repository.Repos{
		Customers:    customers,
		Loans:        loans,
		Installments: installments,
	}
	return &testEnv{
		customers:    customers,
		loans:        loans,
		installments: installments,
		repos:        repos,
		uow:          &memUnitOfWork{repos: repos},
		cache:        newMemCache(),
	}
}
