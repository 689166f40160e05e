package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-api/internal/domain"
	"loan-api/internal/repository"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newLoanServiceAt(env *testEnv, createdAt time.Time) *LoanService {
	svc := NewLoanService(env.uow, env.repos, env.cache)
	svc.now = func() time.Time { return createdAt }
	return svc
}

func seedCustomer(env *testEnv, id int64, limit, used string) {
	env.customers.customers[id] = &domain.Customer{
		ID:              id,
		Name:            "Ada",
		Surname:         "Lovelace",
		CreditLimit:     dec(limit),
		UsedCreditLimit: dec(used),
	}
}

func TestCreateLoanReservesCreditAndBuildsSchedule(t *testing.T) {
	env := newTestEnv()
	seedCustomer(env, 1, "100000", "0")
	createdAt := time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)
	svc := newLoanServiceAt(env, createdAt)

	loan, err := svc.CreateLoan(context.Background(), 1, dec("10000"), dec("0.2"), 12)
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	if loan.ID == 0 {
		t.Fatal("loan id not assigned")
	}

	// 10000 * 1.2 reserved against the credit line.
	c := env.customers.customers[1]
	if !c.UsedCreditLimit.Equal(dec("12000")) {
		t.Fatalf("used credit = %s, want 12000", c.UsedCreditLimit)
	}

	installments, err := env.installments.ListByLoan(context.Background(), loan.ID)
	if err != nil {
		t.Fatalf("ListByLoan: %v", err)
	}
	if len(installments) != 12 {
		t.Fatalf("installments = %d, want 12", len(installments))
	}

	// 12000 / 12 = 1000 each, due on the first of each month starting
	// the month after creation.
	wantDue := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	for i, inst := range installments {
		if !inst.Amount.Equal(dec("1000")) {
			t.Errorf("installment %d amount = %s, want 1000", i, inst.Amount)
		}
		if !inst.DueDate.Equal(wantDue) {
			t.Errorf("installment %d due = %s, want %s", i, inst.DueDate, wantDue)
		}
		if inst.IsPaid {
			t.Errorf("installment %d created as paid", i)
		}
		wantDue = wantDue.AddDate(0, 1, 0)
	}
}

func TestCreateLoanRoundsWithoutRedistribution(t *testing.T) {
	env := newTestEnv()
	seedCustomer(env, 1, "100000", "0")
	svc := newLoanServiceAt(env, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC))

	// 1000 * 1.1 = 1100, 1100/6 = 183.333... -> 183.33 each.
	loan, err := svc.CreateLoan(context.Background(), 1, dec("1000"), dec("0.1"), 6)
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	installments, _ := env.installments.ListByLoan(context.Background(), loan.ID)
	sum := decimal.Zero
	for _, inst := range installments {
		if !inst.Amount.Equal(dec("183.33")) {
			t.Fatalf("installment amount = %s, want 183.33", inst.Amount)
		}
		sum = sum.Add(inst.Amount)
	}
	// The scheduled sum is allowed to drift from the total by rounding,
	// at most half a cent per installment.
	drift := sum.Sub(dec("1100")).Abs()
	if drift.Cmp(dec("0.03")) > 0 {
		t.Fatalf("schedule drift = %s, want <= 0.03", drift)
	}
}

func TestCreateLoanInsufficientCredit(t *testing.T) {
	env := newTestEnv()
	seedCustomer(env, 1, "1000", "500")
	svc := newLoanServiceAt(env, time.Now())

	// 600 * 1.1 = 660 > 500 available.
	_, err := svc.CreateLoan(context.Background(), 1, dec("600"), dec("0.1"), 6)
	if !errors.Is(err, domain.ErrInsufficientCredit) {
		t.Fatalf("err = %v, want ErrInsufficientCredit", err)
	}
	if !env.customers.customers[1].UsedCreditLimit.Equal(dec("500")) {
		t.Fatalf("used credit changed on failed creation")
	}
	if len(env.loans.loans) != 0 {
		t.Fatal("loan persisted despite insufficient credit")
	}
}

func TestCreateLoanUnknownCustomer(t *testing.T) {
	env := newTestEnv()
	svc := newLoanServiceAt(env, time.Now())

	_, err := svc.CreateLoan(context.Background(), 42, dec("1000"), dec("0.1"), 6)
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("err = %v, want ErrCustomerNotFound", err)
	}
}

func TestCreateLoanRejectsBadParameters(t *testing.T) {
	env := newTestEnv()
	seedCustomer(env, 1, "100000", "0")
	svc := newLoanServiceAt(env, time.Now())

	if _, err := svc.CreateLoan(context.Background(), 1, dec("0"), dec("0.1"), 6); err == nil {
		t.Error("zero amount accepted")
	}
	if _, err := svc.CreateLoan(context.Background(), 1, dec("1000"), dec("0.05"), 6); err == nil {
		t.Error("interest rate below minimum accepted")
	}
	if _, err := svc.CreateLoan(context.Background(), 1, dec("1000"), dec("0.6"), 6); err == nil {
		t.Error("interest rate above maximum accepted")
	}
	if _, err := svc.CreateLoan(context.Background(), 1, dec("1000"), dec("0.1"), 7); err == nil {
		t.Error("invalid installment count accepted")
	}
}

func TestListLoansFilters(t *testing.T) {
	env := newTestEnv()
	seedCustomer(env, 1, "1000000", "0")
	svc := newLoanServiceAt(env, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))

	if _, err := svc.CreateLoan(context.Background(), 1, dec("1000"), dec("0.1"), 6); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	if _, err := svc.CreateLoan(context.Background(), 1, dec("2000"), dec("0.1"), 12); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	n := 12
	loans, err := svc.ListLoans(context.Background(), repository.LoansFilter{CustomerID: 1, NumberOfInstallments: &n})
	if err != nil {
		t.Fatalf("ListLoans: %v", err)
	}
	if len(loans) != 1 || loans[0].NumberOfInstallments != 12 {
		t.Fatalf("filtered listing = %+v, want one 12-installment loan", loans)
	}

	paid := true
	loans, err = svc.ListLoans(context.Background(), repository.LoansFilter{CustomerID: 1, IsPaid: &paid})
	if err != nil {
		t.Fatalf("ListLoans: %v", err)
	}
	if len(loans) != 0 {
		t.Fatalf("paid filter returned %d loans, want 0", len(loans))
	}
}

func TestListLoansUsesCache(t *testing.T) {
	env := newTestEnv()
	seedCustomer(env, 1, "1000000", "0")
	svc := newLoanServiceAt(env, time.Now())

	if _, err := svc.CreateLoan(context.Background(), 1, dec("1000"), dec("0.1"), 6); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	// First unfiltered listing populates the cache.
	first, err := svc.ListLoans(context.Background(), repository.LoansFilter{CustomerID: 1})
	if err != nil {
		t.Fatalf("ListLoans: %v", err)
	}
	if _, ok := env.cache.values[loansCacheKey(1)]; !ok {
		t.Fatal("unfiltered listing not cached")
	}

	// Mutate the store behind the cache; the cached listing should win.
	env.loans.loans[first[0].ID].IsPaid = true
	second, err := svc.ListLoans(context.Background(), repository.LoansFilter{CustomerID: 1})
	if err != nil {
		t.Fatalf("ListLoans: %v", err)
	}
	if second[0].IsPaid {
		t.Fatal("listing bypassed the cache")
	}
}

func TestListInstallmentsUnknownLoan(t *testing.T) {
	env := newTestEnv()
	svc := newLoanServiceAt(env, time.Now())

	_, err := svc.ListInstallments(context.Background(), 99)
	if !errors.Is(err, domain.ErrLoanNotFound) {
		t.Fatalf("err = %v, want ErrLoanNotFound", err)
	}
}
