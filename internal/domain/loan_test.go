package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTotalPayable(t *testing.T) {
	got := TotalPayable(decimal.RequireFromString("1000"), decimal.RequireFromString("0.2"))
	want := decimal.RequireFromString("1200")
	if !got.Equal(want) {
		t.Fatalf("TotalPayable = %s, want %s", got, want)
	}
}

func TestIsValidInstallmentCount(t *testing.T) {
	for _, n := range ValidInstallmentCounts {
		if !IsValidInstallmentCount(n) {
			t.Errorf("count %d should be valid", n)
		}
	}
	for _, n := range []int{0, 1, 3, 7, 10, 18, 36} {
		if IsValidInstallmentCount(n) {
			t.Errorf("count %d should be invalid", n)
		}
	}
}

func TestIsValidInterestRate(t *testing.T) {
	cases := []struct {
		rate  string
		valid bool
	}{
		{"0.1", true},
		{"0.25", true},
		{"0.5", true},
		{"0.09", false},
		{"0.51", false},
		{"0", false},
		{"-0.1", false},
	}
	for _, c := range cases {
		if got := IsValidInterestRate(decimal.RequireFromString(c.rate)); got != c.valid {
			t.Errorf("IsValidInterestRate(%s) = %v, want %v", c.rate, got, c.valid)
		}
	}
}

func TestAvailableCredit(t *testing.T) {
	c := Customer{
		CreditLimit:     decimal.RequireFromString("10000"),
		UsedCreditLimit: decimal.RequireFromString("2500.50"),
	}
	want := decimal.RequireFromString("7499.50")
	if got := c.AvailableCredit(); !got.Equal(want) {
		t.Fatalf("AvailableCredit = %s, want %s", got, want)
	}
}
