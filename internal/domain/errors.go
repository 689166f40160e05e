package domain

import "errors"

var (
	ErrCustomerNotFound = errors.New("customer not found")

	ErrInsufficientCredit = errors.New("customer does not have enough credit limit")

	ErrLoanNotFound = errors.New("loan not found")

	ErrNoPayableInstallments = errors.New("no unpaid installments due within the next 3 months")

	ErrInsufficientPayment = errors.New("payment amount does not cover a single installment")
)
