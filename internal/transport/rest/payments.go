package rest

import (
	"errors"
	"net/http"
)

func (h *Handler) payLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.authorizedLoanID(w, r)
	if !ok {
		return
	}

	req, err := ValidatePayLoanRequest(r)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			ErrorBadRequest(w, vErr.Message)
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	result, err := h.payments.PayLoan(r.Context(), loanID, req.Amount, req.PaymentDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	Success(w, "Payment applied", result)
}
