package rest

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"loan-api/internal/domain"
	"loan-api/internal/repository"
	"loan-api/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) createLoan(w http.ResponseWriter, r *http.Request) {
	// loan origination is an admin operation
	if !auth.IsAdmin(r.Context()) {
		ErrorForbidden(w, "Forbidden")
		return
	}

	req, err := ValidateLoanRequest(r)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			ErrorBadRequest(w, vErr.Message)
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	loan, err := h.loans.CreateLoan(r.Context(), req.CustomerID, req.Amount, req.Interest, req.NumberOfInstallments)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	SuccessAccepted(w, "Loan created", loan)
}

func (h *Handler) listLoans(w http.ResponseWriter, r *http.Request) {
	callerID, err := auth.GetCustomerID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	customerID := callerID
	if param := r.URL.Query().Get("customer_id"); param != "" {
		parsed, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			ErrorBadRequest(w, "customer_id must be an integer")
			return
		}
		if parsed != callerID && !auth.IsAdmin(r.Context()) {
			ErrorForbidden(w, "Forbidden")
			return
		}
		customerID = parsed
	}

	filter := repository.LoansFilter{CustomerID: customerID}
	if param := r.URL.Query().Get("number_of_installments"); param != "" {
		n, err := strconv.Atoi(param)
		if err != nil {
			ErrorBadRequest(w, "number_of_installments must be an integer")
			return
		}
		filter.NumberOfInstallments = &n
	}
	if param := r.URL.Query().Get("is_paid"); param != "" {
		paid, err := strconv.ParseBool(param)
		if err != nil {
			ErrorBadRequest(w, "is_paid must be a boolean")
			return
		}
		filter.IsPaid = &paid
	}

	loans, err := h.loans.ListLoans(r.Context(), filter)
	if err != nil {
		log.Printf("[HTTP] listLoans error: %v", err)
		ErrorInternal(w, "failed to list loans")
		return
	}

	Success(w, "", loans)
}

func (h *Handler) listInstallments(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.authorizedLoanID(w, r)
	if !ok {
		return
	}

	installments, err := h.loans.ListInstallments(r.Context(), loanID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	Success(w, "", installments)
}

// authorizedLoanID parses {loan_id} and checks the caller may act on
// that loan: admins always, customers only on their own. Writes the
// error response itself when the check fails.
func (h *Handler) authorizedLoanID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	loanID, err := strconv.ParseInt(chi.URLParam(r, "loan_id"), 10, 64)
	if err != nil {
		ErrorBadRequest(w, "loan_id must be an integer")
		return 0, false
	}

	callerID, err := auth.GetCustomerID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return 0, false
	}

	if !auth.IsAdmin(r.Context()) {
		loan, err := h.loans.GetLoan(r.Context(), loanID)
		if err != nil {
			writeDomainError(w, err)
			return 0, false
		}
		if loan.CustomerID != callerID {
			ErrorForbidden(w, "Forbidden")
			return 0, false
		}
	}

	return loanID, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound), errors.Is(err, domain.ErrLoanNotFound):
		ErrorNotFound(w, err.Error())
	case errors.Is(err, domain.ErrInsufficientCredit),
		errors.Is(err, domain.ErrNoPayableInstallments),
		errors.Is(err, domain.ErrInsufficientPayment):
		ErrorUnprocessable(w, err.Error())
	default:
		log.Printf("[HTTP] internal error: %v", err)
		ErrorInternal(w, "internal error")
	}
}
