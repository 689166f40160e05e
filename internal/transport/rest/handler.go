package rest

import (
	"context"
	"net/http"
	"time"

	"loan-api/internal/domain"
	"loan-api/internal/repository"
	"loan-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

type LoanOriginator interface {
	CreateLoan(ctx context.Context, customerID int64, amount, interestRate decimal.Decimal, numberOfInstallments int) (*domain.Loan, error)
	GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error)
	ListLoans(ctx context.Context, f repository.LoansFilter) ([]domain.Loan, error)
	ListInstallments(ctx context.Context, loanID int64) ([]domain.Installment, error)
}

type PaymentAllocator interface {
	PayLoan(ctx context.Context, loanID int64, amount decimal.Decimal, paymentDate time.Time) (*service.PaymentResult, error)
}

type StatementExporter interface {
	StartStatementExport(ctx context.Context, loanID, customerID int64) (string, error)
	GetExports(ctx context.Context, customerID int64) ([]service.ExportStatus, error)
	GetExport(ctx context.Context, exportID string, customerID int64) (*service.ExportStatus, error)
}

type Handler struct {
	loans      LoanOriginator
	payments   PaymentAllocator
	statements StatementExporter
}

func NewHandler(loans LoanOriginator, payments PaymentAllocator, statements StatementExporter) *Handler {
	return &Handler{
		loans:      loans,
		payments:   payments,
		statements: statements,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Route("/loan", func(r chi.Router) {
		r.Post("/", h.createLoan)
		r.Get("/", h.listLoans)
		r.Get("/installments/{loan_id}", h.listInstallments)
		r.Post("/pay/{loan_id}", h.payLoan)
	})

	r.Route("/export", func(r chi.Router) {
		r.Get("/", h.listExports)
		r.Get("/{export_id}", h.getExport)
		r.Post("/statement/{loan_id}", h.exportStatement)
	})

	return r
}
