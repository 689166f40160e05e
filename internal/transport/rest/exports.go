package rest

import (
	"log"
	"net/http"
	"strings"

	"loan-api/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) exportStatement(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.authorizedLoanID(w, r)
	if !ok {
		return
	}

	customerID, err := auth.GetCustomerID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exportID, err := h.statements.StartStatementExport(r.Context(), loanID, customerID)
	if err != nil {
		log.Printf("[HTTP] startStatementExport error: %v", err)
		writeDomainError(w, err)
		return
	}

	SuccessAccepted(w, "Statement export queued", map[string]interface{}{"export_id": exportID})
}

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	customerID, err := auth.GetCustomerID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exports, err := h.statements.GetExports(r.Context(), customerID)
	if err != nil {
		log.Printf("[HTTP] listExports error: %v", err)
		ErrorInternal(w, "failed to get exports")
		return
	}

	Success(w, "", exports)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	customerID, err := auth.GetCustomerID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exportIDParam := chi.URLParam(r, "export_id")
	if exportIDParam == "" {
		ErrorBadRequest(w, "export_id is required")
		return
	}
	// Accepts both the bare id handed out on creation and the full key
	// as listed.
	exportID := exportIDParam
	if !strings.HasPrefix(exportID, "exports:") {
		exportID = "exports:" + exportID
	}

	export, err := h.statements.GetExport(r.Context(), exportID, customerID)
	if err != nil {
		log.Printf("[HTTP] getExport error: %v", err)
		ErrorNotFound(w, "export not found")
		return
	}

	Success(w, "", export)
}
