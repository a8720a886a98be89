package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/billmatic/statement-recon/internal/models"
	"github.com/billmatic/statement-recon/internal/observability"
	"github.com/billmatic/statement-recon/internal/service"
	"github.com/billmatic/statement-recon/internal/statement"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type StatementHandler struct {
	svc *service.StatementService
}

func NewStatementHandler(svc *service.StatementService) *StatementHandler {
	return &StatementHandler{svc: svc}
}

func (h *StatementHandler) buildStatement(w http.ResponseWriter, r *http.Request) (*models.Statement, bool) {
	customerIDStr := chi.URLParam(r, "id")
	customerID, err := uuid.Parse(customerIDStr)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-customer-id", "Invalid customer ID")
		return nil, false
	}

	st, err := h.svc.BuildStatement(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			RespondError(w, r, http.StatusNotFound, "customer/not-found", "Customer not found")
			return nil, false
		}
		zap.L().Error("build statement failed", zap.Error(err), zap.String("customer_id", customerID.String()))
		RespondError(w, r, http.StatusInternalServerError, "statement/build-failed", "Failed to build statement")
		return nil, false
	}
	return st, true
}

// GetStatement returns the statement as JSON.
func (h *StatementHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	st, ok := h.buildStatement(w, r)
	if !ok {
		return
	}
	observability.IncrementStatementGenerated("json")
	RespondJSON(w, http.StatusOK, st)
}

// GetStatementHTML returns the rendered HTML statement document.
func (h *StatementHandler) GetStatementHTML(w http.ResponseWriter, r *http.Request) {
	st, ok := h.buildStatement(w, r)
	if !ok {
		return
	}

	html, err := statement.RenderHTML(*st)
	if err != nil {
		zap.L().Error("render statement html failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "statement/render-failed", "Failed to render statement")
		return
	}

	observability.IncrementStatementGenerated("html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

// GetStatementXLSX returns the statement as a downloadable workbook.
func (h *StatementHandler) GetStatementXLSX(w http.ResponseWriter, r *http.Request) {
	st, ok := h.buildStatement(w, r)
	if !ok {
		return
	}

	data, err := statement.ExportXLSX(*st)
	if err != nil {
		zap.L().Error("export statement xlsx failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "statement/export-failed", "Failed to export statement")
		return
	}

	filename := fmt.Sprintf("statement-%s-%s.xlsx", st.Customer.Username, st.GeneratedAt.Format("2006-01"))
	observability.IncrementStatementGenerated("xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type generatedStatement struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	Username     string          `json:"username"`
	Company      string          `json:"company,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
	PastDueTotal decimal.Decimal `json:"past_due_total"`
	Subject      string          `json:"subject"`
}

// GenerateStatements builds statements for every customer with an open
// balance and returns a per-customer summary.
func (h *StatementHandler) GenerateStatements(w http.ResponseWriter, r *http.Request) {
	statements, err := h.svc.GenerateStatements(r.Context())
	if err != nil {
		zap.L().Error("generate statements failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "statement/generate-failed", "Failed to generate statements")
		return
	}

	out := make([]generatedStatement, 0, len(statements))
	for _, st := range statements {
		observability.IncrementStatementGenerated("batch")
		out = append(out, generatedStatement{
			CustomerID:   st.Customer.ID,
			Username:     st.Customer.Username,
			Company:      st.Customer.Company,
			Balance:      st.Balance,
			PastDueTotal: st.PastDueTotal,
			Subject:      statement.Subject(st),
		})
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(out),
		"statements": out,
	})
}
