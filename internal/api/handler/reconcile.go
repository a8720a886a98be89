package handler

import (
	"errors"
	"net/http"

	"github.com/billmatic/statement-recon/internal/gateway"
	"github.com/billmatic/statement-recon/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReconcileHandler struct {
	svc *service.ReconcileService
}

func NewReconcileHandler(svc *service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{svc: svc}
}

// ReconcileOrder fetches one order from the order platform, reconciles it
// against the ledger and returns the persisted statement row.
func (h *ReconcileHandler) ReconcileOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-order-id", "Order ID is required")
		return
	}

	row, err := h.svc.ReconcileOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, gateway.ErrOrderNotFound) {
			RespondError(w, r, http.StatusNotFound, "order/not-found", "Order not found on the order platform")
			return
		}
		if status, pType, msg, ok := mapDBError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("reconcile order failed", zap.Error(err), zap.String("order_id", orderID))
		RespondError(w, r, http.StatusInternalServerError, "reconcile/failed", "Failed to reconcile order")
		return
	}

	RespondJSON(w, http.StatusOK, row)
}
