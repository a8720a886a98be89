package handler

import (
	"errors"
	"net/http"

	"github.com/billmatic/statement-recon/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SyncHandler struct {
	svc   *service.SyncService
	store service.StatementStore
}

func NewSyncHandler(svc *service.SyncService, store service.StatementStore) *SyncHandler {
	return &SyncHandler{svc: svc, store: store}
}

// TriggerRun executes a full sync pass across all customers and returns
// the finished run record. Guarded by the idempotency middleware so a
// retried trigger replays the original outcome instead of syncing twice.
func (h *SyncHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Run(r.Context())
	if err != nil {
		zap.L().Error("sync run failed", zap.Error(err))
		if run != nil {
			RespondJSON(w, http.StatusInternalServerError, run)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "sync/run-failed", "Sync run failed")
		return
	}

	RespondJSON(w, http.StatusCreated, run)
}

// GetRun returns a previously recorded sync run.
func (h *SyncHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runIDStr := chi.URLParam(r, "id")
	runID, err := uuid.Parse(runIDStr)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-run-id", "Invalid sync run ID")
		return
	}

	run, err := h.store.GetSyncRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			RespondError(w, r, http.StatusNotFound, "sync/run-not-found", "Sync run not found")
			return
		}
		zap.L().Error("get sync run failed", zap.Error(err), zap.String("run_id", runID.String()))
		RespondError(w, r, http.StatusInternalServerError, "sync/run-read-failed", "Failed to load sync run")
		return
	}

	RespondJSON(w, http.StatusOK, run)
}
