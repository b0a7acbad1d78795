package handler

import (
	"net/http"

	"tablereserve/internal/points/service"
	"tablereserve/pkg/auth"
	httputil "tablereserve/pkg/http"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type PointTransactionHandler struct {
	service service.SettlementService
	log     *logger.Logger
}

func NewPointTransactionHandler(service service.SettlementService, log *logger.Logger) *PointTransactionHandler {
	return &PointTransactionHandler{service: service, log: log}
}

func (h *PointTransactionHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	caller, _ := auth.FromContext(r.Context())
	transactions, total, err := h.service.ListTransactions(r.Context(), caller, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteList(w, transactions, int(total)); err != nil {
		h.log.Error("failed to write list response", "handler", "List", "operation", "WriteList", "error", err)
	}
}

func (h *PointTransactionHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
	}
}

func (h *PointTransactionHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/point-transactions", middleware.RequireAuth(h.List))
}
