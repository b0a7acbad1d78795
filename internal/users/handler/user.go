package handler

import (
	"net/http"

	"tablereserve/internal/users/service"
	"tablereserve/pkg/auth"
	httputil "tablereserve/pkg/http"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

func (h *UserHandler) GetPoints(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, _ := auth.FromContext(r.Context())

	points, err := h.service.GetPoints(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetPoints", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, points); err != nil {
		h.log.Error("failed to write success response", "handler", "GetPoints", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/users/id/:id/points", middleware.RequireAuth(h.GetPoints))
}
