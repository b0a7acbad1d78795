package handler

import (
	"net/http"

	"tablereserve/internal/restaurants/service"
	"tablereserve/pkg/auth"
	httputil "tablereserve/pkg/http"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/middleware"
	"tablereserve/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RestaurantHandler struct {
	service service.RestaurantService
	log     *logger.Logger
}

func NewRestaurantHandler(service service.RestaurantService, log *logger.Logger) *RestaurantHandler {
	return &RestaurantHandler{service: service, log: log}
}

func (h *RestaurantHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var restaurant model.Restaurant
	if err := httputil.DecodeJSON(r, &restaurant); err != nil {
		h.writeError(w, "Create", err)
		return
	}
	restaurant.ID = ""

	if err := h.service.Create(r.Context(), &restaurant); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, restaurant); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RestaurantHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	restaurant, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, restaurant); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RestaurantHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	restaurants, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WriteList(w, restaurants, int(total)); err != nil {
		h.log.Error("failed to write list response", "handler", "GetAll", "operation", "WriteList", "error", err)
	}
}

func (h *RestaurantHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.RestaurantUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	restaurant, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, restaurant); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RestaurantHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteEmpty(w); err != nil {
		h.log.Error("failed to write empty response", "handler", "Delete", "operation", "WriteEmpty", "error", err)
	}
}

func (h *RestaurantHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// RegisterRoutes exposes reads publicly and keeps writes to administrators.
func (h *RestaurantHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/restaurants", h.GetAll)
	router.POST("/api/v1/restaurants", middleware.RequireRole(h.Create, auth.RoleAdmin))
	router.GET("/api/v1/restaurants/id/:id", h.GetByID)
	router.PUT("/api/v1/restaurants/id/:id", middleware.RequireRole(h.Update, auth.RoleAdmin))
	router.DELETE("/api/v1/restaurants/id/:id", middleware.RequireRole(h.Delete, auth.RoleAdmin))
}
