package handler

import (
	"net/http"
	"strconv"

	"tablereserve/internal/reservations/service"
	"tablereserve/pkg/auth"
	apperrors "tablereserve/pkg/errors"
	httputil "tablereserve/pkg/http"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/middleware"
	"tablereserve/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service      service.ReservationService
	availability service.AvailabilityService
	log          *logger.Logger
}

func NewReservationHandler(service service.ReservationService, availability service.AvailabilityService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service:      service,
		availability: availability,
		log:          log,
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReservationHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) writeList(w http.ResponseWriter, handler string, data any, count int) {
	if err := httputil.WriteList(w, data, count); err != nil {
		h.log.Error("failed to write list response", "handler", handler, "operation", "WriteList", "error", err)
	}
}

func caller(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CreateReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	reservation, err := h.service.Create(r.Context(), caller(r), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	h.writeSuccess(w, "Create", reservation)
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), caller(r), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeSuccess(w, "GetByID", reservation)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	reservations, total, err := h.service.List(r.Context(), caller(r), ps.ByName("id"), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	h.writeList(w, "List", reservations, int(total))
}

func (h *ReservationHandler) ListByUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByUser", err)
		return
	}

	reservations, total, err := h.service.ListByUser(r.Context(), caller(r), ps.ByName("id"), limit, offset)
	if err != nil {
		h.writeError(w, "ListByUser", err)
		return
	}

	h.writeList(w, "ListByUser", reservations, int(total))
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.UpdateReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	reservation, err := h.service.Update(r.Context(), caller(r), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	h.writeSuccess(w, "Update", reservation)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.Cancel(r.Context(), caller(r), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	h.writeSuccess(w, "Cancel", reservation)
}

func (h *ReservationHandler) MarkIncomplete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.MarkIncomplete(r.Context(), caller(r), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "MarkIncomplete", err)
		return
	}

	h.writeSuccess(w, "MarkIncomplete", reservation)
}

func (h *ReservationHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.Complete(r.Context(), caller(r), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Complete", err)
		return
	}

	h.writeSuccess(w, "Complete", result)
}

func (h *ReservationHandler) Settle(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.Settle(r.Context(), caller(r), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Settle", err)
		return
	}

	h.writeSuccess(w, "Settle", result)
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), caller(r), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteEmpty(w); err != nil {
		h.log.Error("failed to write empty response", "handler", "Delete", "operation", "WriteEmpty", "error", err)
	}
}

// CheckAvailability takes the query as a JSON body.
func (h *ReservationHandler) CheckAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var query model.AvailabilityQuery
	if err := httputil.DecodeJSON(r, &query); err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}
	h.writeSlots(w, r, "CheckAvailability", ps.ByName("id"), &query)
}

// AvailableTables takes the query from ?date=&duration=&partySize=.
func (h *ReservationHandler) AvailableTables(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	q := r.URL.Query()
	query := model.AvailabilityQuery{Date: q.Get("date")}

	for name, dst := range map[string]*int{"duration": &query.Duration, "partySize": &query.PartySize} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, "AvailableTables", apperrors.InvalidInput("invalid "+name+" parameter: "+raw))
			return
		}
		*dst = v
	}
	h.writeSlots(w, r, "AvailableTables", ps.ByName("id"), &query)
}

func (h *ReservationHandler) writeSlots(w http.ResponseWriter, r *http.Request, handler, restaurantID string, query *model.AvailabilityQuery) {
	slots, err := h.availability.AvailableSlots(r.Context(), restaurantID, query)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	if len(slots) == 0 {
		if err := httputil.WriteUnsuccessful(w, http.StatusOK, service.NoTablesMessage); err != nil {
			h.log.Error("failed to write unsuccessful response", "handler", handler, "operation", "WriteUnsuccessful", "error", err)
		}
		return
	}

	h.writeSuccess(w, handler, slots)
}

func (h *ReservationHandler) TableStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	status, err := h.availability.TableStatus(r.Context(), ps.ByName("id"), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, "TableStatus", err)
		return
	}

	h.writeSuccess(w, "TableStatus", status)
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/reservations", middleware.RequireAuth(h.List))
	router.GET("/api/v1/reservations/id/:id", middleware.RequireAuth(h.GetByID))
	router.PUT("/api/v1/reservations/id/:id", middleware.RequireAuth(h.Update))
	router.DELETE("/api/v1/reservations/id/:id", middleware.RequireAuth(h.Delete))
	router.GET("/api/v1/reservations/user/:id", middleware.RequireRole(h.ListByUser, auth.RoleAdmin))
	router.PUT("/api/v1/reservations/cancel/:id", middleware.RequireAuth(h.Cancel))
	router.PUT("/api/v1/reservations/incomplete/:id", middleware.RequireRole(h.MarkIncomplete, auth.RoleAdmin))
	router.PUT("/api/v1/reservations/complete/:id", middleware.RequireRole(h.Complete, auth.RoleAdmin))
	router.PUT("/api/v1/reservations/settle/:id", middleware.RequireRole(h.Settle, auth.RoleAdmin))

	router.GET("/api/v1/restaurants/id/:id/reservations", middleware.RequireAuth(h.List))
	router.POST("/api/v1/restaurants/id/:id/reservations", middleware.RequireAuth(h.Create))
	router.POST("/api/v1/restaurants/id/:id/check-availability", middleware.RequireAuth(h.CheckAvailability))
	router.GET("/api/v1/restaurants/id/:id/available-tables", middleware.RequireAuth(h.AvailableTables))
	router.GET("/api/v1/restaurants/id/:id/table-status", middleware.RequireRole(h.TableStatus, auth.RoleAdmin))
}
