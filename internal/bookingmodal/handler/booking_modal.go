package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"opacbookings/internal/bookingmodal/service"
	"opacbookings/pkg/daterange"
	apperrors "opacbookings/pkg/errors"
	httputil "opacbookings/pkg/http"
	"opacbookings/pkg/logger"
	"opacbookings/pkg/model"
)

type PeriodRequest struct {
	Date daterange.Day `json:"date"`
}

type PickupLibraryRequest struct {
	LibraryID string `json:"library_id"`
}

// ItemRequest pins an item; a null item_id goes back to any item.
type ItemRequest struct {
	ItemID *int `json:"item_id"`
}

type BookingModalHandler struct {
	service service.BookingModalService
	log     *logger.Logger
}

func NewBookingModalHandler(service service.BookingModalService, log *logger.Logger) *BookingModalHandler {
	return &BookingModalHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingModalHandler) Open(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.OpenSessionRequest
	if !h.decode(w, r, "Open", &req) {
		return
	}

	view, err := h.service.Open(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Open", err)
		return
	}

	if err := httputil.WriteCreated(w, view); err != nil {
		h.log.Error("failed to write created response", "handler", "Open", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingModalHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}
	h.writeSuccess(w, "Get", view)
}

func (h *BookingModalHandler) Calendar(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	q, err := calendarQuery(r)
	if err != nil {
		h.writeError(w, "Calendar", err)
		return
	}

	view, err := h.service.Calendar(r.Context(), ps.ByName("id"), q)
	if err != nil {
		h.writeError(w, "Calendar", err)
		return
	}
	h.writeSuccess(w, "Calendar", view)
}

func calendarQuery(r *http.Request) (service.CalendarQuery, error) {
	var q service.CalendarQuery

	year, month, ok, err := httputil.QueryMonth(r, "month")
	if err != nil {
		return q, err
	}
	if ok {
		q.Year, q.Month = year, time.Month(month)
	}
	if q.From, err = httputil.QueryDay(r, "from"); err != nil {
		return q, err
	}
	if q.To, err = httputil.QueryDay(r, "to"); err != nil {
		return q, err
	}
	if q.Hover, err = httputil.QueryDay(r, "hover"); err != nil {
		return q, err
	}
	return q, nil
}

func (h *BookingModalHandler) SelectDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req PeriodRequest
	if !h.decode(w, r, "SelectDate", &req) {
		return
	}

	view, err := h.service.SelectDate(r.Context(), ps.ByName("id"), req.Date)
	if err != nil {
		h.writeError(w, "SelectDate", err)
		return
	}
	h.writeSuccess(w, "SelectDate", view)
}

func (h *BookingModalHandler) SelectPickupLibrary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req PickupLibraryRequest
	if !h.decode(w, r, "SelectPickupLibrary", &req) {
		return
	}

	view, err := h.service.SelectPickupLibrary(r.Context(), ps.ByName("id"), req.LibraryID)
	if err != nil {
		h.writeError(w, "SelectPickupLibrary", err)
		return
	}
	h.writeSuccess(w, "SelectPickupLibrary", view)
}

func (h *BookingModalHandler) SelectItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req ItemRequest
	if !h.decode(w, r, "SelectItem", &req) {
		return
	}

	view, err := h.service.SelectItem(r.Context(), ps.ByName("id"), req.ItemID)
	if err != nil {
		h.writeError(w, "SelectItem", err)
		return
	}
	h.writeSuccess(w, "SelectItem", view)
}

// Options answers the searchable dropdowns: {"data":[{"id","text"}...]}.
func (h *BookingModalHandler) Options(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	options, err := h.service.Options(r.Context(), ps.ByName("id"), ps.ByName("field"), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, "Options", err)
		return
	}

	if err := httputil.WriteList(w, options, len(options)); err != nil {
		h.log.Error("failed to write list response", "handler", "Options", "operation", "WriteList", "error", err)
	}
}

func (h *BookingModalHandler) Submit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.Submit(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Submit", err)
		return
	}
	h.writeSuccess(w, "Submit", result)
}

func (h *BookingModalHandler) Close(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Close(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Close", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *BookingModalHandler) decode(w http.ResponseWriter, r *http.Request, handler string, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeError(w, handler, apperrors.InvalidInput("Invalid request body"))
		return false
	}
	return true
}

func (h *BookingModalHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingModalHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingModalHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/booking-sessions", h.Open)
	router.GET("/api/v1/booking-sessions/:id", h.Get)
	router.GET("/api/v1/booking-sessions/:id/calendar", h.Calendar)
	router.PUT("/api/v1/booking-sessions/:id/period", h.SelectDate)
	router.PUT("/api/v1/booking-sessions/:id/pickup-library", h.SelectPickupLibrary)
	router.PUT("/api/v1/booking-sessions/:id/item", h.SelectItem)
	router.GET("/api/v1/booking-sessions/:id/options/:field", h.Options)
	router.POST("/api/v1/booking-sessions/:id/submit", h.Submit)
	router.DELETE("/api/v1/booking-sessions/:id", h.Close)
}
