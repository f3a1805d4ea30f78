package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"opacbookings/internal/bookingstable/service"
	apperrors "opacbookings/pkg/errors"
	httputil "opacbookings/pkg/http"
	"opacbookings/pkg/logger"
)

const formatCSV = "csv"

type BookingsTableHandler struct {
	service service.BookingsTableService
	log     *logger.Logger
}

func NewBookingsTableHandler(service service.BookingsTableService, log *logger.Logger) *BookingsTableHandler {
	return &BookingsTableHandler{
		service: service,
		log:     log,
	}
}

// List serves GET /api/v1/patron-bookings?patron_id=&q=&format=csv&refresh=true.
func (h *BookingsTableHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query, err := tableQuery(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), formatCSV) {
		var buf bytes.Buffer
		if err := h.service.WriteCSV(r.Context(), &buf, query); err != nil {
			h.writeError(w, "List", err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="bookings.csv"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(buf.Bytes()); err != nil {
			h.log.Error("failed to write CSV response", "handler", "List", "operation", "Write", "error", err)
		}
		return
	}

	rows, err := h.service.List(r.Context(), query)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteList(w, rows, len(rows)); err != nil {
		h.log.Error("failed to write list response", "handler", "List", "operation", "WriteList", "error", err)
	}
}

func tableQuery(r *http.Request) (service.TableQuery, error) {
	patronID, ok, err := httputil.QueryInt(r, "patron_id")
	if err != nil {
		return service.TableQuery{}, err
	}
	if !ok {
		return service.TableQuery{}, apperrors.InvalidInput("patron_id parameter is required")
	}

	refresh := false
	if s := r.URL.Query().Get("refresh"); s != "" {
		refresh, err = strconv.ParseBool(s)
		if err != nil {
			return service.TableQuery{}, apperrors.InvalidInput("invalid refresh parameter: " + s)
		}
	}

	return service.TableQuery{
		PatronID: patronID,
		Q:        r.URL.Query().Get("q"),
		Refresh:  refresh,
	}, nil
}

func (h *BookingsTableHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingsTableHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/patron-bookings", h.List)
}
