package http

import (
	"encoding/json"
	"net/http"

	apperrors "opacbookings/pkg/errors"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

type ListResponse struct {
	Data       any `json:"data"`
	TotalCount int `json:"total_count"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError renders err using the status carried by an AppError anywhere in
// its chain. Anything else is reported as a bare 500.
func WriteError(w http.ResponseWriter, err error) error {
	if !apperrors.IsAppError(err) {
		return WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  apperrors.CodeInternal,
		})
	}

	e := apperrors.AsAppError(err)
	return WriteJSON(w, e.StatusCode(), ErrorResponse{
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	})
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func WriteList(w http.ResponseWriter, data any, totalCount int) error {
	return WriteJSON(w, http.StatusOK, ListResponse{
		Data:       data,
		TotalCount: totalCount,
	})
}
