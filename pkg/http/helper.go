package http

import (
	"net/http"
	"strconv"
	"strings"

	"opacbookings/pkg/daterange"
	apperrors "opacbookings/pkg/errors"
)

// QueryInt reads a positive integer query parameter. ok is false when the
// parameter is absent.
func QueryInt(r *http.Request, name string) (value int, ok bool, err error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return 0, false, nil
	}
	v, convErr := strconv.Atoi(s)
	if convErr != nil || v <= 0 {
		return 0, false, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, true, nil
}

// QueryDay reads a YYYY-MM-DD query parameter. A missing parameter yields nil.
func QueryDay(r *http.Request, name string) (*daterange.Day, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil, nil
	}
	d, err := daterange.ParseDay(s)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return &d, nil
}

// QueryMonth reads a YYYY-MM query parameter.
func QueryMonth(r *http.Request, name string) (year int, month int, ok bool, err error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return 0, 0, false, nil
	}
	d, parseErr := daterange.ParseDay(s + "-01")
	if parseErr != nil {
		return 0, 0, false, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return d.Year(), int(d.Month()), true, nil
}
