package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"opacbookings/pkg/config"
	"opacbookings/pkg/contracts"
	"opacbookings/pkg/logger"
	"opacbookings/pkg/middleware"
)

func testApp() *Application {
	cfg := &config.Config{
		ServiceName:    "test",
		Log:            logger.NewNop(),
		Port:           "0",
		RequestTimeout: time.Second,
		MaxRequestSize: 1024,
	}
	a := NewApplication(cfg)
	a.SetApp(
		contracts.RoutesFunc(func(r *httprouter.Router) {
			r.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
				w.WriteHeader(http.StatusOK)
			})
		}),
		contracts.RoutesFunc(func(r *httprouter.Router) {
			r.PUT("/api/v1/booking-sessions/:id/period", func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
				w.WriteHeader(http.StatusAccepted)
			})
		}),
	)
	return a
}

func TestHandler_Routing(t *testing.T) {
	h := testApp().Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/booking-sessions/s1/period", strings.NewReader(`{"date":"2024-06-10"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Errorf("api: expected 202, got %d", w.Code)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("api responses should carry a request ID")
	}
}

func TestHandler_APIMiddleware(t *testing.T) {
	h := testApp().Handler()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/booking-sessions/s1/period", strings.NewReader(`date=2024-06-10`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", w.Code)
	}
}
