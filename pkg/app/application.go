package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"opacbookings/pkg/config"
	"opacbookings/pkg/contracts"
	"opacbookings/pkg/middleware"
)

// Worker is a background loop that runs until its context is cancelled,
// such as the bookings topic consumer.
type Worker interface {
	Start(ctx context.Context) error
	Close() error
}

type namedWorker struct {
	name   string
	worker Worker
}

type Application struct {
	cfg            *config.Config
	server         *http.Server
	healthHandler  http.Handler
	appHttpHandler http.Handler
	workers        []namedWorker
	closers        []io.Closer
	wg             sync.WaitGroup
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// SetApp wires the health routes behind minimal middleware and the API
// routes behind the full stack.
func (a *Application) SetApp(healthHandler contracts.Handler, appHandlers ...contracts.Handler) {
	a.setHealthHandler(healthHandler)
	a.setAppHandler(appHandlers...)
	a.setAppServer()
}

// AddWorker registers a background worker started by Run and closed on
// shutdown.
func (a *Application) AddWorker(name string, w Worker) {
	a.workers = append(a.workers, namedWorker{name: name, worker: w})
}

// AddCloser registers a resource closed after the server stops. Closers run
// last-in first-out.
func (a *Application) AddCloser(c io.Closer) {
	a.closers = append(a.closers, c)
}

func (a *Application) setHealthHandler(healthHandler contracts.Handler) {
	healthRouter := httprouter.New()
	healthHandler.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(appHandlers ...contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range appHandlers {
		h.RegisterRoutes(appRouter)
	}

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured with full middleware stack")
}

func (a *Application) setAppServer() {
	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.Handler(),
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

// Handler is the root handler the server serves. API requests get a server
// span; health checks do not.
func (a *Application) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)
	return otelhttp.NewHandler(mux, a.cfg.ServiceName,
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/ready"
		}),
	)
}

func (a *Application) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startWorkers(ctx)

	serverErrors := make(chan error, 1)
	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
		a.gracefulShutdown()
	}
}

func (a *Application) startWorkers(ctx context.Context) {
	for _, nw := range a.workers {
		a.wg.Add(1)
		go func(nw namedWorker) {
			defer a.wg.Done()
			a.cfg.Log.Info("Starting background worker", "worker", nw.name)
			if err := nw.worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.cfg.Log.Error("Background worker stopped", "worker", nw.name, "error", err)
			}
		}(nw)
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	for _, nw := range a.workers {
		if err := nw.worker.Close(); err != nil {
			a.cfg.Log.Error("Failed to close background worker", "worker", nw.name, "error", err)
		}
	}
	a.wg.Wait()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.cfg.Log.Error("Failed to close resource", "error", err)
		}
	}

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Server stopped gracefully")
}
