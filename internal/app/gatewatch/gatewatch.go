// Package gatewatch реализует фонового наблюдателя за статусом подписки:
// восстанавливает сохранённую сессию, опрашивает бэкенд с фиксированным
// периодом и завершается, как только подписка становится активной. Рядом
// поднимается служебный HTTP-листенер с /metrics и /healthz.
package gatewatch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tijarah/complaints-console/internal/api"
	"github.com/tijarah/complaints-console/internal/config"
	"github.com/tijarah/complaints-console/internal/gate"
	"github.com/tijarah/complaints-console/internal/session"
)

// App — приложение-наблюдатель со служебным HTTP-сервером.
type App struct {
	server   *http.Server
	store    *session.Store
	gate     *gate.Gate
	interval time.Duration
	logger   *slog.Logger
}

// New собирает наблюдателя: клиент бэкенда, сессию, шлюз и служебный роутер.
// Без восстановленной сессии наблюдать нечего — возвращается ошибка.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	client := api.New(cfg.BaseURL, cfg.Backend.Timeout, logger)
	storage := session.NewFileTokenStorage(cfg.TokenFile)
	store := session.NewStore(client, storage, logger)

	if err := store.Rehydrate(ctx); err != nil {
		return nil, err
	}
	if store.Token() == "" {
		return nil, errors.New("no stored session, log in with the console first")
	}

	watchGate := gate.New(client, logger)

	app := &App{
		store:    store,
		gate:     watchGate,
		interval: cfg.PollInterval,
		logger:   logger,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)
	router.Get("/healthz", app.handleHealth)
	router.Handle("/metrics", promhttp.Handler())

	app.server = &http.Server{
		Addr:         cfg.AddressOps,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutOps,
		WriteTimeout: cfg.TimeoutOps,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

type healthPayload struct {
	Status              string `json:"status"`
	Authenticated       bool   `json:"authenticated"`
	SubscriptionChecked bool   `json:"subscription_checked"`
	SubscriptionActive  bool   `json:"subscription_active"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := healthPayload{
		Status:        "OK",
		Authenticated: a.store.IsAuthenticated(),
	}
	if status, ok := a.gate.Status(); ok {
		payload.SubscriptionChecked = true
		payload.SubscriptionActive = status.HasActiveSubscription
	}
	render.JSON(w, r, payload)
}

// Run запускает служебный сервер и цикл опроса. Завершается при активации
// подписки, сигнале остановки или ошибке сервера.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("ops server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		for status := range a.gate.Watch(watchCtx, a.interval) {
			a.logger.Info("subscription status observed",
				slog.Bool("active", status.HasActiveSubscription),
				slog.Bool("pending_payment", status.HasPendingPayment))
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-watchDone:
		a.logger.Info("watch finished")
		return a.shutdown()
	case <-ctx.Done():
		return a.shutdown()
	}
}

func (a *App) shutdown() error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return a.server.Shutdown(timeoutCtx)
}
