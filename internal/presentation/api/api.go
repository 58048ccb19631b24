package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stagelink/backend/internal/infrastructure/configs"
	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/ratelimiter"
	healthHandler "github.com/stagelink/backend/internal/presentation/handler/health"
	liveHandler "github.com/stagelink/backend/internal/presentation/handler/live"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Application struct {
	config        configs.Config
	liveHandler   *liveHandler.Handler
	healthHandler *healthHandler.Handler
	logger        logging.Logger
	ratelimiter   ratelimiter.Limiter
	registry      *prometheus.Registry
}

func NewApplication(
	config configs.Config,
	liveHandler *liveHandler.Handler,
	healthHandler *healthHandler.Handler,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
	registry *prometheus.Registry,
) *Application {
	return &Application{
		config:        config,
		liveHandler:   liveHandler,
		healthHandler: healthHandler,
		logger:        logger,
		ratelimiter:   ratelimiter,
		registry:      registry,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(app.loggerMiddleware)
	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	r.Route("/api", func(r chi.Router) {
		// The websocket route lives outside the timeout group: the
		// connection outlives any request deadline.
		r.Get("/live/ws", app.liveHandler.WebSocketHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/live/{eventId}", func(r chi.Router) {
				r.Get("/", app.liveHandler.GetRoomHandler)
				r.Post("/start", app.liveHandler.StartEventHandler)
				r.Post("/end", app.liveHandler.EndEventHandler)
				r.Post("/polls", app.liveHandler.CreatePollHandler)
				r.Post("/polls/{pollId}/close", app.liveHandler.ClosePollHandler)
				r.Post("/icebreakers", app.liveHandler.CreateIcebreakerHandler)
				r.Post("/questions/{questionId}/dismiss", app.liveHandler.DismissQuestionHandler)
				r.Get("/photos/pending", app.liveHandler.PendingPhotosHandler)
				r.Post("/photos/{photoId}/moderate", app.liveHandler.ModeratePhotoHandler)
				r.Post("/chat/{messageId}/hide", app.liveHandler.HideMessageHandler)
				r.Get("/interactions", app.liveHandler.InteractionsHandler)
			})

			r.Get("/health", app.healthHandler.GetHealth)
			r.Get("/healthz", app.healthHandler.GetHealth)
			r.Get("/ready", app.healthHandler.GetHealth)
			r.Get("/live", app.healthHandler.GetHealth)
		})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return otelhttp.NewHandler(r, "stagelink-live")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		healthHandler.SetUnhealthy()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
