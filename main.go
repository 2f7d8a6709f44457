package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"mock-exchange/src/config"
	"mock-exchange/src/engine"
	"mock-exchange/src/handlers"
	"mock-exchange/src/logger"
	"mock-exchange/src/routes"
	"mock-exchange/src/ws"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.InitLogger("info", "pretty", "")
		bootLog := logger.GetLogger()
		bootLog.Fatal().
			Err(err).
			Str("config_path", configPath).
			Msg("Failed to load configuration")
	}

	logger.InitLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	log := logger.GetLogger()

	log.Info().
		Str("exchange", cfg.Exchange.Name).
		Int("strategies", len(cfg.Strategies)).
		Msg("Initializing Mock Exchange Simulator")

	scheduler := engine.NewScheduler()
	scheduler.Start()

	hub := ws.NewHub()
	go hub.Run()

	exchange := engine.NewExchange(engine.Settings{
		Name:           cfg.Exchange.Name,
		InitialBalance: cfg.Exchange.InitialBalance,
		CheckPeriod:    cfg.Exchange.CheckPeriod,
		OrderFillDelay: cfg.Exchange.OrderFillDelay,
	}, scheduler, hub)

	for _, sc := range cfg.Strategies {
		strategy := engine.NewStrategy(
			sc.Name,
			sc.Symbol,
			sc.Description,
			engine.NewTicker(sc.Ticker, sc.IsInfinite),
			engine.TriggerCondition{Buys: sc.Trigger.Buys, Sells: sc.Trigger.Sells},
			engine.TriggerCondition{Buys: sc.StopTrigger.Buys, Sells: sc.StopTrigger.Sells},
			sc.IsInfinite,
		)
		if err := exchange.IngestStrategy(strategy); err != nil {
			log.Fatal().
				Err(err).
				Str("strategy", sc.Name).
				Msg("Failed to ingest strategy")
		}
	}

	exchangeHandler := handlers.NewExchangeHandler(exchange)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Error().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("status", code).
				Str("error", err.Error()).
				Msg("Request error")

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	routes.SetupRoutes(app, exchangeHandler)

	serverError := make(chan error, 1)

	go func() {
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			// edge case: ignore shutdown errors, only report real errors
			errStr := err.Error()
			if errStr != "server is shutting down" {
				serverError <- err
			}
		}
	}()

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", ws.Serve(hub))
	wsServer := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.WSPort),
		Handler: wsMux,
	}

	go func() {
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case err := <-serverError:
		log.Fatal().
			Err(err).
			Int("port", cfg.Server.Port).
			Int("ws_port", cfg.Server.WSPort).
			Str("hint", "Port may be already in use. Try: MOCKEX_SERVER_PORT=3000 go run main.go").
			Msg("Server failed to start")
	default:
		log.Info().
			Int("port", cfg.Server.Port).
			Int("ws_port", cfg.Server.WSPort).
			Msg("Mock Exchange Simulator started")

		log.Info().
			Strs("endpoints", []string{
				"POST   /api/v1/accounts",
				"GET    /api/v1/accounts/:key/balance",
				"POST   /api/v1/orders",
				"DELETE /api/v1/orders/:id",
				"GET    /api/v1/orders/:id",
				"GET    /api/v1/strategies",
				"GET    /health",
				"GET    /metrics",
				"WS     /ws",
			}).
			Msg("API endpoints registered")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info().Msg("Received shutdown signal, shutting down...")

	shutdownTimeout := 10 * time.Second
	if envTimeout := os.Getenv("SHUTDOWN_TIMEOUT"); envTimeout != "" {
		if parsed, err := time.ParseDuration(envTimeout); err == nil && parsed > 0 {
			shutdownTimeout = parsed
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop()

	if err := wsServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down websocket server")
	}

	if err := app.ShutdownWithContext(ctx); err != nil {
		// edge case: timeout during shutdown is acceptable
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().
				Dur("timeout", shutdownTimeout).
				Msg("Timeout exceeded, shutting down...")
		} else {
			log.Error().
				Err(err).
				Msg("Error during shutdown")
		}
	} else {
		log.Info().Msg("Shutdown complete")
	}

	logger.CloseLogger()
}
