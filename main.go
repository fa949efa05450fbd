package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	intconfig "shuttle/internal/config"
	"shuttle/internal/events"
	router "shuttle/internal/http"
	"shuttle/internal/http/handlers"
	"shuttle/internal/repositories"
	"shuttle/internal/repositories/memory"
	"shuttle/internal/scheduler"
	"shuttle/internal/services"
	"shuttle/internal/utils"
)

const memorySeatsPerRoute = 16

func main() {
	dotEnv := intconfig.LoadDotEnv()

	logger, err := utils.InitLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if !dotEnv {
		logger.Info("no .env file found, using system environment")
	}

	env := intconfig.LoadEnv()

	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	store, ping, err := openStore(env)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer intconfig.CloseDB()

	bus, err := events.NewBus(logger, store)
	if err != nil {
		logger.Fatal("init event bus", zap.Error(err))
	}
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() {
		if err := bus.Run(ctx); err != nil {
			logger.Error("event bus stopped", zap.Error(err))
		}
	}()
	<-bus.Running()
	drift := bus.Drift()

	auth := services.AuthService{
		Users:      store,
		Secret:     []byte(env.JWTSecret),
		TTL:        env.JWTTTL,
		BcryptCost: env.BcryptCost,
	}
	bookings := services.BookingService{
		Users:        store,
		Routes:       store,
		Bookings:     store,
		Transactions: store,
		Drift:        drift,
	}
	reconciler := services.ReconciliationService{
		Routes:        store,
		Transactions:  store,
		Discrepancies: store,
	}

	hd := handlers.Handler{
		Auth:     auth,
		Routes:   services.RouteService{Routes: store},
		Bookings: bookings,
		Cancel: services.CancellationService{
			Users:        store,
			Routes:       store,
			Bookings:     store,
			Transactions: store,
			Drift:        drift,
			Cutoff:       env.CancellationCutoff,
		},
		Wallet: services.WalletService{
			Users:        store,
			Bookings:     store,
			Transactions: store,
			Drift:        drift,
		},
		Tickets: services.TicketService{Users: store, Bookings: store},
		Ping:    ping,
	}

	cron, err := scheduler.New(scheduler.Config{
		CompletionSchedule: env.CompletionSchedule,
		ReconcileSchedule:  env.ReconcileSchedule,
	}, bookings, reconciler)
	if err != nil {
		logger.Fatal("init scheduler", zap.Error(err))
	}
	cron.Start()

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(env, hd),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", env.AppAddr), zap.String("store", env.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	<-cron.Stop().Done()
	if err := bus.Close(); err != nil {
		logger.Error("event bus close", zap.Error(err))
	}

	logger.Info("server stopped")
}

// openStore picks the persistence backend. The memory store is seeded with
// the default campus routes.
func openStore(env intconfig.Env) (services.LedgerStore, func(context.Context) error, error) {
	switch env.StoreDriver {
	case intconfig.StoreMemory:
		s := memory.NewStore()
		s.SeedDefaultRoutes(memorySeatsPerRoute)
		return s, nil, nil
	case intconfig.StoreMySQL:
		db, err := intconfig.ConnectDB(env)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewStore(db), intconfig.PingDB, nil
	default:
		return nil, nil, errors.New("unknown STORE_DRIVER " + env.StoreDriver)
	}
}
