package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"swiftserve/bus"
	"swiftserve/cart"
	"swiftserve/config"
	"swiftserve/handlers"
	"swiftserve/lifecycle"
	"swiftserve/middleware"
	"swiftserve/relay"
	"swiftserve/routes"
	"swiftserve/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := config.NewLogger(cfg, os.Stderr)
	if cfg.EnvFile == "" {
		log.Info().Msg(".env file not found, using system environment variables")
	}
	if cfg.UsingDevSecret() {
		log.Warn().Msg("JWT_SECRET not set, using the built-in development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to open database")
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("database connected and migrated")

	hubOpts := []bus.Option{bus.WithBuffer(cfg.SubscriberBuffer), bus.WithLogger(log.With().Str("component", "bus").Logger())}
	sink, err := openSink(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("sink", cfg.EventSink).Msg("failed to open event sink")
	}
	if sink != nil {
		hubOpts = append(hubOpts, bus.WithMirror(sink))
		log.Info().Str("sink", cfg.EventSink).Msg("relaying events to broker")
	}
	hub := bus.New(hubOpts...)

	st := store.New(db)
	auth := middleware.NewAuth(cfg.JWTSecret, cfg.TokenTTL)
	h := handlers.New(handlers.Deps{
		Store:          st,
		Engine:         lifecycle.New(st, hub, log),
		Hub:            hub,
		Carts:          cart.NewStore(),
		Auth:           auth,
		NearbyRadiusKm: cfg.NearbyRadiusKm,
	})

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	routes.SetupRoutes(r, h, auth)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		// no WriteTimeout: event streams stay open
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	// close streams first so Shutdown does not wait on them
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sink != nil {
		if err := sink.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close event sink")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func openSink(cfg config.Config, log zerolog.Logger) (relay.Sink, error) {
	switch cfg.EventSink {
	case "kafka":
		return relay.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "amqp":
		return relay.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, log.With().Str("component", "relay").Logger())
	}
	return nil, nil
}
