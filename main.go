package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/baaten/partner_console/config"
	"github.com/baaten/partner_console/controllers"
	"github.com/baaten/partner_console/middleware"
	"github.com/baaten/partner_console/repositories"
	"github.com/baaten/partner_console/routes"
	"github.com/baaten/partner_console/services"
	"github.com/baaten/partner_console/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	// Optional backends: the console runs without them
	var (
		history  controllers.TransitionHistory
		recorder services.TransitionRecorder
		cache    services.ListCache
	)
	health := map[string]string{"mongo": "disabled", "redis": "disabled", "kafka": "disabled"}

	if cfg.MongoURI != "" {
		client, err := config.ConnectDB(cfg, logger)
		if err != nil {
			logger.Warn("MongoDB unavailable, transition history disabled", zap.Error(err))
		} else {
			defer client.Disconnect(context.Background())
			repo := repositories.NewTransitionRepository(client, cfg.DBName, config.TransitionsCollection)
			history, recorder = repo, repo
			health["mongo"] = "connected"
		}
	}

	if rdb := config.ConnectRedis(cfg, logger); rdb != nil {
		defer rdb.Close()
		cache = repositories.NewPartnerCache(rdb, cfg.PartnerCacheTTL)
		health["redis"] = "connected"
	}

	var publisher services.EventPublisher
	if cfg.KafkaBroker != "" {
		kp := services.NewKafkaPublisher(services.NewKafkaWriter(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaUsername, cfg.KafkaPassword), logger)
		defer kp.Close()
		publisher = kp
		health["kafka"] = "configured"
	}

	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	partnerAPI := services.NewPartnerAPIClient(cfg.PartnerAPIBaseURL, httpClient, logger)
	directory := services.NewPartnerDirectory(partnerAPI, cache, logger)
	transitions := services.NewTransitionService(services.TransitionConfig{
		Partners:        partnerAPI,
		Onboarder:       services.NewOnboardingService(cfg.OnboardingBaseURL, httpClient, logger),
		Media:           services.NewMediaService(httpClient, logger),
		Directory:       directory,
		Recorder:        recorder,
		Publisher:       publisher,
		Notifier:        wsHub,
		FallbackAvatars: cfg.FallbackAvatars,
		VideoFlags:      cfg.OnboardingVideoFlags,
	}, logger)

	partnerController := controllers.NewPartnerController(partnerAPI, directory, transitions, history, logger)
	proxyController := controllers.NewProxyController(
		services.NewProxyService(cfg.MicroBaseURL, httpClient, logger),
		services.NewProxyService(cfg.PartnerAPIBaseURL, httpClient, logger),
		cfg.IsDevelopment(),
		logger,
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	rateLimiter := middleware.NewRateLimiter()
	origins := middleware.CORSOrigins(cfg.CORSAllowedOrigins)

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS(cfg.CORSAllowedOrigins))
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders(middleware.SecurityConfig{
		AllowedDomains: []string{cfg.PartnerAPIBaseURL, cfg.MicroBaseURL},
	}))

	routes.SetupRoutes(e, routes.Deps{
		Auth:          middleware.JWTMiddleware(cfg.JWTSecret, logger),
		WebSocketAuth: middleware.WebSocketJWTMiddleware(cfg.JWTSecret, logger),
		Partners:      partnerController,
		Proxy:         proxyController,
		Hub:           wsHub,
		Upgrader:      websocket.NewUpgrader(origins),
		Health:        func() map[string]string { return health },
	})

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
