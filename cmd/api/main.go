package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-contact-backend/config"
	_ "portfolio-contact-backend/docs" // Important for Swagger
	v1 "portfolio-contact-backend/internal/delivery/http/v1"
	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/internal/usecase"
	"portfolio-contact-backend/pkg/email"
	"portfolio-contact-backend/pkg/logger"
	"portfolio-contact-backend/pkg/relay"

	"github.com/gin-gonic/gin"
)

// @title           Portfolio Contact API
// @version         1.0
// @description     Contact form submission pipeline for the portfolio site.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting portfolio contact backend", "port", cfg.Port, "delivery_driver", cfg.DeliveryDriver)
	gin.SetMode(cfg.GinMode)

	// 3. Setup Delivery Client
	client := newDeliveryClient(cfg)

	// 4. Setup UseCases
	controllers := usecase.NewControllerFactory(client, logger.Log)
	contactUC := usecase.NewContactUsecase(controllers)
	sessions := usecase.NewContactSessions(controllers, cfg.ContactSessionTTL, logger.Log)
	healthUC := usecase.NewHealthUsecase(cfg.DeliveryDriver, client)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go sessions.Run(ctx, time.Minute)

	// 5. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC:       contactUC,
		ContactSessions: sessions,
		HealthUC:        healthUC,
		Logger:          logger.Log,
		Config:          cfg,
	})

	// 6. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}

type configurableClient interface {
	domain.DeliveryClient
	usecase.Configurable
}

func newDeliveryClient(cfg *config.Config) configurableClient {
	switch cfg.DeliveryDriver {
	case config.DriverSMTP:
		svc := email.NewEmailService(cfg)
		if !svc.IsConfigured() {
			logger.Log.Warn("SMTP delivery not fully configured - contact form will report failures")
		}
		return svc
	default:
		if cfg.DeliveryDriver != config.DriverEmailJS {
			logger.Log.Warn("Unknown delivery driver, using emailjs", "driver", cfg.DeliveryDriver)
		}
		client := relay.NewClient(cfg)
		if !client.IsConfigured() {
			logger.Log.Warn("EmailJS relay not fully configured - contact form will report failures")
		}
		return client
	}
}
