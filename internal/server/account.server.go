// server/account.server.go
package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account-service/internal/config"
	"account-service/internal/handler"
	"account-service/internal/repository"
	"account-service/internal/router"
	"account-service/internal/service/email"
	"account-service/internal/service/geo"
	"account-service/internal/usecase"
	"account-service/pkg/cache"
	"account-service/pkg/id"
	"account-service/pkg/jwtutil"
	"account-service/pkg/kafka"
)

// NewServer wires the whole service together and installs a shutdown
// handler that drains the producer, redis and the pool on SIGTERM.
func NewServer(cfg config.AppConfig) *http.Server {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := config.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	sf, err := id.NewSnowflake(8)
	if err != nil {
		log.Fatalf("failed to init snowflake: %v", err)
	}

	sessionCache := cache.NewCache([]string{cfg.RedisAddr}, cfg.RedisPass, false)

	producer, err := kafka.NewAccountEventProducer(cfg.KafkaBrokers)
	if err != nil {
		// the service is usable without events; log and run degraded
		log.Printf("kafka producer unavailable, events disabled: %v", err)
		producer = nil
	}

	jwtGen := jwtutil.NewGenerator([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	mailer := email.NewEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.From)
	geoClient := geo.NewClient()

	userRepo := repository.NewUserRepository(db)
	providerRepo := repository.NewAuthProviderRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	policyRepo := repository.NewPolicyRepository(db)

	verificationUC := usecase.NewVerificationUsecase(verificationRepo, mailer, jwtGen, sf, cfg.AppBaseURL, cfg.TokenTTL)
	lockout := usecase.NewLockoutPolicy(activityRepo, cfg.LockoutWindow, cfg.LockoutThreshold)

	var eventProducer usecase.EventProducer
	if producer != nil {
		eventProducer = producer
	}

	localUC := usecase.NewLocalAuthUsecase(userRepo, verificationUC, lockout, jwtGen, sf, eventProducer, cfg.TxTimeout)
	googleUC := usecase.NewGoogleAuthUsecase(userRepo, providerRepo, policyRepo, jwtGen, sf, eventProducer, cfg.GoogleClientID, cfg.TxTimeout)
	sessionUC := usecase.NewSessionUsecase(sessionRepo, sessionCache, mailer, cfg.MaxDeviceSessions)
	recorder := usecase.NewActivityRecorder(activityRepo, geoClient, sf)

	authHandler := handler.NewAuthHandler(localUC, googleUC, sessionUC, recorder)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.New(authHandler, jwtGen),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("error shutting down http server: %v", err)
		}

		if producer != nil {
			if err := producer.Close(); err != nil {
				log.Printf("error closing kafka producer: %v", err)
			}
		}
		if err := sessionCache.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
		db.Close()

		log.Println("graceful shutdown complete")
	}()

	return srv
}
