package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	syncapp "github.com/vanvan1998/todoApp/internal/application/sync"
	"github.com/vanvan1998/todoApp/internal/config"
	"github.com/vanvan1998/todoApp/internal/infrastructure/dynamo"
	jwtinfra "github.com/vanvan1998/todoApp/internal/infrastructure/jwt"
	"github.com/vanvan1998/todoApp/internal/infrastructure/smtp"
	"github.com/vanvan1998/todoApp/internal/infrastructure/sns"
	transporthttp "github.com/vanvan1998/todoApp/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS alerter (optional — reminders silently skip when unavailable).
	alerter, err := sns.NewAlerter(cfg)
	if err != nil {
		log.Printf("WARN: SNS alerter not available: %v", err)
		alerter = sns.NopAlerter()
	}

	// Live todo sessions: change stream watcher + per-user session manager.
	streamsClient := dynamo.NewStreamsClient(cfg)
	watcher := dynamo.NewStreamWatcher(dynamoClient, streamsClient, cfg.DynamoTables.Todos, cfg.StreamPollInterval)
	todoRepo := dynamo.NewTodoRepo(dynamoClient, cfg.DynamoTables.Todos)
	manager := syncapp.NewManager(todoRepo, watcher, alerter, 0)

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications),
		Manager:          manager,
		Mailer:           mailer,
		JWTProvider:      jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	// No WriteTimeout: /v1/todos/stream holds its response open.
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.AppPort),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	manager.CloseAll()
	log.Println("Server stopped")
}
