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

	"github.com/aidbridge-api/internal/changefeed"
	"github.com/aidbridge-api/internal/config"
	"github.com/aidbridge-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/aidbridge-api/internal/infrastructure/jwt"
	"github.com/aidbridge-api/internal/infrastructure/nominatim"
	redisinfra "github.com/aidbridge-api/internal/infrastructure/redis"
	s3infra "github.com/aidbridge-api/internal/infrastructure/s3"
	"github.com/aidbridge-api/internal/infrastructure/sns"
	"github.com/aidbridge-api/internal/metrics"
	transporthttp "github.com/aidbridge-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	deps := &transporthttp.Deps{
		RequestRepo:      dynamo.NewRequestRepo(dynamoClient, cfg.DynamoTables.Requests),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		ProfileRepo:      dynamo.NewProfileRepo(dynamoClient, cfg.DynamoTables.Profiles),
		RoleRepo:         dynamo.NewUserRoleRepo(dynamoClient, cfg.DynamoTables.UserRoles),
		AccountRepo:      dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		ImageStore:       s3infra.NewImageStore(s3infra.NewClient(cfg), cfg.S3BucketName, s3infra.PublicBaseURL(cfg)),
	}

	// JWT provider (optional, auth-protected routes reject without it).
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		deps.JWTProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// Change feed: in-process hub, fanned out across replicas through Redis when configured.
	hub := changefeed.NewHub(changefeed.WithDropHook(metrics.RecordFeedDrop))
	deps.Feed = hub
	if cfg.RedisAddr != "" {
		client, err := redisinfra.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Printf("WARN: Redis broker not available, using in-process feed: %v", err)
		} else {
			defer client.Close()
			broker := redisinfra.NewBroker(client, cfg.RedisChannel, hub)
			deps.Feed = broker
			go broker.Serve(ctx, time.Second, 30*time.Second)
		}
	}

	// Reverse geocoder (optional, addresses fall back to coordinates).
	if g, err := nominatim.New(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocoderRPS,
		cfg.GeocoderTimeout, cfg.GeocoderCacheSize, nominatim.WithObserver(metrics.RecordGeocode)); err == nil {
		deps.Geocoder = g
	} else {
		log.Printf("WARN: geocoder not available: %v", err)
	}

	// SNS SMS sender (optional).
	if cfg.SMSEnabled {
		if sender, err := sns.NewSender(cfg); err == nil {
			deps.SMSSender = sender
		} else {
			log.Printf("WARN: SNS sender not available: %v", err)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
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
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
