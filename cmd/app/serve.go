package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"coursehub/config"
	"coursehub/internal/application/usecase"
	"coursehub/internal/infrastructure/cache"
	"coursehub/internal/infrastructure/events"
	"coursehub/internal/infrastructure/media"
	"coursehub/internal/infrastructure/payment"
	"coursehub/internal/infrastructure/repository"
	"coursehub/internal/infrastructure/security"
	"coursehub/internal/middleware"
	grpc_server "coursehub/internal/transport/grpc"
	handlers "coursehub/internal/transport/http"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

type publisher interface {
	usecase.EventPublisher
	Close() error
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the internal gRPC service",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			runServe(loadConfig(path))
			return nil
		},
	}
}

func loadConfig(path string) config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	return cfg
}

func runServe(cfg config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := openDB(cfg)
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		log.Println("Connected to Redis at", cfg.RedisAddr)
	}

	store := repository.NewStore(db, cache.NewCatalogCache(rdb))

	var uploader usecase.ImageUploader = media.Disabled{}
	if cfg.ImageUploadEnabled() {
		u, err := media.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Fatalf("Cloudinary init failed: %v", err)
		}
		uploader = u
	} else {
		log.Println("Cloudinary not configured, course thumbnails cannot be uploaded")
	}

	var pub publisher = events.Noop{}
	if cfg.EventsEnabled() {
		pub = events.NewKafkaPublisher(cfg.Brokers(), cfg.KafkaTopic, 256)
		log.Printf("Publishing domain events to %v topic=%s", cfg.Brokers(), cfg.KafkaTopic)
	}
	defer pub.Close()

	tokens, err := security.NewTokenVerifier(cfg.SessionJWTAlg, cfg.SessionJWTKey)
	if err != nil {
		log.Fatalf("Session token key invalid: %v", err)
	}
	identities, err := security.NewWebhookVerifier(cfg.ClerkWebhookSecret)
	if err != nil {
		log.Fatalf("Identity webhook secret invalid: %v", err)
	}

	catalog := usecase.NewCatalogUseCase(store)
	educator := usecase.NewEducatorUseCase(store, uploader, pub)
	student := usecase.NewStudentUseCase(store, payment.NewGateway(cfg.StripeSecretKey), cfg.Currency)
	reconciler := usecase.NewReconciler(store, cache.NewEventDedup(rdb), pub)
	identitySync := usecase.NewIdentitySyncUseCase(store)

	dev := cfg.IsDevelopment()
	router := handlers.NewRouter(handlers.RouterDeps{
		Courses:     handlers.NewCourseHandler(catalog, dev),
		Educator:    handlers.NewEducatorHandler(educator, dev),
		Users:       handlers.NewUserHandler(student, dev),
		Webhooks:    handlers.NewWebhookHandler(payment.NewEventVerifier(cfg.StripeWebhookSecret), reconciler, identities, identitySync, dev),
		Verifier:    tokens,
		UserLookup:  store.Users,
		Limiter:     middleware.NewRateLimiter(rdb),
		AllowOrigin: cfg.Origins(),
	})

	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		log.Fatalf("Listen failed: %v", err)
	}
	grpcSrv := grpc.NewServer()
	grpc_server.Register(grpcSrv, grpc_server.NewEnrollmentServer(student))
	go func() {
		log.Printf("Enrollment gRPC service running on %s", cfg.GRPCPort)
		if err := grpcSrv.Serve(lis); err != nil {
			log.Printf("gRPC server stopped: %v", err)
		}
	}()

	srv := &http.Server{Addr: cfg.Port, Handler: router}
	go func() {
		log.Printf("API running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	grpcSrv.GracefulStop()
}
