package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ndudarev/filevault/internal/account"
	"github.com/ndudarev/filevault/internal/auth"
	"github.com/ndudarev/filevault/internal/config"
	mw "github.com/ndudarev/filevault/internal/middleware"
	"github.com/ndudarev/filevault/internal/storage"
	"github.com/ndudarev/filevault/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongo(mongoClient.Database(cfg.MongoDB))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}

	// ── User store (Postgres variant when a DSN is configured) ──
	var users interface {
		account.UserStore
		mw.UserStore
	} = mongoStore
	if cfg.PostgresDSN != "" {
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("postgres connect: %v", err)
		}
		defer pgPool.Close()
		pgStore := store.NewPostgres(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Fatalf("postgres migrate: %v", err)
		}
		users = pgStore
	}

	// ── Redis credential cache (optional) ────────────────────
	// Left as a nil interface unless configured; a typed nil pointer
	// here would defeat the verifier's nil check.
	var cache mw.CredentialCache
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer rdb.Close()
		cache = auth.NewCredentialCache(rdb)
	}

	// ── MinIO ────────────────────────────────────────────────
	blobs, err := store.NewMinio(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	resolver := auth.NewResolver(cfg.HashScheme)
	verifier := &mw.Verifier{Log: logger, Users: users, Cache: cache, Resolver: resolver}
	accountHandler := account.NewHandler(logger, users, resolver)
	storageHandler := storage.NewHandler(logger, mongoStore, blobs)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/register", accountHandler.Register)
	r.With(verifier.Credentials(http.MethodGet)).Get("/register/check", accountHandler.Check)

	// Download is deliberately left outside the credential gate:
	// only POST and DELETE require authorization on this route.
	storageGate := verifier.Credentials(http.MethodPost, http.MethodDelete)
	r.With(storageGate).Get("/file_storage", storageHandler.Download)
	r.With(storageGate).Post("/file_storage", storageHandler.Upload)
	r.With(storageGate).Delete("/file_storage", storageHandler.Delete)
	r.With(verifier.Credentials(http.MethodGet)).Get("/file_storage/all", storageHandler.List)

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Host + ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
