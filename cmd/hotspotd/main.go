package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prahasith1996/video-player/internal/auth"
	"github.com/prahasith1996/video-player/internal/database"
	"github.com/prahasith1996/video-player/internal/geoip"
	"github.com/prahasith1996/video-player/internal/hotspot"
	"github.com/prahasith1996/video-player/internal/notify"
	"github.com/prahasith1996/video-player/internal/profile"
	"github.com/prahasith1996/video-player/internal/report"
	"github.com/prahasith1996/video-player/internal/server"
	"github.com/prahasith1996/video-player/internal/session"
	slackpkg "github.com/prahasith1996/video-player/internal/slack"
	"github.com/prahasith1996/video-player/internal/storage"
	"github.com/prahasith1996/video-player/internal/viewer"
	webhookpkg "github.com/prahasith1996/video-player/internal/webhook"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	port := getEnv("PORT", "8080")

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var db *database.DB
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		var err error
		db, err = database.Connect(ctx, databaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(databaseURL); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		log.Println("database migrations applied")
	} else {
		log.Println("DATABASE_URL not set, documents are read from object storage only")
	}

	store, err := storage.New(ctx, storage.Config{
		Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:3900"),
		PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
		Bucket:         getEnv("S3_BUCKET", "hotspots"),
		AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		SecretKey:      os.Getenv("S3_SECRET_KEY"),
		Region:         getEnv("S3_REGION", "eu-central-1"),
	})
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatalf("storage bucket check failed: %v", err)
	}
	log.Println("storage bucket ready")

	catalog, err := profile.Load(os.Getenv("PROFILES_FILE"))
	if err != nil {
		log.Fatalf("profile catalog invalid: %v", err)
	}

	var source hotspot.Source = hotspot.NewStorageSource(store)
	var documents hotspot.Store = hotspot.NewObjectStore(store)
	var pinger server.Pinger
	if db != nil {
		source = hotspot.NewFallbackSource(hotspot.NewDBSource(db.Pool), source)
		documents = hotspot.NewDBStore(db.Pool)
		pinger = db
	}

	cache, err := newDocumentCache()
	if err != nil {
		log.Fatalf("document cache initialization failed: %v", err)
	}
	cached := hotspot.NewCachedSource(source, cache)

	geo := geoip.New(os.Getenv("GEOIP_DB_PATH"))
	defer func() { _ = geo.Close() }()

	var handlers []session.ReportHandler
	if webhookURL := os.Getenv("REPORT_WEBHOOK_URL"); webhookURL != "" {
		var deliveries database.DBTX
		if db != nil {
			deliveries = db.Pool
		}
		client := webhookpkg.New(deliveries, webhookURL, os.Getenv("REPORT_WEBHOOK_SECRET"))
		handlers = append(handlers, session.ReportHandlerFunc(func(ctx context.Context, r report.Report) error {
			return client.Dispatch(ctx, r.SessionID, webhookpkg.ReportEvent(r))
		}))
		log.Println("interaction reports delivered by webhook")
	}
	if slackURL := os.Getenv("SLACK_WEBHOOK_URL"); slackURL != "" {
		handlers = append(handlers, slackpkg.New(slackURL))
		log.Println("interaction reports posted to slack")
	}
	var reports session.ReportHandler
	if len(handlers) > 0 {
		reports = notify.NewMultiReportHandler(handlers...)
	}

	sessions := session.NewManager(session.Config{
		Catalog:     catalog,
		Source:      cached,
		Reports:     reports,
		MaxSessions: int(getEnvInt64("MAX_SESSIONS", 10000)),
	})

	var adminAuth *auth.AdminAuth
	if hash := os.Getenv("ADMIN_KEY_HASH"); hash != "" {
		adminAuth = auth.NewAdminAuth(hash)
	} else {
		log.Println("ADMIN_KEY_HASH not set, document admin endpoints disabled")
	}

	var webFS fs.FS
	if dir := os.Getenv("PLAYER_ASSETS_DIR"); dir != "" {
		webFS = os.DirFS(dir)
		log.Printf("serving player assets from %s", dir)
	} else {
		log.Println("no player assets configured, SPA serving disabled")
	}

	srv := server.New(server.Config{
		Sessions:              sessions,
		SessionAuth:           auth.NewSessionAuth(sessionSecret),
		AdminAuth:             adminAuth,
		Viewers:               viewer.NewDescriber(geo),
		Documents:             documents,
		DocumentCache:         cached,
		Reports:               store,
		ReportURLExpiry:       getEnvDuration("REPORT_URL_EXPIRY", time.Hour),
		Pinger:                pinger,
		WebFS:                 webFS,
		BaseURL:               getEnv("BASE_URL", "http://localhost:8080"),
		StorageEndpoint:       os.Getenv("S3_PUBLIC_ENDPOINT"),
		AllowedFrameAncestors: os.Getenv("ALLOWED_FRAME_ANCESTORS"),
		EnableDocs:            getEnv("API_DOCS_ENABLED", "false") == "true",
	})
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Printf("hotspotd listening on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.RunReaper(gctx, time.Minute, getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute))
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		sessions.CloseAll()
		sessions.Wait()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("hotspotd stopped: %v", err)
	}
	log.Println("shutdown complete")
}

// newDocumentCache shares documents through Redis when REDIS_URL is set and
// falls back to an in-process LRU.
func newDocumentCache() (hotspot.Cache, error) {
	ttl := getEnvDuration("DOCUMENT_CACHE_TTL", 5*time.Minute)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		log.Println("document cache backed by redis")
		return hotspot.NewRedisCache(redis.NewClient(opts), ttl), nil
	}
	return hotspot.NewLRUCache(int(getEnvInt64("DOCUMENT_CACHE_SIZE", 256)), ttl), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
