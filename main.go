package main

import (
	"context"
	"time"

	"course-studio/config"
	"course-studio/database"
	routes "course-studio/internal/app/http"
	"course-studio/internal/app/http/middleware"
	"course-studio/internal/infra/storage"
	"course-studio/internal/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadEnv()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(config.APP_ENV)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.InitDB(config.DB_URL)
	if err != nil {
		log.Fatal("database init failed", "error", err)
	}

	store, cleanup := newStore(log)
	defer cleanup()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.MaxMultipartMemory = int64(config.MAX_UPLOAD_MB) << 20

	// CORS goes in before the routes
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if config.STORAGE_MODE == config.StorageLocal {
		r.Static(config.MEDIA_URL, config.MEDIA_ROOT)
	}

	routes.RegisterRoutes(r, routes.Deps{
		DB:             db,
		Store:          store,
		Log:            log,
		JWTSecret:      config.JWT_SECRET,
		MaxUploadBytes: int64(config.MAX_UPLOAD_MB) << 20,
	})

	log.Info("listening", "port", config.PORT, "storage", config.STORAGE_MODE)
	if err := r.Run(":" + config.PORT); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}

func newStore(log *logger.Logger) (storage.Store, func()) {
	switch config.STORAGE_MODE {
	case config.StorageGCS:
		gcs, err := storage.NewGCSStore(context.Background(), config.GCS_BUCKET, config.GCS_CREDENTIALS_FILE, config.GCS_PUBLIC_BASE_URL)
		if err != nil {
			log.Fatal("gcs init failed", "error", err)
		}
		return gcs, func() { _ = gcs.Close() }
	default:
		local, err := storage.NewLocalStore(config.MEDIA_ROOT, config.MEDIA_URL)
		if err != nil {
			log.Fatal("media root init failed", "error", err)
		}
		return local, func() {}
	}
}
