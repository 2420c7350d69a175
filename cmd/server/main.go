package main // Entry point package

import (
	"context"
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/contact-book/internal/config"     // Internal config loader
	"github.com/iliyamo/contact-book/internal/database"   // MySQL pool + schema
	"github.com/iliyamo/contact-book/internal/email"      // confirmation mail delivery
	"github.com/iliyamo/contact-book/internal/handler"    // HTTP handlers
	"github.com/iliyamo/contact-book/internal/middleware" // rate limit + cache middleware
	"github.com/iliyamo/contact-book/internal/queue"      // background email consumer
	"github.com/iliyamo/contact-book/internal/repository" // DB repositories
	"github.com/iliyamo/contact-book/internal/router"     // Internal router setup
	"github.com/iliyamo/contact-book/internal/storage"    // S3 avatar storage
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	users := repository.NewUserRepo(db)
	contacts := repository.NewContactRepo(db)

	// Redis backs rate limiting and the contact-list cache. A nil client
	// turns both middlewares into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting and caching disabled")
	}

	// Background confirmation-email delivery. The consumer reconnects on
	// broker failures and never takes the server down with it.
	sender := email.NewSMTPSender(config.LoadSMTP())
	go func() {
		if err := queue.StartEmailConsumer(sender); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()

	// Avatar storage is optional; without it the upload endpoint reports 503.
	avatars, err := storage.NewAvatarStore(context.Background())
	if err != nil {
		log.Printf("avatar storage disabled: %v", err)
		avatars = nil
	}

	e := echo.New() // Create Echo instance
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users))
	router.RegisterContacts(e, handler.NewContactHandler(contacts, users), cfg.JWTSecret, cache)
	router.RegisterUsers(e, handler.NewUserHandler(users, avatars), cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
