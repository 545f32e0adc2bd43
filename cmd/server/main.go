package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/config"
	"github.com/studio730/community-api/internal/database"
	"github.com/studio730/community-api/internal/queue"
	"github.com/studio730/community-api/internal/ratelimit"
	"github.com/studio730/community-api/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on the environment")
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional. Without it the limiter falls back to per-process
	// memory and responses are served uncached.
	rdb := config.NewRedisClient()
	var store ratelimit.Store
	if rdb != nil {
		store = ratelimit.NewRedisStore(rdb)
	} else {
		log.Println("redis unavailable, rate limiting in process memory")
		store = ratelimit.NewMemoryStore()
	}

	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(cfg.Env)
	router.Register(e, &cfg, db, rdb, store)

	log.Printf("listening on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
