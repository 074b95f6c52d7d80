package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/config"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/database"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/handler"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/middleware"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/queue"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/repository"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/router"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional. Without it the limiter and cache turn off and the
	// booking engine still works.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	bookingRepo := repository.NewBookingRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	events := queue.NewPublisher()
	bookingSvc := service.NewBookingService(db, bookingRepo, roomRepo, userRepo, events)
	availSvc := service.NewAvailabilityService(bookingRepo, roomRepo)

	// Notification consumer runs for the life of the process, reconnecting
	// on broker failures.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	var cache echo.MiddlewareFunc
	if rdb != nil {
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterRooms(e, handler.NewRoomHandler(roomRepo, availSvc), cfg.JWTSecret, cache)
	router.RegisterUsers(e, handler.NewUserHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterBookings(e, handler.NewBookingHandler(bookingSvc), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
