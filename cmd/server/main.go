package main // Entry point package

import (
    "log" // Logging library

    "github.com/joho/godotenv"    // .env loader for local development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/valleturismo/reservation-engine/internal/booking"
    "github.com/valleturismo/reservation-engine/internal/config"
    "github.com/valleturismo/reservation-engine/internal/database"
    "github.com/valleturismo/reservation-engine/internal/handler"
    "github.com/valleturismo/reservation-engine/internal/middleware"
    "github.com/valleturismo/reservation-engine/internal/plan"
    "github.com/valleturismo/reservation-engine/internal/queue"
    "github.com/valleturismo/reservation-engine/internal/repository"
    "github.com/valleturismo/reservation-engine/internal/router"
)

func main() {
    // Load .env when present; in deployed environments the variables
    // come from the process environment.
    if err := godotenv.Load(); err != nil {
        log.Println("no .env file found, using system environment variables")
    }
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database connect failed: %v", err)
    }
    defer db.Close()

    if err := database.Migrate(db, cfg.MigrationsDir); err != nil {
        log.Fatalf("migrations failed: %v", err)
    }
    log.Println("database migrations applied")

    // Redis accelerates the public availability reads and rate-limits
    // the booking surface; a nil client degrades both to pass-through.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable, caching and rate limiting disabled")
    }

    store := repository.NewStore(db)
    planStore := repository.NewPlanStore(db)
    reads := repository.NewReservationRepo(db)

    bookings := booking.NewService(store)
    plans := plan.NewService(planStore, bookings)

    e := echo.New()
    e.HideBanner = true
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
    router.RegisterPublic(e, handler.NewAvailabilityHandler(bookings), cache)
    router.RegisterBooking(e,
        handler.NewCartHandler(bookings),
        handler.NewReservationHandler(bookings, reads),
        handler.NewLineHandler(bookings),
        handler.NewPlanHandler(plans),
        cfg.JWTSecret,
    )

    // Consume confirmation events in the background; the consumer runs
    // its own reconnect loop and never stops the server.
    go func() {
        if err := queue.StartReservationConsumer(); err != nil {
            log.Printf("reservation consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
