package main // Entry point package

import (
    "context"
    "log"
    "os"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theater-box-office/internal/config"
    "github.com/iliyamo/theater-box-office/internal/database"
    "github.com/iliyamo/theater-box-office/internal/handler"
    "github.com/iliyamo/theater-box-office/internal/middleware"
    "github.com/iliyamo/theater-box-office/internal/queue"
    "github.com/iliyamo/theater-box-office/internal/repository"
    "github.com/iliyamo/theater-box-office/internal/router"
    "github.com/iliyamo/theater-box-office/internal/ticket"
)

func main() {
    // Load .env when present; real deployments set the environment
    // directly and the file is absent.
    if err := godotenv.Load(); err != nil {
        log.Printf("no .env file loaded: %v", err)
    }
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis is optional; a nil client disables the seat-map cache.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable; seat-map cache disabled")
    }
    cache := middleware.NewSeatMapCache(config.LoadCacheConfig(), rdb)

    userRepo := repository.NewUserRepo(db)
    seedAdmin(userRepo, cfg)
    venueRepo := repository.NewVenueRepo(db)
    showRepo := repository.NewShowRepo(db)
    ticketRepo := repository.NewTicketRepo(db)

    engine := ticket.NewEngine(ticketRepo)
    publisher := queue.NewPublisher(cfg.RabbitURL)
    if publisher == nil {
        log.Printf("rabbitmq not configured; ticket events disabled")
    } else {
        // The consumer appends sale and check-in events to the audit
        // log.  It reconnects on its own and never returns.
        go func() {
            if err := queue.StartTicketEventConsumer(cfg.RabbitURL, cfg.EventLogPath); err != nil {
                log.Printf("ticket-consumer stopped: %v", err)
            }
        }()
    }

    e := echo.New()
    router.Register(e, router.Handlers{
        Auth:    handler.NewAuthHandler(cfg, userRepo),
        Venues:  handler.NewVenueHandler(venueRepo),
        Shows:   handler.NewShowHandler(showRepo, venueRepo, ticketRepo, engine, cache),
        Tickets: handler.NewTicketHandler(engine, ticketRepo, showRepo, cache, publisher),
        Cache:   cache,
    }, cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}

// seedAdmin creates the bootstrap admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD when both are set and the account does not exist yet.
// All other staff accounts are provisioned through operations tooling.
func seedAdmin(users *repository.UserRepo, cfg config.Config) {
    email := os.Getenv("ADMIN_EMAIL")
    password := os.Getenv("ADMIN_PASSWORD")
    if email == "" || password == "" {
        return
    }

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    if _, err := users.GetByEmail(ctx, email); err == nil {
        return
    } else if err != repository.ErrNotFound {
        log.Printf("seed-admin: lookup failed: %v", err)
        return
    }
    if _, err := users.Create(ctx, email, "Administrator", password, "admin", cfg.BcryptCost); err != nil {
        log.Printf("seed-admin: create failed: %v", err)
        return
    }
    log.Printf("seed-admin: created admin account %s", email)
}
