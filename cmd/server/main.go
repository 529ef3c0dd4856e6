package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/inventory"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
	queue_publisher "github.com/iliyamo/cinema-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	grid := inventory.BuildGrid(cfg.HallRows, cfg.HallCols)

	var (
		store   booking.Store
		ledger  booking.Ledger
		members handler.MemberStore
	)

	switch cfg.InventoryBackend {
	case "mysql":
		db, err := database.Open(database.Options{
			User: cfg.DBUser, Pass: cfg.DBPass,
			Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		})
		if err != nil {
			log.Fatalf("mysql connect failed: %v", err)
		}

		ctx := context.Background()
		seats := repository.NewSeatStore(db)
		if err := seats.EnsureSchema(ctx); err != nil {
			log.Fatalf("seat schema setup failed: %v", err)
		}
		if err := seats.SeedGrid(ctx, grid); err != nil {
			log.Fatalf("seat grid seeding failed: %v", err)
		}
		users := repository.NewUserRepo(db)
		if err := users.EnsureSchema(ctx); err != nil {
			log.Fatalf("user schema setup failed: %v", err)
		}
		store, ledger, members = seats, seats, users
	case "memory":
		mem := inventory.NewMemoryStore(grid)
		store, ledger = mem, mem
		members = handler.NewStaticMembers(
			os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"), cfg.BcryptCost)
	default:
		log.Fatalf("unknown INVENTORY_BACKEND %q (want memory or mysql)", cfg.InventoryBackend)
	}

	engine := booking.NewEngine(store, ledger, booking.NewPolicy(cfg.BookingMode))

	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()

	sessions := handler.NewSessionHandler(cfg, members)
	bookings := handler.NewBookingHandler(engine, store, ledger)
	bookings.Publish = func(ev queue.BookingCompletedEvent) {
		if err := queue_publisher.PublishBookingCompleted(context.Background(), ev); err != nil {
			log.Printf("publish booking event failed: %v", err)
		}
	}
	if rdb != nil {
		bookings.FlushSeatConfig = func() {
			middleware.FlushRoute(context.Background(), cacheCfg, rdb, http.MethodGet, "/v1/seat-config")
		}
	}

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterSession(e, sessions)
	router.RegisterBooking(e, bookings, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s backend=%s mode=%s guest_checkout=%t hall=%dx%d)",
		addr, cfg.Env, cfg.InventoryBackend, cfg.BookingMode, cfg.GuestCheckout, cfg.HallRows, cfg.HallCols)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
