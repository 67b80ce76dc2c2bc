package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/config"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/database"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/handler"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/queue"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/repository"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/router"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/service"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/storage"
)

// sessionSweepInterval controls how often expired session rows are
// pruned. Expired sessions are also rejected at authentication time, so
// the sweep is housekeeping, not a security boundary.
const sessionSweepInterval = time.Hour

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient()
	limits := config.LoadRateLimits()

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	apps := repository.NewApplicationRepo(db)

	files := storage.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)

	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL)
		go queue.StartDecisionConsumer()
	} else {
		log.Println("rabbitmq: RABBITMQ_URL not set, event publishing disabled")
	}

	accessTTL := time.Duration(cfg.AccessTTLMin) * time.Minute
	refreshTTL := time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour

	authSvc := service.NewAuthService(users, sessions, files, cfg.JWTSecret, accessTTL, refreshTTL, cfg.BcryptCost)
	appSvc := service.NewApplicationService(apps, users, files, events)

	go sweepSessions(sessions)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORS())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), authSvc, limits, rdb)
	router.RegisterApplications(e, handler.NewApplicationHandler(appSvc), authSvc, limits, rdb)
	router.RegisterAdmin(e, handler.NewAdminHandler(appSvc), authSvc)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// sweepSessions periodically removes session rows whose refresh token has
// expired.
func sweepSessions(sessions *repository.SessionRepo) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := sessions.DeleteExpired(ctx)
		cancel()
		if err != nil {
			log.Printf("session sweep: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("session sweep: removed %d expired sessions", n)
		}
	}
}
