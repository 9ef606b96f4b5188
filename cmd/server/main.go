package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/openclaw/bountyboard/internal/config"
	"github.com/openclaw/bountyboard/internal/database"
	"github.com/openclaw/bountyboard/internal/handler"
	"github.com/openclaw/bountyboard/internal/mail"
	"github.com/openclaw/bountyboard/internal/queue"
	"github.com/openclaw/bountyboard/internal/repository"
	"github.com/openclaw/bountyboard/internal/router"
	"github.com/openclaw/bountyboard/internal/service"
	"github.com/openclaw/bountyboard/internal/storage"
	"github.com/openclaw/bountyboard/internal/stream"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	bounties := repository.NewBountyRepo(db)

	hub := stream.NewHub()
	mailer := mail.NewSMTPSender(cfg)

	authSvc := service.NewAuthService(users, mailer, cfg.JWTSecret, cfg.TokenTTLDays, cfg.BcryptCost, cfg.OTPTTLMin)
	bountySvc := service.NewBountyService(bounties, users, hub)
	googleSvc := service.NewGoogleOAuth(cfg)

	presigner, err := storage.NewPresigner(context.Background(), cfg)
	if err != nil {
		log.Printf("presigned uploads disabled: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	// Audit consumer; reconnects on its own and never stops the server.
	go func() {
		if err := queue.StartBountyConsumer(); err != nil {
			log.Printf("bounty consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Cfg:    cfg,
		Redis:  rdb,
		Auth:   handler.NewAuthHandler(cfg, authSvc, googleSvc),
		Bounty: handler.NewBountyHandler(bountySvc),
		Stream: handler.NewStreamHandler(hub),
		Upload: handler.NewUploadHandler(presigner),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
