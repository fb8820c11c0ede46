package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/grzegorz-kurc/MyStorage/config"
	"github.com/grzegorz-kurc/MyStorage/db"
	"github.com/grzegorz-kurc/MyStorage/internal/auth/handler"
	repo "github.com/grzegorz-kurc/MyStorage/internal/auth/repository/postgres"
	"github.com/grzegorz-kurc/MyStorage/internal/auth/service"
	"github.com/grzegorz-kurc/MyStorage/internal/email"
	"github.com/grzegorz-kurc/MyStorage/internal/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logging.New("production").Error(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Env)

	if err := db.RunMigrations(ctx, cfg.DBURL); err != nil {
		log.Error(ctx, "failed to run migrations", "error", err)
		os.Exit(1)
	}

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	userRepo := repo.NewPostgresRepository(dbPool)
	tokenService := service.NewTokenService(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSecret,
		cfg.AccessExpiryMinutes, cfg.RefreshExpiryDays)
	mailer := email.NewMailjetMailer(cfg.MailjetAPIKey, cfg.MailjetSecretKey, cfg.SenderEmail, cfg.SenderName)
	userService := service.NewUserService(userRepo, tokenService, mailer, cfg, log)
	authHandler := handler.NewAuthHandler(userService, tokenService)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	log.Info(ctx, "starting auth service", "port", cfg.Port, "env", cfg.Env)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}
