package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"expense-bot/internal/api"
	"expense-bot/internal/api/handlers"
	"expense-bot/internal/app"
	"expense-bot/internal/service"
	"expense-bot/pkg/auth"
	"expense-bot/pkg/config"
	"expense-bot/pkg/logger"

	"go.uber.org/zap"
)

// @title Expense Bot API
// @version 1.0
// @description Registro de despesas a partir de comprovantes e consultas em linguagem natural

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 2 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting expense bot")

	ctx := context.Background()
	application, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	replier := service.NewTwilioReplier(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, appLogger)
	dispatcher := service.NewDispatcher(application.Messages, replier, cfg.Server.MaxConcurrentMessages, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	server := api.SetupRouter(api.Handlers{
		Webhook: handlers.NewWebhookHandler(dispatcher, appLogger),
		Expense: handlers.NewExpenseHandler(application.Users, application.Expenses, application.Messages, appLogger),
	}, cfg.Server, jwtManager, application.Metrics, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := server.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := server.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}

	// in-flight messages still get their reply
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Dispatcher shutdown error", zap.Error(err))
	}
}
