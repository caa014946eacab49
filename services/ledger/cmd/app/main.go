package main

import (
	"thankatech/pkg/config"
	app "thankatech/services/ledger/internal/app"

	_ "thankatech/services/ledger/docs" // Swagger docs
)

// @title           Ledger Service API
// @version         1.0
// @description     Appreciation ledger for ThankATech: points, TOA tokens, conversions and transaction history

// @contact.name   API Support

// @host      localhost:8001
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Validate JWT_SECRET for services that use JWT
	if cfg.JWTSecret == "your-secret-key-change-in-production" || cfg.JWTSecret == "" {
		panic("JWT_SECRET must be set in environment variables")
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		panic(err)
	}

	if err := application.Run(); err != nil {
		panic(err)
	}

	application.Wait()

	if err := application.Shutdown(); err != nil {
		panic(err)
	}
}
