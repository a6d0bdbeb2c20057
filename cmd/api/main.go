package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	_ "mecanica_oficina/docs"
	"mecanica_oficina/internal/adapter/http/routes"
	"mecanica_oficina/internal/app"
	"mecanica_oficina/internal/config"
	"mecanica_oficina/internal/worker"

	_ "github.com/joho/godotenv/autoload"
)

// @title           Oficina Work Order API
// @version         1.0
// @description     Workshop work orders, invoices and invoice payments backed by DynamoDB.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080

// @BasePath  /v1

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.Dump()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build the application: %v", err)
	}

	go worker.NewReconciler(a.Invoices, cfg.ReconcileInterval, cfg.ReconcileBatch).Start(ctx)

	if err := routes.Run(ctx, cfg.Port, a); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to startup the application: %v", err)
	}
}
