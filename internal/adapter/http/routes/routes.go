package routes

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	_ "mecanica_oficina/docs"
	"mecanica_oficina/internal/adapter/http/dto/request"
	"mecanica_oficina/internal/adapter/http/handlers"
	"mecanica_oficina/internal/app"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter wires every handler of the API under /v1.
func NewRouter(a *app.App) *gin.Engine {
	request.RegisterValidators()

	router := gin.New()
	setMiddlewares(router)

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addCatalogRoutes(v1, handlers.NewCatalogHandler(a.Catalog))
	addWorkOrderRoutes(v1, handlers.NewWorkOrderHandler(a.WorkOrders))
	addInvoiceRoutes(v1, handlers.NewInvoiceHandler(a.Invoices), handlers.NewInvoicePaymentHandler(a.Payments))
	return router
}

// Run serves the API on port until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, port int, a *app.App) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: NewRouter(a),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[http] listening addr=%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Printf("[http] shutting down")
	return srv.Shutdown(shutdownCtx)
}

func setMiddlewares(router *gin.Engine) {
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
}
