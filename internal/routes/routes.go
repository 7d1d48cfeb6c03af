// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"pos-service/internal/config"
	"pos-service/internal/handler"
	"pos-service/internal/middleware"
	"pos-service/internal/utils"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Health      *handler.HealthHandler
	Printer     *handler.PrinterHandler
	Receipt     *handler.ReceiptHandler
	Product     *handler.ProductHandler
	Transaction *handler.TransactionHandler
	Job         *handler.JobHandler
	WebSocket   *handler.WebSocketHandler
}

// Router holds all dependencies for routing
type Router struct {
	config   *config.Config
	logger   *zap.Logger
	handlers *Handlers
}

// NewRouter creates a new router instance
func NewRouter(config *config.Config, logger *zap.Logger, handlers *Handlers) *Router {
	return &Router{
		config:   config,
		logger:   logger,
		handlers: handlers,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	r.handlers.Health.RegisterRoutes(router)

	apiV1 := router.Group("/api/v1")
	r.handlers.Printer.RegisterRoutes(apiV1)
	r.handlers.Job.RegisterRoutes(apiV1)
	r.handlers.Receipt.RegisterRoutes(apiV1)
	r.handlers.Product.RegisterRoutes(apiV1)
	r.handlers.Transaction.RegisterRoutes(apiV1)

	r.handlers.WebSocket.RegisterRoutes(router.Group("/ws"))

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
