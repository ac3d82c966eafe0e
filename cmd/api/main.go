package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "invoicedesk/api/swagger" // swagger docs
	"invoicedesk/internal/config"
	"invoicedesk/internal/database"
	"invoicedesk/internal/handler"
	"invoicedesk/internal/ksef"
	"invoicedesk/internal/middleware"
	"invoicedesk/internal/repository"
	"invoicedesk/internal/service"
	"invoicedesk/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           invoicedesk API
// @version         1.0
// @description     Sales invoices drafted by operators, stored per company and forwarded to KSeF.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	secret := cfg.Secret()

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	gateway, err := ksef.NewGateway(ksef.Options{
		Mode:           cfg.KSeF.Mode,
		SandboxBaseURL: cfg.KSeF.SandboxBaseURL,
		Timeout:        cfg.KSeF.Timeout,
	})
	if err != nil {
		log.Fatalf("KSeF gateway: %v", err)
	}
	dispatcher := ksef.NewDispatcher(cfg.KSeF.Workers, cfg.KSeF.QueueSize)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo)
	userService := service.NewUserService(userRepo, auditService, secret)
	companyService := service.NewCompanyService(companyRepo, auditService, txManager)
	invoiceService := service.NewInvoiceService(invoiceRepo, companyRepo, companyService, auditService, dispatcher, txManager)
	ksefService := service.NewKSeFService(invoiceRepo, gateway, auditService, wsHub, dispatcher)
	vatService := service.NewVATService(invoiceRepo, companyService)
	exportService := service.NewExportService(invoiceRepo, companyService, auditService)

	// Workers outlive the signal so the queue can drain on shutdown.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher.Start(workerCtx, ksefService)
	if n, err := ksefService.RequeuePending(ctx, dispatcher); err != nil {
		log.Printf("WARNING: %v", err)
	} else if n > 0 {
		log.Printf("KSeF forwarding: requeued %d pending invoices", n)
	}
	log.Printf("KSeF forwarding: mode=%s workers=%d queue=%d", gateway.Mode(), cfg.KSeF.Workers, cfg.KSeF.QueueSize)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	companyHandler := handler.NewCompanyHandler(companyService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, exportService)
	vatHandler := handler.NewVATHandler(vatService)
	ksefHandler := handler.NewKSeFHandler(ksefService, companyService, wsHub, secret)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// API Routing
	api := router.Group("/api")
	protected := api.Group("", middleware.RequireAuth(secret))

	userHandler.RegisterRoutes(api, protected)
	ksefHandler.RegisterRoutes(api)
	companyHandler.RegisterRoutes(protected)
	invoiceHandler.RegisterRoutes(protected)
	vatHandler.RegisterRoutes(protected)
	auditHandler.RegisterRoutes(protected)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	dispatcher.Stop()
	log.Println("Stopped.")
}
