package main

import (
	"os"
	"strconv"

	_ "github.com/chainsense/backend/api/swagger" // swagger docs

	"github.com/chainsense/backend/internal/database"
	"github.com/chainsense/backend/internal/geo"
	"github.com/chainsense/backend/internal/handler"
	"github.com/chainsense/backend/internal/mailer"
	"github.com/chainsense/backend/internal/middleware"
	"github.com/chainsense/backend/internal/pdf"
	"github.com/chainsense/backend/internal/repository"
	"github.com/chainsense/backend/internal/service"
	"github.com/chainsense/backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// @title           Chain Sense API
// @version         1.0
// @description     Supply chain management API: inventory, vendors, purchase orders, billing and shipments.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		godotenv.Load() // fall back to a .env in the working directory
	}

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if envOr("LOG_FORMAT", "") == "console" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	dsn := "postgres://" + envOr("DB_USER", "postgres") + ":" + envOr("DB_PASSWORD", "postgres") +
		"@" + envOr("DB_HOST", "localhost") + ":" + envOr("DB_PORT", "5432") +
		"/" + envOr("DB_NAME", "chainsense") + "?sslmode=" + envOr("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Outbound channels, disabled unless configured
	var mail mailer.Mailer = mailer.NewDisabledMailer(log)
	if smtpUser := os.Getenv("SMTP_USER"); smtpUser != "" {
		smtpPort, _ := strconv.Atoi(envOr("SMTP_PORT", "587"))
		mail = mailer.NewSMTPMailer(
			envOr("SMTP_HOST", "smtp.gmail.com"), smtpPort,
			smtpUser, os.Getenv("SMTP_PASSWORD"), os.Getenv("SMTP_FROM"),
		)
	}
	var sms mailer.SMSSender = mailer.NewDisabledSMS(log)
	if sid := os.Getenv("TWILIO_ACCOUNT_SID"); sid != "" {
		sms = mailer.NewTwilioSender(sid, os.Getenv("TWILIO_AUTH_TOKEN"), os.Getenv("TWILIO_FROM_NUMBER"))
	}

	renderer := pdf.NewRenderer(envOr("INVOICE_DIR", "invoices"), log)
	geocoder := geo.NewNominatim(os.Getenv("NOMINATIM_URL"))

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	orderRepo := repository.NewPurchaseOrderRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, userRepo, wsHub, mail, sms, log)
	userService := service.NewUserService(userRepo)
	vendorService := service.NewVendorService(vendorRepo, userRepo)
	inventoryService := service.NewInventoryService(inventoryRepo, txManager, notificationService, wsHub, log)
	billingService := service.NewBillingService(invoiceRepo, vendorRepo, txManager, renderer, notificationService, log)
	orderService := service.NewPurchaseOrderService(orderRepo, vendorRepo, inventoryRepo, txManager, inventoryService, billingService, notificationService, wsHub, log)
	shipmentService := service.NewShipmentService(shipmentRepo, vendorRepo, orderRepo, geocoder, wsHub, log)
	statisticsService := service.NewStatisticsService(db)

	authHandler := handler.NewAuthHandler(userService)
	vendorHandler := handler.NewVendorHandler(vendorService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	orderHandler := handler.NewPurchaseOrderHandler(orderService)
	billingHandler := handler.NewBillingHandler(billingService)
	shipmentHandler := handler.NewShipmentHandler(shipmentService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	authHandler.RegisterRoutes(router.Group(""))
	vendorHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	billingHandler.RegisterRoutes(router.Group(""))
	shipmentHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")
	log.Info().Str("port", port).Msg("server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
