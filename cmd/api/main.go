package main

import (
	"context"
	"log"
	"os"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           University HR Administration API
// @version         1.0
// @description     Staff administration, approval workflows, payroll and performance management for a university HR office.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// RequirePermission needs the DB for role/permission lookups
	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	balanceRepo := repository.NewLeaveBalanceRepository(db)
	lifecycleRepo := repository.NewLifecycleRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	performanceRepo := repository.NewPerformanceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, userRepo, wsHub)
	userService := service.NewUserService(userRepo, staffRepo)
	staffService := service.NewStaffService(txManager, staffRepo, orgRepo, auditRepo)
	orgService := service.NewOrganizationService(orgRepo)
	workflowService := service.NewWorkflowService(txManager, workflowRepo, staffRepo, userRepo, orgRepo, balanceRepo, auditRepo, notificationService)
	payrollService := service.NewPayrollService(txManager, payrollRepo, staffRepo, userRepo, auditRepo, notificationService)
	lifecycleService := service.NewLifecycleService(txManager, lifecycleRepo, staffRepo, balanceRepo, userRepo, auditRepo, notificationService)
	performanceService := service.NewPerformanceService(txManager, performanceRepo, staffRepo, auditRepo)
	reportService := service.NewReportService(staffRepo, payrollRepo)
	auditService := service.NewAuditService(auditRepo)
	roleService := service.NewRoleService(db)

	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Printf("WARNING: Failed to seed roles and permissions: %v", err)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	staffHandler := handler.NewStaffHandler(staffService)
	orgHandler := handler.NewOrganizationHandler(orgService)
	workflowHandler := handler.NewWorkflowHandler(workflowService)
	payrollHandler := handler.NewPayrollHandler(payrollService)
	lifecycleHandler := handler.NewLifecycleHandler(lifecycleService)
	performanceHandler := handler.NewPerformanceHandler(performanceService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	reportHandler := handler.NewReportHandler(reportService)
	auditHandler := handler.NewAuditHandler(auditService)
	roleHandler := handler.NewRoleHandler(roleService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	api := router.Group("/api")
	userHandler.RegisterRoutes(api)
	staffHandler.RegisterRoutes(api)
	orgHandler.RegisterRoutes(api)
	workflowHandler.RegisterRoutes(api)
	payrollHandler.RegisterRoutes(api)
	lifecycleHandler.RegisterRoutes(api)
	performanceHandler.RegisterRoutes(api)
	notificationHandler.RegisterRoutes(api)
	reportHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	roleHandler.RegisterRoutes(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
