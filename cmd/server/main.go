package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/chatwave/chatwave-backend/internal/cache"
	"github.com/chatwave/chatwave-backend/internal/handlers"
	"github.com/chatwave/chatwave-backend/internal/middleware"
	"github.com/chatwave/chatwave-backend/internal/presence"
	"github.com/chatwave/chatwave-backend/internal/repository"
	"github.com/chatwave/chatwave-backend/internal/service"
	"github.com/chatwave/chatwave-backend/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "ChatWave Backend",
		// Support media uploads up to 25MB + overhead.
		BodyLimit: 32 * 1024 * 1024, // 32MB
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	var presenceStore presence.Store
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache; presence is in-process only.", err)
		redisCache = nil
		presenceStore = presence.NewMemoryStore()
	} else {
		log.Println("Redis connected successfully")
		presenceStore = presence.NewRedisStore(redisCache.Client())
	}

	chatCache := cache.NewChatCache(redisCache)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	chatService := service.NewChatService(chatRepo, messageRepo, userRepo, chatCache)
	messageService := service.NewMessageService(chatRepo, messageRepo, receiptRepo, presenceStore)
	statusService := service.NewStatusService(chatRepo, messageRepo, receiptRepo)

	// Initialize S3/MinIO storage (best-effort; media endpoints return 503 if missing)
	var s3Store *storage.S3Storage
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewS3Storage(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		s3Store = st
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(chatService, messageService, statusService, userService, presenceStore)
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	chatHandler := handlers.NewChatHandler(chatService, messageService)
	mediaHandler := handlers.NewMediaHandler(s3Store)

	// Public routes
	api := app.Group("/api", middleware.OriginAllowed())
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Protected routes
	protected := api.Group("/", middleware.AuthRequired(authService))
	protected.Get("/users/me", authHandler.GetCurrentUser)
	protected.Get("/users/search", userHandler.SearchUsers)

	protected.Get("/chats", chatHandler.ListChats)
	protected.Post("/chats/direct", chatHandler.CreateDirectChat)
	protected.Post("/chats/group", chatHandler.CreateGroupChat)
	protected.Get("/chats/:id/messages", chatHandler.GetMessages)
	protected.Post("/chats/:id/leave", chatHandler.LeaveChat)
	protected.Delete("/chats/:id", chatHandler.DeleteChat)

	protected.Post("/media", mediaHandler.UploadMedia)
	protected.Get("/media/*", mediaHandler.GetMedia)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(authService),
		func(c *fiber.Ctx) error {
			// Upgrade to WebSocket
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "ChatWave is running",
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
