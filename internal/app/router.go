package app

import (
	"log"
	"time"

	"platefeed/internal/config"
	"platefeed/internal/middleware"
	"platefeed/internal/model"
	"platefeed/internal/repository"
	"platefeed/internal/service"
	"platefeed/internal/util"
	"platefeed/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	// Set Gin mode
	if cfg.ServerPort == "5000" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware(cfg.ClientURL))

	// Rate limiting middleware (if enabled)
	if cfg.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&model.User{},
		&model.Rating{},
		&model.Post{},
		&model.Like{},
		&model.WantToGo{},
		&model.Tag{},
		&model.PostTag{},
		&model.Notification{},
	); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// Initialize Redis with retry logic
	redisClient := initRedisWithRetry(cfg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	postRepo := repository.NewPostRepository(db, redisClient)
	likeRepo := repository.NewLikeRepository(db, redisClient)
	wtgRepo := repository.NewWantToGoRepository(db, redisClient)
	tagRepo := repository.NewTagRepository(db, redisClient)
	notificationRepo := repository.NewNotificationRepository(db)

	// Seed the reference rating rows
	if err := ratingRepo.Seed(); err != nil {
		log.Printf("Warning: Failed to seed ratings: %v", err)
	}

	// Initialize RabbitMQ with retry logic
	rabbitMQ := initRabbitMQWithRetry(cfg)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("WebSocket hub started")

	// Initialize Cloudinary client
	var cloudinaryClient *util.CloudinaryClient
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cloudinaryClient, err = util.NewCloudinaryClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v. Image uploads will be disabled.", err)
		} else {
			log.Println("Cloudinary initialized successfully")
		}
	} else {
		log.Println("Cloudinary credentials not configured. Image uploads will be disabled.")
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	notificationService := service.NewNotificationService(notificationRepo, rabbitMQ)
	notificationService.SetWSHub(wsHub)
	viewService := service.NewViewService(postRepo, likeRepo, wtgRepo, tagRepo)
	tagService := service.NewTagService(tagRepo, postRepo)
	interactionService := service.NewInteractionService(likeRepo, wtgRepo, postRepo, userRepo, notificationService)
	postService := service.NewPostService(db, postRepo, userRepo, ratingRepo, tagRepo, likeRepo, wtgRepo, notificationRepo, tagService, viewService)
	searchService := service.NewSearchService(tagRepo, viewService)

	// Initialize notification worker if RabbitMQ is available
	if rabbitMQ != nil {
		notificationWorker := service.NewNotificationWorker(rabbitMQ, wsHub)
		if err := notificationWorker.Start(); err != nil {
			log.Printf("Warning: Failed to start notification worker: %v", err)
		} else {
			log.Println("Notification worker started successfully")
		}
	}

	// Initialize handlers
	authHandler := NewAuthHandler(authService, cfg.JWTSecret)
	postHandler := NewPostHandler(postService, interactionService, searchService, cloudinaryClient)
	notificationHandler := NewNotificationHandler(notificationService)

	// API routes
	api := r.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Post routes
		posts := api.Group("/posts")
		{
			// Public routes; a valid token upgrades the view with viewer flags
			// IMPORTANT: More specific routes must be registered before wildcard routes
			posts.GET("/search", authHandler.OptionalAuthMiddleware(), postHandler.SearchText)
			posts.GET("/search/tags", authHandler.OptionalAuthMiddleware(), postHandler.SearchByTags)
			posts.GET("", authHandler.OptionalAuthMiddleware(), postHandler.ListPosts)
			posts.GET("/:id/likes/count", postHandler.GetLikeCount)
			posts.GET("/:id/want-to-go/count", postHandler.GetWantToGoCount)
			posts.GET("/:id", authHandler.OptionalAuthMiddleware(), postHandler.GetPost)
			posts.POST("/:id/share", authHandler.OptionalAuthMiddleware(), postHandler.SharePost)

			// Protected routes
			posts.POST("", authHandler.AuthMiddleware(), postHandler.CreatePost)
			posts.PUT("/:id", authHandler.AuthMiddleware(), postHandler.UpdatePost)
			posts.DELETE("/:id", authHandler.AuthMiddleware(), postHandler.DeletePost)
			posts.POST("/:id/images", authHandler.AuthMiddleware(), postHandler.UploadImages)
			posts.POST("/:id/like", authHandler.AuthMiddleware(), postHandler.ToggleLike)
			posts.POST("/:id/want-to-go", authHandler.AuthMiddleware(), postHandler.ToggleWantToGo)
			posts.POST("/:id/tags", authHandler.AuthMiddleware(), postHandler.AddTags)
			posts.DELETE("/:id/tags/:name", authHandler.AuthMiddleware(), postHandler.RemoveTag)
		}

		// Rating reference data
		api.GET("/ratings", postHandler.GetRatings)

		// Notification routes
		notifications := api.Group("/notifications")
		{
			notifications.Use(authHandler.AuthMiddleware())
			{
				notifications.GET("", notificationHandler.GetNotifications)
				notifications.GET("/unread/count", notificationHandler.GetUnreadCount)
				notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
				notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
			}
		}
	}

	// WebSocket endpoint
	r.GET("/ws", gin.WrapF(websocket.ServeWS(wsHub, cfg.JWTSecret)))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSSLMode

	// TranslateError turns driver unique violations into gorm.ErrDuplicatedKey,
	// which the repositories rely on for toggle compensation
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// initRedisWithRetry attempts to connect to Redis with exponential backoff retry
func initRedisWithRetry(cfg *config.Config) *util.RedisClient {
	maxRetries := 5
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		redisClient, err := util.NewRedisClient(cfg)
		if err == nil {
			log.Printf("Redis connected successfully on attempt %d", attempt)
			return redisClient
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}
			log.Printf("Failed to connect to Redis (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to Redis after %d attempts: %v. Caching will be disabled.", maxRetries, err)
		}
	}

	return nil
}

// initRabbitMQWithRetry attempts to connect to RabbitMQ with exponential backoff retry
func initRabbitMQWithRetry(cfg *config.Config) *util.RabbitMQClient {
	if cfg.RabbitMQURL == "" {
		log.Println("RabbitMQ URL not configured. Notifications will be delivered over WebSocket only.")
		return nil
	}

	maxRetries := 5
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		rabbitMQ, err := util.NewRabbitMQClient(cfg)
		if err == nil {
			log.Printf("RabbitMQ connected successfully on attempt %d", attempt)
			return rabbitMQ
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}
			log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to RabbitMQ after %d attempts: %v. Falling back to direct WebSocket delivery.", maxRetries, err)
		}
	}

	return nil
}

func corsMiddleware(clientURL string) gin.HandlerFunc {
	allowedOrigins := []string{
		clientURL,
		"http://localhost:3000",
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", clientURL)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
