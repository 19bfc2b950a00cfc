package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/storyloom-backend/internal/db"
	"github.com/yungbote/storyloom-backend/internal/handlers"
	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/middleware"
	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/server"
	"github.com/yungbote/storyloom-backend/internal/services"
	"github.com/yungbote/storyloom-backend/internal/sse"
	"github.com/yungbote/storyloom-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvSeconds("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvSeconds("REFRESH_TOKEN_TTL", 86400, log)

	// Database
	dbService, err := db.NewService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = dbService.AutoMigrateAll(); err != nil {
		log.Error("Auto migration failed", "error", err)
		os.Exit(1)
	}
	gdb := dbService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(gdb, log)
	userTokenRepo := repos.NewUserTokenRepo(gdb, log)
	storyRepo := repos.NewStoryRepo(gdb, log)
	sceneRepo := repos.NewSceneRepo(gdb, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)

	ctx := context.Background()

	// Providers
	log.Info("Setting up provider clients from main...")
	aiClient, err := services.NewOpenAIClient(log, services.AIClientConfig{
		BaseURL:    utils.GetEnv("OPENAI_BASE_URL", "https://api.openai.com", log),
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		Model:      utils.GetEnv("OPENAI_MODEL", "gpt-4o-mini", log),
		Timeout:    utils.GetEnvSeconds("OPENAI_TIMEOUT_SECONDS", 120, log),
		MaxRetries: utils.GetEnvAsInt("OPENAI_MAX_RETRIES", 3, log),
	})
	if err != nil {
		log.Error("Could not init AIClient", "error", err)
		os.Exit(1)
	}

	var stockClient services.StockImageClient
	if key := os.Getenv("UNSPLASH_ACCESS_KEY"); key != "" {
		stockClient, err = services.NewUnsplashClient(log, services.UnsplashConfig{AccessKey: key})
		if err != nil {
			log.Warn("Could not init StockImageClient", "error", err)
		}
	}

	var synthClient services.ImageSynthClient
	if key := os.Getenv("IMAGE_SYNTH_API_KEY"); key != "" {
		synthClient, err = services.NewImageSynthClient(log, services.ImageSynthConfig{
			APIKey: key,
			Model:  utils.GetEnv("IMAGE_SYNTH_MODEL", "dall-e-3", log),
		})
		if err != nil {
			log.Warn("Could not init ImageSynthClient", "error", err)
		}
	}

	var ttsClient services.TTSClient
	if os.Getenv("TTS_DISABLED") == "" {
		ttsClient, err = services.NewGoogleTTSClient(ctx, log, services.GoogleTTSConfig{
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			VoiceName:       utils.GetEnv("TTS_VOICE", "en-US-Wavenet-D", log),
		})
		if err != nil {
			log.Warn("Could not init TTSClient, narration disabled", "error", err)
			ttsClient = nil
		}
	}

	// Asset store
	staticDir := utils.GetEnv("STATIC_DIR", "static", log)
	assetStore, err := services.NewAssetStore(ctx, log, services.AssetStoreConfig{
		Mode:            services.AssetStoreMode(utils.GetEnv("ASSET_STORE_MODE", "local", log)),
		LocalDir:        staticDir,
		BucketName:      os.Getenv("GCS_BUCKET"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	})
	if err != nil {
		log.Error("Could not init AssetStore", "error", err)
		os.Exit(1)
	}

	// The rendered placeholder is preferred; the fixed static path backstops a
	// failed render or save so paragraphs never end up without an image URL.
	placeholderImageURL := services.DefaultPlaceholderImageURL
	if data, phErr := services.GeneratePlaceholderImage(); phErr != nil {
		log.Warn("Could not render placeholder image", "error", phErr)
	} else if url, saveErr := assetStore.Save(ctx, "images/placeholder.png", "image/png", data); saveErr != nil {
		log.Warn("Could not save placeholder image", "error", saveErr)
	} else {
		placeholderImageURL = url
	}

	// Event emitter
	var emitter services.EventEmitter = services.NewHubEmitter(log, sseHub)
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
		emitter = services.NewMultiEmitter(emitter, services.NewRedisEmitter(log, rdb, os.Getenv("REDIS_EVENT_CHANNEL")))
	}

	// Services
	log.Info("Setting up Services from main...")
	enricher := services.NewMediaEnricher(log, synthClient, stockClient, ttsClient, assetStore, placeholderImageURL, services.DefaultPlaceholderAudioURL)
	generator := services.NewStoryGenerator(log, aiClient)
	authService := services.NewAuthService(gdb, log, userRepo, userTokenRepo, jwtSecretKey, accessTokenTTL, refreshTokenTTL)
	storyService := services.NewStoryService(gdb, log, storyRepo, sceneRepo, generator, enricher, emitter)
	scenePipeline := services.NewScenePipeline(gdb, log, storyRepo, sceneRepo, generator, enricher, emitter)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	storyHandler := handlers.NewStoryHandler(storyService)
	sceneHandler := handlers.NewSceneHandler(scenePipeline, storyService)
	sseHandler := handlers.NewSSEHandler(sseHub)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		StoryHandler:   storyHandler,
		SceneHandler:   sceneHandler,
		SSEHandler:     sseHandler,
		StaticDir:      staticDir,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
