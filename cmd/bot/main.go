package main

import (
	"github.com/joho/godotenv"
	"github.com/nemirov/pulse-bot/internal/ai"
	"github.com/nemirov/pulse-bot/internal/analytics"
	"github.com/nemirov/pulse-bot/internal/api"
	"github.com/nemirov/pulse-bot/internal/bot"
	"github.com/nemirov/pulse-bot/internal/search"
	"github.com/nemirov/pulse-bot/internal/sentiment"
	"github.com/nemirov/pulse-bot/internal/storage"
	"github.com/nemirov/pulse-bot/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load .env if present, then configuration
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		store, err = storage.NewPostgresStorage(dbConfig)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize services
	tagger := sentiment.NewTagger()
	completer := ai.NewClient(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.VisionModel,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		logger,
	)
	searchClient := search.NewClient(completer, logger)
	aggregator := analytics.NewAggregator(store)

	// Serve the analytics API alongside the bot
	server := api.NewServer(aggregator, cfg.Server.AllowedOrigins, logger)
	go func() {
		logger.Info("Starting analytics API", zap.String("addr", cfg.Server.Addr))
		if err := server.Run(cfg.Server.Addr); err != nil {
			logger.Fatal("Analytics API error", zap.Error(err))
		}
	}()

	// Initialize bot
	b, err := bot.New(
		cfg.Telegram.Token,
		store,
		tagger,
		completer,
		searchClient,
		aggregator,
		cfg.Telegram.AdminUsername,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if err := b.Start(); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
