package di

import (
	"context"
	"fmt"

	"animehome/backend/ai"
	"animehome/backend/internal/relay"
	"animehome/backend/internal/service"
	"animehome/backend/internal/transcript"
	"animehome/backend/pkg/config"
	"animehome/backend/pkg/health"
	"animehome/backend/pkg/logger"
	"animehome/backend/pkg/resilience"
	"animehome/backend/pkg/secrets"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// ModelAPIKeySecret names the provider key in Vault. Without Vault it is read from MODEL_API_KEY.
const ModelAPIKeySecret = "model-api-key"

// Container holds all the dependencies for the application
type Container struct {
	DB               *gorm.DB
	Config           *config.Config
	Logger           *logger.Logger
	CharacterService *service.CharacterService
	MessageService   *service.MessageService
	RelayStore       *service.RelayStoreAdapter
	AIClient         ai.StreamingClient
	Relay            *relay.Relay
	Transcripts      transcript.Store
	Redis            *redis.Client
	Health           *health.Checker
}

// Options override parts of the container. Zero values are built from the config.
type Options struct {
	Logger      *logger.Logger
	AIClient    ai.StreamingClient
	Transcripts transcript.Store
	Tracer      trace.Tracer
}

// New creates a new dependency injection container
func New(ctx context.Context, db *gorm.DB, cfg *config.Config, opts Options) (*Container, error) {
	log := opts.Logger
	if log == nil {
		log = logger.New(logger.ConfigFromEnv(cfg.Logging.Level, cfg.Logging.Format))
	}

	characterService := service.NewCharacterService(db)
	messageService := service.NewMessageService(db)
	relayStore := service.NewRelayStoreAdapter(characterService, messageService)

	client := opts.AIClient
	if client == nil {
		apiKey := secrets.GetSecretWithDefault(ctx, ModelAPIKeySecret, cfg.Model.APIKey)
		openAI, err := ai.NewOpenAIClient(ai.OptionsFromConfig(cfg, apiKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
		client = ai.NewBreakerClient(openAI, resilience.DefaultCircuitBreakerConfig("model"), log)
	}

	checker := health.NewChecker(log, 0)
	checker.RegisterDatabaseCheck(db)

	transcripts := opts.Transcripts
	var redisClient *redis.Client
	if transcripts == nil {
		if cfg.Redis.URL != "" {
			rc, err := transcript.NewRedisClient(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return nil, fmt.Errorf("failed to create redis client: %w", err)
			}
			redisClient = rc
			transcripts = transcript.NewRedisStore(rc, cfg.Relay.TranscriptTTL)
			checker.RegisterRedisCheck(rc)
			log.Info("stream transcripts stored in redis")
		} else {
			transcripts = transcript.NewMemoryStore(cfg.Relay.TranscriptTTL)
			log.Info("stream transcripts kept in memory")
		}
	}

	r := relay.New(client, relayStore, relay.Options{
		PersistTimeout:    cfg.Relay.PersistTimeout,
		TranscriptTimeout: cfg.Relay.TranscriptTimeout,
		Transcript:        transcripts,
		Logger:            log,
		Tracer:            opts.Tracer,
	})

	return &Container{
		DB:               db,
		Config:           cfg,
		Logger:           log,
		CharacterService: characterService,
		MessageService:   messageService,
		RelayStore:       relayStore,
		AIClient:         client,
		Relay:            r,
		Transcripts:      transcripts,
		Redis:            redisClient,
		Health:           checker,
	}, nil
}

// Close releases the connections owned by the container. The database is closed by its opener.
func (c *Container) Close() error {
	if c.Relay != nil {
		c.Relay.Wait()
	}
	if c.Transcripts != nil {
		return c.Transcripts.Close()
	}
	return nil
}
