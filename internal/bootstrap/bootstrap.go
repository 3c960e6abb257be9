// Package bootstrap connects the external systems the API and the CLI share.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mansoorceksport/trackhub/internal/config"
	"github.com/mansoorceksport/trackhub/internal/infrastructure/events"
	"github.com/mansoorceksport/trackhub/internal/infrastructure/mailer"
	"github.com/mansoorceksport/trackhub/internal/middleware"
	"github.com/mansoorceksport/trackhub/internal/repository"
	"github.com/mansoorceksport/trackhub/internal/server"
	"github.com/mansoorceksport/trackhub/internal/service"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

const connectTimeout = 10 * time.Second

// Infra holds live connections. Close releases them in reverse order.
type Infra struct {
	Mongo  *mongo.Client
	Redis  *redis.Client
	Deps   server.AppDependencies
	logger *slog.Logger
}

// Connect dials MongoDB, Redis and S3 and prepares the event sink, the
// mailer and, when configured, Firebase
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Infra, error) {
	infra := &Infra{logger: logger}

	ctxMongo, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
	if cfg.OTEL.Enabled {
		mongoOpts.SetMonitor(otelmongo.NewMonitor())
	}
	mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	infra.Mongo = mongoClient
	if err := mongoClient.Ping(ctxMongo, nil); err != nil {
		infra.Close(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	logger.Info("MongoDB connected", "database", cfg.MongoDB.Database)

	infra.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := infra.Redis.Ping(ctx).Err(); err != nil {
		infra.Close(ctx)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("Redis connected", "addr", cfg.Redis.Addr)

	media, err := repository.NewS3MediaStorage(ctx, cfg.S3)
	if err != nil {
		infra.Close(ctx)
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}

	var authClient service.FirebaseAuthClient
	if cfg.Firebase.ProjectID != "" {
		client, err := middleware.NewFirebaseAuthClient(ctx, cfg.Firebase)
		if err != nil {
			infra.Close(ctx)
			return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
		}
		authClient = client
		logger.Info("Firebase initialized", "project", cfg.Firebase.ProjectID)
	} else {
		logger.Warn("Firebase not configured, social login disabled")
	}

	infra.Deps = server.AppDependencies{
		Config:      cfg,
		MongoDB:     mongoClient.Database(cfg.MongoDB.Database),
		RedisClient: infra.Redis,
		Media:       media,
		Events:      events.New(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, logger),
		Mailer:      mailer.New(cfg.SMTP, logger),
		AuthClient:  authClient,
		Logger:      logger,
	}
	return infra, nil
}

// Close flushes events and disconnects from the stores
func (i *Infra) Close(ctx context.Context) {
	if i.Deps.Events != nil {
		if err := i.Deps.Events.Close(); err != nil {
			i.logger.Error("error closing event publisher", "error", err)
		}
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.Mongo != nil {
		if err := i.Mongo.Disconnect(ctx); err != nil {
			i.logger.Error("error disconnecting from MongoDB", "error", err)
		}
	}
}
