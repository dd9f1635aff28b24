// Package chatlog persists question/answer exchanges to MongoDB.
//
// The sink is optional: when no URI is configured the service runs without
// it, and sink failures are logged by callers rather than surfaced to API
// clients.
package chatlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrInvalidConfig indicates invalid sink configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the MongoDB sink configuration.
type Config struct {
	// URI is the MongoDB connection string. Required.
	URI string

	// Database is the database name. Default: chatbot
	Database string

	// Collection is the collection name. Default: chat_logs
	Collection string

	// ConnectTimeout bounds the initial connection. Default: 10s
	ConnectTimeout time.Duration
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Database == "" {
		c.Database = "chatbot"
	}
	if c.Collection == "" {
		c.Collection = "chat_logs"
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

// Entry is one logged exchange.
type Entry struct {
	URL       string    `bson:"url"`
	UserQuery string    `bson:"user_query"`
	BotAnswer string    `bson:"bot_response"`
	Timestamp time.Time `bson:"timestamp"`
}

// Store writes chat log entries to MongoDB.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

// New connects to MongoDB and returns a Store.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: URI required", ErrInvalidConfig)
	}
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	logger.Info("chat log sink connected",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection),
	)

	return &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger,
	}, nil
}

// Insert writes one exchange and returns the record id.
func (s *Store) Insert(ctx context.Context, url, query, answer string) (string, error) {
	entry := Entry{
		URL:       url,
		UserQuery: query,
		BotAnswer: answer,
		Timestamp: time.Now().UTC(),
	}

	res, err := s.collection.InsertOne(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("inserting chat log: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", res.InsertedID), nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
