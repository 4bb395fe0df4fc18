package redisblob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/internal/logging"
)

const (
	defaultKeyPrefix = "jobboard:blob:"

	fieldContent    = "content"
	fieldVersion    = "version"
	fieldGeneration = "generation"
)

// Backend stores each blob as a Redis hash {content, version, generation}.
// Conditional writes run inside WATCH/MULTI so a concurrent writer aborts the
// transaction instead of being overwritten.
type Backend struct {
	client    *redis.Client
	keyPrefix string
	logger    logging.Logger
}

// New connects to the Redis instance described by cfg.Redis
func New(cfg *config.Config, logger logging.Logger) (*Backend, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	timeout := cfg.Redis.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout

	return NewWithClient(redis.NewClient(opts), defaultKeyPrefix, logger), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, keyPrefix string, logger logging.Logger) *Backend {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Backend{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger.WithField("backend", "redis"),
	}
}

func (b *Backend) Name() string {
	return "redis"
}

func (b *Backend) key(path string) string {
	return b.keyPrefix + path
}

func (b *Backend) Get(ctx context.Context, path string) (jobstore.Blob, error) {
	values, err := b.client.HMGet(ctx, b.key(path), fieldContent, fieldVersion).Result()
	if err != nil {
		return jobstore.Blob{}, jobstore.Unavailable("redis get", err)
	}

	content, ok := values[0].(string)
	if !ok {
		return jobstore.Blob{}, jobstore.ErrNotFound
	}
	version, _ := values[1].(string)

	return jobstore.Blob{Content: []byte(content), Version: version}, nil
}

func (b *Backend) Put(ctx context.Context, path string, content []byte, expectedVersion string) (string, error) {
	key := b.key(path)
	var newVersion string

	txf := func(tx *redis.Tx) error {
		values, err := tx.HMGet(ctx, key, fieldVersion, fieldGeneration).Result()
		if err != nil {
			return err
		}

		current, _ := values[0].(string)
		if current != expectedVersion {
			return jobstore.ErrVersionConflict
		}

		generation := int64(0)
		if raw, ok := values[1].(string); ok {
			generation, _ = strconv.ParseInt(raw, 10, 64)
		}
		generation++
		newVersion = versionOf(generation, content)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldContent, content,
				fieldVersion, newVersion,
				fieldGeneration, generation,
			)
			return nil
		})
		return err
	}

	err := b.client.Watch(ctx, txf, key)
	switch {
	case err == nil:
		b.logger.Debug("blob written", map[string]interface{}{"key": key, "version": newVersion})
		return newVersion, nil
	case errors.Is(err, jobstore.ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return "", jobstore.ErrVersionConflict
	default:
		return "", jobstore.Unavailable("redis put", err)
	}
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *Backend) Close() error {
	return b.client.Close()
}

// versionOf hashes the generation together with the content so that writing
// identical bytes twice still produces a new token.
func versionOf(generation int64, content []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:", generation)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
