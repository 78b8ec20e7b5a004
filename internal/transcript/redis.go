package transcript

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"animehome/backend/internal/relay"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "animehome:stream:"

// RedisStore keeps transcripts in Redis so any instance can serve a recovery request.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL, or a bare host:port address.
func NewRedisClient(url, password string, db int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	if password != "" {
		opts.Password = password
	}
	if db != 0 {
		opts.DB = db
	}
	return redis.NewClient(opts), nil
}

// DefaultTTL applies when a store is built without a positive TTL.
const DefaultTTL = 10 * time.Minute

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func contentKey(streamID string) string { return keyPrefix + streamID + ":content" }
func statusKey(streamID string) string  { return keyPrefix + streamID + ":status" }

func (r *RedisStore) Append(ctx context.Context, streamID, fragment string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Append(ctx, contentKey(streamID), fragment)
		pipe.Expire(ctx, contentKey(streamID), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append transcript %s: %w", streamID, err)
	}
	return nil
}

func (r *RedisStore) Finish(ctx context.Context, streamID string, res *relay.Result) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, statusKey(streamID),
			"done", "1",
			"delivery", string(res.Delivery),
			"persistence", string(res.Persistence),
			"message_id", res.MessageID,
		)
		pipe.Expire(ctx, statusKey(streamID), r.ttl)
		// An empty completion never appended, so make sure the content key exists too.
		pipe.Append(ctx, contentKey(streamID), "")
		pipe.Expire(ctx, contentKey(streamID), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to finish transcript %s: %w", streamID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, streamID string) (*Entry, error) {
	var content *redis.StringCmd
	var status *redis.MapStringStringCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		content = pipe.Get(ctx, contentKey(streamID))
		status = pipe.HGetAll(ctx, statusKey(streamID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read transcript %s: %w", streamID, err)
	}

	text, err := content.Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript %s: %w", streamID, err)
	}

	fields := status.Val()
	done, _ := strconv.ParseBool(fields["done"])
	return &Entry{
		StreamID:    streamID,
		Content:     text,
		Done:        done,
		Delivery:    fields["delivery"],
		Persistence: fields["persistence"],
		MessageID:   fields["message_id"],
	}, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
