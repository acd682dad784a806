package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sartorproj/weathercast/compare"
	"github.com/sartorproj/weathercast/timeseries"
)

// RedisConfig configures the Redis store.
type RedisConfig struct {
	URL      string        // redis://host:port/db, or a bare host:port
	Password string        // used with a bare address
	DB       int           // used with a bare address
	Prefix   string        // key prefix (default "weathercast")
	TTL      time.Duration // 0 keeps tables until replaced
}

// Redis stores each table as a CSV string under <prefix>:forecast:<city>:<model>.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{
			Addr:     cfg.URL,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "weathercast"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(city string, model compare.Model) string {
	return fmt.Sprintf("%s:forecast:%s:%s", r.prefix, city, model)
}

func (r *Redis) Put(ctx context.Context, city string, model compare.Model, f *timeseries.Frame) error {
	var buf bytes.Buffer
	if err := timeseries.WriteFrame(&buf, f, -1); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(city, model), buf.Bytes(), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store forecast in Redis: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, city string, model compare.Model) (*timeseries.Frame, error) {
	data, err := r.client.Get(ctx, r.key(city, model)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(Key{City: city, Model: model})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read forecast from Redis: %w", err)
	}
	return timeseries.ReadFrame(bytes.NewReader(data), nil)
}

func (r *Redis) Delete(ctx context.Context, city string, model compare.Model) error {
	if err := r.client.Del(ctx, r.key(city, model)).Err(); err != nil {
		return fmt.Errorf("failed to delete forecast from Redis: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
