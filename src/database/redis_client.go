package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	RedisClient *redis.Client
	RedisURI    string
)

// InitRedis connects to Redis at uri. An empty uri leaves Redis disabled.
func InitRedis(ctx context.Context, uri string) error {
	if uri == "" {
		log.Println("⚠️ REDIS_URI not set. Session cache and Asynq are disabled.")
		return nil
	}

	c := redis.NewClient(&redis.Options{
		Addr:         uri, // e.g. localhost:6379
		Password:     "",
		DB:           0,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("failed to connect Redis: %w", err)
	}

	RedisClient = c
	RedisURI = uri
	log.Println("✅ Redis connected successfully")
	return nil
}

// CloseRedis releases the shared client.
func CloseRedis() error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Close()
}
