package redisx

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

func Open(ctx context.Context, addr, password string, database int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func ReadyCheck(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("redis not configured")
		}
		return client.Ping(ctx).Err()
	}
}
