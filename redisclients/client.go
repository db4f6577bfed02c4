package redisclients

import (
	"context"
)

type RedisClient interface {
	// Exists returns true if the key is present
	Exists(ctx context.Context, key string) (bool, error)
	// CheckBits returns true if all bits at the specified offsets are set to 1
	CheckBits(ctx context.Context, key string, offsets ...uint64) (bool, error)
	Pipeliner(ctx context.Context) Pipeliner
}

type Pipeliner interface {
	// SetBits sets bits at the specified offsets to 1
	SetBits(key string, offsets ...uint64) Pipeliner
	Exec() error
}
