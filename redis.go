package diskbloom

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vkuptcov/diskbloom/redisclients"
)

// RedisStore keeps the table in a Redis string.
// Redis orders bits from the most significant one inside a byte,
// so a dump of the string is not a valid table file.
type RedisStore struct {
	ctx         context.Context
	redisClient redisclients.RedisClient
	key         string
	tableSize   uint64
}

// NewRedisStore binds a store to key. Redis grows the string on demand,
// a missing key reads as all zero bits.
// ctx is used for every command the store issues.
func NewRedisStore(
	ctx context.Context,
	redisClient redisclients.RedisClient,
	key string,
	tableSize uint64,
	logger Logger,
) (*RedisStore, error) {
	if logger == nil {
		logger = NoOpLogger
	}
	exists, existsErr := redisClient.Exists(ctx, key)
	if existsErr != nil {
		return nil, errors.Wrapf(existsErr, "redis key %q check failed", key)
	}
	if exists {
		logger("Using existing redis key :", key)
	} else {
		logger("Creating new redis key :", key)
	}
	return &RedisStore{
		ctx:         ctx,
		redisClient: redisClient,
		key:         key,
		tableSize:   tableSize,
	}, nil
}

func (r *RedisStore) Get(index uint64) (bool, error) {
	if err := checkIndex(index, r.tableSize); err != nil {
		return false, errors.Wrapf(err, "get bit %d of %d", index, r.tableSize)
	}
	isSet, err := r.redisClient.CheckBits(r.ctx, r.key, index)
	return isSet, errors.Wrapf(err, "redis get bit %d of %q", index, r.key)
}

func (r *RedisStore) Set(index uint64) error {
	if err := checkIndex(index, r.tableSize); err != nil {
		return errors.Wrapf(err, "set bit %d of %d", index, r.tableSize)
	}
	err := r.redisClient.Pipeliner(r.ctx).SetBits(r.key, index).Exec()
	return errors.Wrapf(err, "redis set bit %d of %q", index, r.key)
}

func (r *RedisStore) Len() uint64 {
	return r.tableSize
}

// Close is a no-op, the redis client belongs to the caller
func (r *RedisStore) Close() error {
	return nil
}

var _ BitStore = &RedisStore{}
