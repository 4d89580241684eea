package service

import (
	"context"
	"fmt"

	"cryptosim/pkg/tracing"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// Redis бакет = ключ cryptosim:<profile>:<bucket>, без TTL.
type Redis struct {
	client  *redis.Client
	profile string
}

func NewRedis(client *redis.Client, profile string) *Redis {
	return &Redis{client: client, profile: profile}
}

func (r *Redis) key(bucket string) string {
	return fmt.Sprintf("cryptosim:%s:%s", r.profile, bucket)
}

func (r *Redis) Load(ctx context.Context, bucket string) (payload []byte, err error) {
	span, ctx := tracing.Start(ctx, "storage.Load")
	defer func() { tracing.Finish(span, err) }()

	payload, err = r.client.Get(ctx, r.key(bucket)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get %s", bucket)
	}
	return payload, nil
}

func (r *Redis) Save(ctx context.Context, bucket string, payload []byte) (err error) {
	span, ctx := tracing.Start(ctx, "storage.Save")
	defer func() { tracing.Finish(span, err) }()

	if err = validBucket(bucket); err != nil {
		return err
	}
	if err = r.client.Set(ctx, r.key(bucket), payload, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", bucket)
	}
	return nil
}
