package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound бакета ещё нет (первый запуск).
var ErrNotFound = errors.New("bucket not found")

// Store key-value хранилище именованных бакетов профиля.
type Store interface {
	Load(ctx context.Context, bucket string) ([]byte, error)
	Save(ctx context.Context, bucket string, payload []byte) error
}

func validBucket(bucket string) error {
	if strings.TrimSpace(bucket) == "" {
		return errors.New("empty bucket name")
	}
	return nil
}
