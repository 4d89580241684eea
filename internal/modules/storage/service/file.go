package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// File все бакеты одного профиля в одном JSON-файле. Запись через tmp + rename.
type File struct {
	path string

	mu     sync.Mutex
	cache  map[string]json.RawMessage
	loaded bool
}

func NewFile(path string) *File {
	return &File{
		path:  path,
		cache: make(map[string]json.RawMessage),
	}
}

type fileSnapshot struct {
	UpdatedAt time.Time                  `json:"updated_at"`
	Buckets   map[string]json.RawMessage `json:"buckets"`
}

func (f *File) Load(_ context.Context, bucket string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return nil, err
	}
	b, ok := f.cache[bucket]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (f *File) Save(_ context.Context, bucket string, payload []byte) error {
	if err := validBucket(bucket); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return errors.Errorf("bucket %s: payload is not valid JSON", bucket)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return err
	}
	f.cache[bucket] = append(json.RawMessage(nil), payload...)
	return f.saveLocked()
}

func (f *File) loadLocked() error {
	if f.loaded {
		return nil
	}

	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.loaded = true
			return nil
		}
		return errors.Wrapf(err, "read %s", f.path)
	}

	var snap fileSnapshot
	if err := sonic.Unmarshal(b, &snap); err != nil {
		return errors.Wrapf(err, "decode %s", f.path)
	}
	if snap.Buckets != nil {
		f.cache = snap.Buckets
	}
	f.loaded = true
	return nil
}

func (f *File) saveLocked() error {
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	b, err := sonic.ConfigStd.MarshalIndent(&fileSnapshot{
		UpdatedAt: time.Now(),
		Buckets:   f.cache,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path) // атомарно
}
