package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RoundTripAndMissing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Load(ctx, "portfolio")
	assert.True(t, errors.Is(err, ErrNotFound))

	payload := []byte(`{"credits":10000}`)
	require.NoError(t, m.Save(ctx, "portfolio", payload))
	payload[0] = 'x'

	got, err := m.Load(ctx, "portfolio")
	require.NoError(t, err)
	assert.JSONEq(t, `{"credits":10000}`, string(got))

	assert.Error(t, m.Save(ctx, " ", payload))
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "profile.json")

	f := NewFile(path)
	_, err := f.Load(ctx, "trades")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, f.Save(ctx, "trades", []byte(`[{"id":"a"}]`)))
	require.NoError(t, f.Save(ctx, "quests", []byte(`{"date":"2024-03-01"}`)))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	reopened := NewFile(path)
	got, err := reopened.Load(ctx, "trades")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(got))

	got, err = reopened.Load(ctx, "quests")
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-01"}`, string(got))
}

func TestFile_RejectsInvalidJSON(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "p.json"))
	assert.Error(t, f.Save(context.Background(), "portfolio", []byte(`{broken`)))
}

func TestFile_CorruptFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, err := NewFile(path).Load(context.Background(), "portfolio")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
