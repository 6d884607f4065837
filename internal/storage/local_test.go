package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocalProvider(t *testing.T) (*LocalProvider, string) {
	t.Helper()
	dir := t.TempDir()
	provider, err := NewLocalProvider(dir)
	require.NoError(t, err)
	return provider, dir
}

func TestLocalProvider_PutGetObject(t *testing.T) {
	provider, baseDir := setupLocalProvider(t)
	ctx := context.Background()

	content := []byte(`{"rounds": []}`)
	require.NoError(t, provider.PutObject(ctx, "federated", "history/training_history.json", bytes.NewReader(content)))

	data, err := os.ReadFile(filepath.Join(baseDir, "federated", "history", "training_history.json"))
	require.NoError(t, err)
	assert.Equal(t, content, data)

	data, err = provider.GetObject(ctx, "federated", "history/training_history.json")
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalProvider_GetMissingObject(t *testing.T) {
	provider, _ := setupLocalProvider(t)

	_, err := provider.GetObject(context.Background(), "federated", "missing.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalProvider_CreateBucket(t *testing.T) {
	provider, baseDir := setupLocalProvider(t)

	require.NoError(t, provider.CreateBucket(context.Background(), "federated"))
	require.NoError(t, provider.CreateBucket(context.Background(), "federated"))

	info, err := os.Stat(filepath.Join(baseDir, "federated"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalProvider_ListObjects(t *testing.T) {
	provider, _ := setupLocalProvider(t)
	ctx := context.Background()

	for _, key := range []string{"models/global_model.pth", "models/round_1.pth", "training_history.json"} {
		require.NoError(t, provider.PutObject(ctx, "federated", key, bytes.NewReader([]byte("abc"))))
	}

	objects, err := provider.ListObjects(ctx, "federated", "models/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Object{
		{Name: "models/global_model.pth", Size: 3},
		{Name: "models/round_1.pth", Size: 3},
	}, objects)

	objects, err = provider.ListObjects(ctx, "federated", "models/global")
	require.NoError(t, err)
	assert.Len(t, objects, 1)

	objects, err = provider.ListObjects(ctx, "missing-bucket", "")
	require.NoError(t, err)
	assert.Empty(t, objects)
}
