package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assettrack/apiserver/config"
)

type memoryBackend struct {
	bucket  string
	ensured bool
	objects map[string][]byte
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{bucket: "test", objects: map[string][]byte{}}
}

func (m *memoryBackend) EnsureBucket(context.Context) error {
	m.ensured = true
	return nil
}

func (m *memoryBackend) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memoryBackend) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBackend) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, ObjectInfo{Key: key, Size: int64(len(data)), LastModified: time.Now()})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memoryBackend) Bucket() string { return m.bucket }

func TestStorage_DelegatesToBackend(t *testing.T) {
	ctx := context.Background()
	backend := newMemoryBackend()
	s := NewStorage(backend)

	require.NoError(t, s.EnsureBucket(ctx))
	assert.True(t, backend.ensured)
	assert.Equal(t, "test", s.Bucket())

	require.NoError(t, s.Put(ctx, "exports/a/1.json", strings.NewReader(`{"a":1}`), 7, "application/json"))
	require.NoError(t, s.Put(ctx, "exports/b/1.json", strings.NewReader(`{}`), 2, "application/json"))

	reader, err := s.Get(ctx, "exports/a/1.json")
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	objects, err := s.List(ctx, "exports/a/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "exports/a/1.json", objects[0].Key)

	require.NoError(t, s.Delete(ctx, "exports/a/1.json"))
	_, err = s.Get(ctx, "exports/a/1.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	s, err := NewFromConfig(ctx, config.StorageConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = NewFromConfig(ctx, config.StorageConfig{Provider: "s3"})
	assert.ErrorContains(t, err, "unknown storage provider")

	_, err = NewFromConfig(ctx, config.StorageConfig{
		Provider: "minio",
		Minio:    config.MinioConfig{Endpoint: "localhost:9000", Bucket: "b"},
	})
	assert.ErrorContains(t, err, "access key")

	_, err = NewFromConfig(ctx, config.StorageConfig{Provider: "gcs"})
	assert.ErrorContains(t, err, "gcs bucket is required")
}
