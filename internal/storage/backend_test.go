package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseBackend runs the behaviour every backend must share.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Get(ctx, "library_data")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Put(ctx, "library_data", []byte(`{"books":[]}`)))
	got, err := b.Get(ctx, "library_data")
	require.NoError(t, err)
	assert.JSONEq(t, `{"books":[]}`, string(got))

	require.NoError(t, b.Put(ctx, "library_data", []byte(`{"books":[{"id":1}]}`)))
	got, err = b.Get(ctx, "library_data")
	require.NoError(t, err)
	assert.JSONEq(t, `{"books":[{"id":1}]}`, string(got))

	require.NoError(t, b.Delete(ctx, "library_data"))
	require.NoError(t, b.Delete(ctx, "library_data"))
	_, err = b.Get(ctx, "library_data")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	m := NewMemory()
	value := []byte(`[1]`)
	require.NoError(t, m.Put(context.Background(), "k", value))
	value[1] = '2'

	got, err := m.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))
}

func TestFileBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	f, err := NewFile(dir)
	require.NoError(t, err)
	exerciseBackend(t, f)

	require.NoError(t, f.Put(context.Background(), "library_feedback", []byte(`[]`)))
	_, err = os.Stat(filepath.Join(dir, "library_feedback.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "library_feedback.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestFileBackendRejectsTraversal(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, f.Put(context.Background(), "../escape", []byte(`{}`)))
}

func TestSQLiteBackend(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "data", "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	exerciseBackend(t, s)
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), mr.Addr(), "", "test")
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	exerciseBackend(t, r)

	require.NoError(t, r.Put(context.Background(), "library_data", []byte(`{}`)))
	assert.True(t, mr.Exists("test:library_data"))
}

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("LIBRARY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LIBRARY_TEST_POSTGRES_DSN not set")
	}
	p, err := NewPostgres(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	exerciseBackend(t, p)
}

func TestMinioBackend(t *testing.T) {
	endpoint := os.Getenv("LIBRARY_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("LIBRARY_TEST_MINIO_ENDPOINT not set")
	}
	accessKey := envOr("LIBRARY_TEST_MINIO_ACCESS_KEY", "minioadmin")
	secretKey := envOr("LIBRARY_TEST_MINIO_SECRET_KEY", "minioadmin")
	bucket := fmt.Sprintf("library-test-%d", time.Now().UnixNano())

	m, err := NewMinio(context.Background(), endpoint, accessKey, secretKey, bucket, false)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		m.client.RemoveObject(ctx, bucket, objectName("library_data"), minio.RemoveObjectOptions{})
		m.client.RemoveBucket(ctx, bucket)
	})
	exerciseBackend(t, m)
}

func TestMinioRequiresEndpointAndBucket(t *testing.T) {
	_, err := NewMinio(context.Background(), "", "k", "s", "library", false)
	assert.Error(t, err)
	_, err = NewMinio(context.Background(), "localhost:9000", "k", "s", "", false)
	assert.Error(t, err)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)

	b, err = Open(ctx, Config{Backend: "file", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &File{}, b)

	_, err = Open(ctx, Config{Backend: "floppy"})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: "postgres"})
	assert.Error(t, err)
}
