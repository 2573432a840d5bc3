package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	puts    map[string][]byte
	types   map[string]string
	removed []string
	failPut bool
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{puts: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.failPut {
		return minio.UploadInfo{}, errors.New("boom")
	}
	data, _ := io.ReadAll(r)
	f.puts[bucket+"/"+key] = data
	f.types[key] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func (f *fakeObjects) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	f.removed = append(f.removed, key)
	return nil
}

func TestUploadLogoBuildsKeyAndURL(t *testing.T) {
	objects := newFakeObjects()
	store := newLogoStore(objects, "logos-bucket", "https://cdn.example.com/")

	url, err := store.UploadLogo(context.Background(), "user-1", bytes.NewBufferString("png"), 3, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/logos/user-1/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	key, ok := store.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "image/png", objects.types[key])
	assert.Equal(t, []byte("png"), objects.puts["logos-bucket/"+key])

	require.NoError(t, store.DeleteLogo(context.Background(), key))
	assert.Equal(t, []string{key}, objects.removed)
}

func TestUploadLogoRejectsUnknownType(t *testing.T) {
	store := newLogoStore(newFakeObjects(), "b", "https://cdn.example.com")
	_, err := store.UploadLogo(context.Background(), "u", bytes.NewBufferString("x"), 1, "application/pdf")
	assert.Error(t, err)
}

func TestUploadLogoWrapsClientError(t *testing.T) {
	objects := newFakeObjects()
	objects.failPut = true
	store := newLogoStore(objects, "b", "https://cdn.example.com")
	_, err := store.UploadLogo(context.Background(), "u", bytes.NewBufferString("x"), 1, "image/jpeg")
	assert.ErrorContains(t, err, "storage: put")
}

func TestKeyFromForeignURL(t *testing.T) {
	store := newLogoStore(newFakeObjects(), "b", "https://cdn.example.com")
	_, ok := store.KeyFromURL("https://elsewhere.example.com/logos/a.png")
	assert.False(t, ok)
}

func TestConfigured(t *testing.T) {
	assert.False(t, Config{}.Configured())
	assert.True(t, Config{Endpoint: "e", AccessKey: "a", SecretKey: "s", Bucket: "b", PublicURL: "p"}.Configured())
	_, err := NewLogoStore(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
