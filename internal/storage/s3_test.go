package storage

import (
	"alcyxob/workout-tracker/internal/config"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testS3Config() config.S3Config {
	return config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		BucketName:      "photos",
	}
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	cfg := testS3Config()
	cfg.BucketName = ""
	_, err := NewS3Storage(context.Background(), cfg)
	assert.Error(t, err)
}

func TestS3Storage_PresignedURLs(t *testing.T) {
	ctx := context.Background()
	store, err := NewS3Storage(ctx, testS3Config())
	require.NoError(t, err)

	uploadURL, err := store.GeneratePresignedUploadURL(ctx, "users/u1/photo.jpg", "image/jpeg", time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(uploadURL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/photos/users/u1/photo.jpg", u.Path)
	assert.Equal(t, "60", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	downloadURL, err := store.GeneratePresignedDownloadURL(ctx, "users/u1/photo.jpg", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(downloadURL, "http://localhost:9000/photos/users/u1/photo.jpg?"))
	d, err := url.Parse(downloadURL)
	require.NoError(t, err)
	assert.Equal(t, "900", d.Query().Get("X-Amz-Expires"))
}
