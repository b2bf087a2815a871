package storage_test

import (
	"context"
	"errors"
	"testing"

	"content-importer/core/storage"
	"content-importer/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    false,
			Bucket:    "test-bucket",
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "https://s3.amazonaws.com",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    true,
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestObjectExists(t *testing.T) {
	ctx := context.Background()

	t.Run("Present", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("StatObject", mock.Anything, "b", "covers/a.jpg", mock.Anything).Return(minio.ObjectInfo{Key: "covers/a.jpg"}, nil)

		ok, err := storage.ObjectExists(ctx, m, "b", "covers/a.jpg")
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("NoSuchKey", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("StatObject", mock.Anything, "b", "covers/gone.jpg", mock.Anything).
			Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})

		ok, err := storage.ObjectExists(ctx, m, "b", "covers/gone.jpg")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("OtherError", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("StatObject", mock.Anything, "b", "x", mock.Anything).Return(minio.ObjectInfo{}, errors.New("timeout"))

		ok, err := storage.ObjectExists(ctx, m, "b", "x")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	m := new(mocks.Client)
	m.On("BucketExists", mock.Anything, "b").Return(false, nil)
	m.On("MakeBucket", mock.Anything, "b", minio.MakeBucketOptions{Region: "eu"}).Return(nil)

	assert.NoError(t, storage.EnsureBucket(ctx, m, "b", "eu"))
	m.AssertExpectations(t)
}
