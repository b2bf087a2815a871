// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so the importer can forward materialized images
// to an S3 compatible bucket instead of the local filesystem. This abstraction
// supports both AWS S3 and self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Operations
//
//   - BucketExists / EnsureBucket: Verifies or creates the target bucket.
//   - PutObject: Uploads content (with size and options).
//   - StatObject / ObjectExists: Checks that a previously uploaded asset is still there.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	ok, err := storage.ObjectExists(ctx, client, "assets", "covers/ab12.jpg")
package storage
