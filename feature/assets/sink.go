package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"content-importer/core/storage"

	"github.com/minio/minio-go/v7"
)

// LocalSink stores assets on the local filesystem below dir. Materialized
// paths are the relative key joined to prefix, e.g. "/uploads/covers/ab.jpg".
type LocalSink struct {
	dir    string
	prefix string
}

// NewLocalSink creates a filesystem sink.
func NewLocalSink(dir, publicPrefix string) *LocalSink {
	return &LocalSink{dir: dir, prefix: strings.TrimRight(publicPrefix, "/")}
}

func (s *LocalSink) Store(_ context.Context, key string, data []byte, _ string) (string, error) {
	full := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return joinPublic(s.prefix, key), nil
}

func (s *LocalSink) Exists(_ context.Context, p string) (bool, error) {
	key, ok := stripPublic(s.prefix, p)
	if !ok {
		return false, nil
	}
	info, err := os.Stat(filepath.Join(s.dir, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular() && info.Size() > 0, nil
}

// ObjectSink stores assets in an S3 compatible bucket.
type ObjectSink struct {
	client storage.Client
	bucket string
	prefix string
}

// NewObjectSink creates a bucket sink. Materialized paths are the object key
// joined to publicPrefix (for example a CDN base URL).
func NewObjectSink(client storage.Client, bucket, publicPrefix string) *ObjectSink {
	return &ObjectSink{client: client, bucket: bucket, prefix: strings.TrimRight(publicPrefix, "/")}
}

func (s *ObjectSink) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return joinPublic(s.prefix, key), nil
}

func (s *ObjectSink) Exists(ctx context.Context, p string) (bool, error) {
	key, ok := stripPublic(s.prefix, p)
	if !ok {
		return false, nil
	}
	return storage.ObjectExists(ctx, s.client, s.bucket, key)
}

func joinPublic(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + strings.TrimLeft(key, "/")
}

func stripPublic(prefix, p string) (string, bool) {
	if prefix == "" {
		return path.Clean("/" + p)[1:], p != ""
	}
	key, ok := strings.CutPrefix(p, prefix+"/")
	if !ok || key == "" {
		return "", false
	}
	return path.Clean("/" + key)[1:], true
}
