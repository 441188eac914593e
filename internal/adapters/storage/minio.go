package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	gardenstorage "github.com/goliatone/go-garden/pkg/storage"
)

// MinIOConfig holds the connection settings of an S3-compatible bucket.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// Prefix is prepended to every object key.
	Prefix string
	UseSSL bool
}

// objectClient is the subset of *minio.Client the provider uses.
type objectClient interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// MinIO publishes artifacts to an S3-compatible bucket. Directories are
// implicit in object keys, so ensure_dir is a no-op.
type MinIO struct {
	client objectClient
	bucket string
	prefix string
}

var _ gardenstorage.Provider = (*MinIO)(nil)

// NewMinIO connects to the bucket and creates it when missing.
func NewMinIO(ctx context.Context, cfg MinIOConfig) (*MinIO, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return newMinIOWithClient(cli, cfg.Bucket, cfg.Prefix), nil
}

func newMinIOWithClient(client objectClient, bucket, prefix string) *MinIO {
	return &MinIO{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (m *MinIO) key(rel string) string {
	if m.prefix == "" {
		return rel
	}
	if rel == "" {
		return m.prefix
	}
	return m.prefix + "/" + rel
}

func (m *MinIO) Query(ctx context.Context, query string, args ...any) (gardenstorage.Rows, error) {
	if query != gardenstorage.OpRead {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, query)
	}
	rel, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, m.key(rel), minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return emptyRows{}, nil
		}
		return nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return emptyRows{}, nil
		}
		return nil, err
	}
	return &byteRows{data: data}, nil
}

func (m *MinIO) Exec(ctx context.Context, query string, args ...any) (gardenstorage.Result, error) {
	switch query {
	case gardenstorage.OpEnsureDir:
		if _, err := pathArg(args); err != nil {
			return nil, err
		}
		return result(0), nil
	case gardenstorage.OpWrite:
		rel, err := pathArg(args)
		if err != nil {
			return nil, err
		}
		reader, err := readerArg(args)
		if err != nil {
			return nil, err
		}
		// A known size keeps minio from allocating multipart buffers.
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, err
		}
		info, err := m.client.PutObject(ctx, m.bucket, m.key(rel), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentType(rel),
		})
		if err != nil {
			return nil, fmt.Errorf("put %s: %w", rel, err)
		}
		return result(info.Size), nil
	case gardenstorage.OpRemove:
		rel, err := pathArg(args)
		if err != nil {
			return nil, err
		}
		return m.removeTree(ctx, rel)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, query)
	}
}

// removeTree deletes the object at rel and every object below it.
func (m *MinIO) removeTree(ctx context.Context, rel string) (gardenstorage.Result, error) {
	prefix := m.key(rel)
	if prefix != "" {
		prefix = strings.TrimSuffix(prefix, "/") + "/"
	}

	var removed int64
	if rel != "" {
		if err := m.client.RemoveObject(ctx, m.bucket, m.key(rel), minio.RemoveObjectOptions{}); err != nil && !isNotFound(err) {
			return nil, err
		}
	}
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if err := m.client.RemoveObject(ctx, m.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return nil, err
		}
		removed++
	}
	return result(removed), nil
}

func (m *MinIO) Transaction(ctx context.Context, fn func(tx gardenstorage.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&passthroughTx{provider: m})
}

func contentType(rel string) string {
	if ct := mime.TypeByExtension(path.Ext(rel)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
