package transfer

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options configures an [Archiver].
type S3Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Archiver uploads renamed files to an S3-compatible bucket.
type Archiver struct {
	api    *minio.Client
	bucket string
}

// NewArchiver creates a client for opts. It does not contact the server.
func NewArchiver(opts S3Options) (*Archiver, error) {
	api, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &Archiver{api: api, bucket: opts.Bucket}, nil
}

// Ping reports whether the configured bucket exists and is reachable.
func (a *Archiver) Ping(ctx context.Context) error {
	ok, err := a.api.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("s3 bucket %s: %w", a.bucket, err)
	}
	if !ok {
		return fmt.Errorf("s3 bucket %s does not exist", a.bucket)
	}
	return nil
}

// Archive uploads localPath under ArchiveKey(userID, name, now) and returns
// the object key.
func (a *Archiver) Archive(ctx context.Context, userID int64, localPath, name string) (string, error) {
	key := ArchiveKey(userID, name, time.Now())
	_, err := a.api.FPutObject(ctx, a.bucket, key, localPath, minio.PutObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", name, err)
	}
	return key, nil
}

// ArchiveKey builds "<userID>/<YYYY-MM-DD>/<name>".
func ArchiveKey(userID int64, name string, at time.Time) string {
	return path.Join(strconv.FormatInt(userID, 10), at.UTC().Format("2006-01-02"), name)
}
