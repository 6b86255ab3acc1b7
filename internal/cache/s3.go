package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures the shared remote cache bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store keeps cache entries in an S3-compatible bucket so runners across
// jobs share one cache, the way hosted CI caches are shared.
type S3Store struct {
	client   *minio.Client
	bucket   string
	region   string
	logger   *slog.Logger
	initOnce sync.Once
	initErr  error
}

func NewS3Store(cfg S3Config, logger *slog.Logger) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init s3 client: %w", err)
	}

	return &S3Store{client: client, bucket: bucket, region: region, logger: logger}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func objectName(key string) string {
	return key + ".tgz"
}

func (s *S3Store) Lookup(ctx context.Context, key string, restorePrefixes []string) (string, bool, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", false, fmt.Errorf("failed to reach cache bucket: %w", err)
	}

	_, err := s.client.StatObject(ctx, s.bucket, objectName(key), minio.StatObjectOptions{})
	if err == nil {
		return key, true, nil
	}
	if resp := minio.ToErrorResponse(err); resp.Code != "NoSuchKey" && resp.Code != "NoSuchBucket" {
		return "", false, fmt.Errorf("failed to probe cache entry %q: %w", key, err)
	}

	for _, prefix := range restorePrefixes {
		best := ""
		var bestTime time.Time
		for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				return "", false, fmt.Errorf("failed to list cache entries: %w", obj.Err)
			}
			if !strings.HasSuffix(obj.Key, ".tgz") {
				continue
			}
			if best == "" || obj.LastModified.After(bestTime) {
				best = obj.Key
				bestTime = obj.LastModified
			}
		}
		if best != "" {
			resolved := strings.TrimSuffix(best, ".tgz")
			s.logger.Debug("cache prefix fallback", "prefix", prefix, "resolved", resolved)
			return resolved, true, nil
		}
	}
	return "", false, nil
}

func (s *S3Store) Restore(ctx context.Context, key, dest string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("failed to reach cache bucket: %w", err)
	}

	if _, err := s.client.StatObject(ctx, s.bucket, objectName(key), minio.StatObjectOptions{}); err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to probe cache entry %q: %w", key, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to fetch cache entry %q: %w", key, err)
	}
	defer obj.Close()

	s.logger.Info("restoring cache entry", "key", key, "dest", dest)
	if err := unpack(obj, dest); err != nil {
		return fmt.Errorf("failed to restore cache entry %q: %w", key, err)
	}
	return nil
}

func (s *S3Store) Save(ctx context.Context, key, base string, paths []string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("failed to reach cache bucket: %w", err)
	}

	tmp, err := os.CreateTemp("", "mypycify-cache-*.tgz")
	if err != nil {
		return fmt.Errorf("failed to stage cache entry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := pack(tmp, base, paths); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to stage cache entry: %w", err)
	}

	info, err := os.Stat(tmp.Name())
	if err != nil {
		return fmt.Errorf("failed to stage cache entry: %w", err)
	}
	_, err = s.client.FPutObject(ctx, s.bucket, objectName(key), tmp.Name(), minio.PutObjectOptions{
		ContentType: "application/gzip",
	})
	if err != nil {
		return fmt.Errorf("failed to upload cache entry %q: %w", key, err)
	}

	s.logger.Info("saved cache entry", "key", key, "size", info.Size())
	return nil
}
