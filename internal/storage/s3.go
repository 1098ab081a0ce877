package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"holdlens/internal/config"
	apperrors "holdlens/internal/errors"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store reads portfolio files from an S3 bucket.
type S3Store struct {
	client   S3API
	bucket   string
	maxBytes int64
	logger   *slog.Logger
}

// NewS3Store wraps an existing client. maxBytes <= 0 disables the size limit.
func NewS3Store(client S3API, bucket string, maxBytes int64, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Store{
		client:   client,
		bucket:   bucket,
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "s3_store"), slog.String("bucket", bucket)),
	}
}

// NewS3StoreFromConfig builds an S3 client from the storage configuration.
// Static credentials are used when an access key is configured; otherwise
// the default AWS credential chain applies.
func NewS3StoreFromConfig(ctx context.Context, cfg config.StorageConfig, maxBytes int64, logger *slog.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load AWS configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Store(client, cfg.Bucket, maxBytes, logger), nil
}

// Fetch implements Store.
func (s *S3Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, apperrors.NewNotFoundError("portfolio").WithContext("key", key)
		}
		return nil, apperrors.NewStorageError("failed to fetch object", err).WithContext("key", key)
	}
	defer out.Body.Close()

	var body io.Reader = out.Body
	if s.maxBytes > 0 {
		body = io.LimitReader(out.Body, s.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read object body", err).WithContext("key", key)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("object exceeds the %d byte limit", s.maxBytes)).WithContext("key", key)
	}

	s.logger.DebugContext(ctx, "object fetched",
		slog.String("key", key),
		slog.Int("size_bytes", len(data)))
	return data, nil
}

// List implements Store. Folder markers and nested objects are skipped.
func (s *S3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var objects []Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to list objects", err).WithContext("prefix", prefix)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rest := strings.TrimPrefix(key, prefix)
			if rest == "" || strings.Contains(rest, "/") {
				continue
			}
			objects = append(objects, Object{
				Filename:     baseName(key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
				Key:          key,
			})
		}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Ping checks that the bucket is reachable with a single-key listing.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return apperrors.NewStorageError("bucket unreachable", err)
	}
	return nil
}
