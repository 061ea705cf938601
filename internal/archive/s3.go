package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const contentTypeMsgpack = "application/vnd.msgpack"

// S3Config holds connection settings for the archive bucket.
type S3Config struct {
	Bucket          string
	Prefix          string
	Endpoint        string // empty for AWS, set for R2/MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Archiver uploads msgpack-encoded bundles to an S3-compatible bucket.
type S3Archiver struct {
	uploader uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Archiver builds an S3 client from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies.
func NewS3Archiver(ctx context.Context, cfg S3Config, log zerolog.Logger) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Archiver(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, log), nil
}

func newS3Archiver(u uploader, bucket, prefix string, log zerolog.Logger) *S3Archiver {
	return &S3Archiver{
		uploader: u,
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("component", "archive").Str("bucket", bucket).Logger(),
	}
}

// Archive implements Archiver.
func (a *S3Archiver) Archive(ctx context.Context, b AuditBundle) error {
	data, err := Encode(b)
	if err != nil {
		return err
	}

	key := ObjectKey(a.prefix, b)
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeMsgpack),
		Metadata: map[string]string{
			"digest": b.Digest,
			"kind":   b.Kind,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload audit bundle %s: %w", key, err)
	}

	a.log.Debug().
		Str("key", key).
		Int("bytes", len(data)).
		Msg("Audit bundle archived")
	return nil
}
