package promo

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectGetter is the part of the S3 client used to fetch promo lists.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads promo lists from an S3 bucket.
type S3Source struct {
	client ObjectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Source creates an S3 source using the default AWS credential chain.
func NewS3Source(ctx context.Context, bucket, region string, logger zerolog.Logger) (*S3Source, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().Str("bucket", bucket).Str("region", region).Msg("S3 promo source initialised")
	return NewS3SourceWithClient(s3.NewFromConfig(cfg), bucket, logger), nil
}

// NewS3SourceWithClient creates an S3 source around an existing client.
func NewS3SourceWithClient(client ObjectGetter, bucket string, logger zerolog.Logger) *S3Source {
	return &S3Source{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "promo-s3-source").Logger(),
	}
}

// Open streams the object stored under key.
func (s *S3Source) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("failed to get promo object")
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}
