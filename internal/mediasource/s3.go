package mediasource

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rendiffdev/frameguard/internal/xerrors"
)

type s3Fetcher struct {
	client *s3.Client
	bucket string
}

func newS3Fetcher(cfg Config) (*s3Fetcher, error) {
	awsConfig, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfig, "mediasource.newS3Fetcher", "failed to load AWS config", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &s3Fetcher{client: client, bucket: cfg.Bucket}, nil
}

func (f *s3Fetcher) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindSourceUnavailable, "mediasource.s3Fetcher.Fetch", "failed to download from S3", err)
	}
	return out.Body, nil
}
