package mediasource

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/rendiffdev/frameguard/internal/xerrors"
)

type gcsFetcher struct {
	client *storage.Client
	bucket string
}

func newGCSFetcher(cfg Config) (*gcsFetcher, error) {
	var client *storage.Client
	var err error
	if cfg.AccessKey != "" {
		client, err = storage.NewClient(context.Background(), option.WithCredentialsJSON([]byte(cfg.AccessKey)))
	} else {
		client, err = storage.NewClient(context.Background())
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfig, "mediasource.newGCSFetcher", "failed to create GCS client", err)
	}
	return &gcsFetcher{client: client, bucket: cfg.Bucket}, nil
}

func (f *gcsFetcher) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := f.client.Bucket(f.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindSourceUnavailable, "mediasource.gcsFetcher.Fetch", "failed to download from GCS", err)
	}
	return reader, nil
}
