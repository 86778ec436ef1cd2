package mediasource

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/rendiffdev/frameguard/internal/xerrors"
)

type azureFetcher struct {
	client    *azblob.Client
	container string
}

func newAzureFetcher(cfg Config) (*azureFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfig, "mediasource.newAzureFetcher", "failed to create Azure credentials", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccessKey)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfig, "mediasource.newAzureFetcher", "failed to create Azure blob client", err)
	}
	return &azureFetcher{client: client, container: cfg.Bucket}, nil
}

func (f *azureFetcher) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := f.client.DownloadStream(ctx, f.container, key, nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindSourceUnavailable, "mediasource.azureFetcher.Fetch", "failed to download from Azure", err)
	}
	return resp.Body, nil
}
