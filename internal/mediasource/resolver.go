package mediasource

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// fetcher downloads one remote object by key, yielding its bytes as a
// stream. The three remote backends (s3Fetcher/gcsFetcher/azureFetcher)
// all satisfy this; Resolver dispatches to whichever matches the
// configured provider's scheme.
type fetcher interface {
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// Config configures which remote backend (if any) Resolver can fetch
// from, mirroring the teacher's storage.Config fields one-for-one.
type Config struct {
	Provider  string // "local" (no remote fetch), "s3", "gcs", or "azure"
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	TempDir   string
}

// Resolver turns a bytes|url|path Input into a local file path, fetching
// from a configured remote store or plain HTTP(S) when the input isn't
// already local.
type Resolver struct {
	remote       fetcher
	remoteScheme string // "s3://", "gs://", or "azblob://"; "" if Provider is "local"
	httpClient   *http.Client
	tempDir      string
}

// NewResolver builds a Resolver. Only the remote backend matching
// cfg.Provider is constructed; a path using a different remote scheme is
// rejected rather than silently ignored.
func NewResolver(cfg Config) (*Resolver, error) {
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfig, "mediasource.NewResolver", "failed to create temp directory", err)
	}

	r := &Resolver{httpClient: &http.Client{Timeout: 60 * time.Second}, tempDir: tempDir}

	switch strings.ToLower(cfg.Provider) {
	case "", "local", "filesystem":
		// No remote backend; only bytes/url/local-path inputs are resolvable.
	case "s3", "aws":
		f, err := newS3Fetcher(cfg)
		if err != nil {
			return nil, err
		}
		r.remote, r.remoteScheme = f, "s3://"
	case "gcs", "google":
		f, err := newGCSFetcher(cfg)
		if err != nil {
			return nil, err
		}
		r.remote, r.remoteScheme = f, "gs://"
	case "azure", "azblob":
		f, err := newAzureFetcher(cfg)
		if err != nil {
			return nil, err
		}
		r.remote, r.remoteScheme = f, "azblob://"
	default:
		return nil, xerrors.ConfigErr("mediasource.NewResolver", "unsupported provider: "+cfg.Provider)
	}
	return r, nil
}

// Resolve materializes in as a local file path. cleanup removes any
// temporary file Resolve created; it is always safe to call, including
// when in.Path already named a local file (cleanup is then a no-op).
func (r *Resolver) Resolve(ctx context.Context, in Input) (path string, cleanup func(), err error) {
	if err := in.validate(); err != nil {
		return "", func() {}, err
	}

	switch in.kind() {
	case "bytes":
		return r.writeTemp(in.Bytes)
	case "url":
		return r.fetchHTTP(ctx, in.URL)
	default:
		return r.resolvePath(ctx, in.Path)
	}
}

func (r *Resolver) resolvePath(ctx context.Context, path string) (string, func(), error) {
	for _, scheme := range []string{"s3://", "gs://", "azblob://"} {
		if strings.HasPrefix(path, scheme) {
			if r.remote == nil || scheme != r.remoteScheme {
				return "", func() {}, xerrors.New(xerrors.KindUnsupportedFormat, "mediasource.Resolve",
					"path uses scheme "+scheme+" but no matching remote provider is configured")
			}
			key := strings.TrimPrefix(path, scheme)
			if idx := strings.Index(key, "/"); idx >= 0 {
				key = key[idx+1:] // bucket is already pinned by Config; drop the bucket segment of the key
			}
			body, err := r.remote.Fetch(ctx, key)
			if err != nil {
				return "", func() {}, err
			}
			defer body.Close()
			return r.writeTempFromReader(body)
		}
	}

	if _, err := os.Stat(path); err != nil {
		return "", func() {}, xerrors.Wrap(xerrors.KindSourceUnavailable, "mediasource.Resolve", "local path not found", err)
	}
	return path, func() {}, nil
}

func (r *Resolver) fetchHTTP(ctx context.Context, url string) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", func() {}, xerrors.Input("mediasource.Resolve", "invalid url: "+url)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", func() {}, xerrors.Wrap(xerrors.KindSourceUnavailable, "mediasource.Resolve", "failed to fetch url", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", func() {}, xerrors.New(xerrors.KindSourceUnavailable, "mediasource.Resolve", "url returned status "+strconv.Itoa(resp.StatusCode))
	}
	return r.writeTempFromReader(resp.Body)
}

func (r *Resolver) writeTemp(data []byte) (string, func(), error) {
	f, err := os.CreateTemp(r.tempDir, "mediasource-*")
	if err != nil {
		return "", func() {}, xerrors.Wrap(xerrors.KindInternal, "mediasource.Resolve", "failed to create temp file", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", func() {}, xerrors.Wrap(xerrors.KindInternal, "mediasource.Resolve", "failed to write temp file", err)
	}
	path := f.Name()
	return path, func() { os.Remove(path) }, nil
}

func (r *Resolver) writeTempFromReader(body io.Reader) (string, func(), error) {
	f, err := os.CreateTemp(r.tempDir, "mediasource-*")
	if err != nil {
		return "", func() {}, xerrors.Wrap(xerrors.KindInternal, "mediasource.Resolve", "failed to create temp file", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", func() {}, xerrors.Wrap(xerrors.KindInternal, "mediasource.Resolve", "failed to write temp file", err)
	}
	f.Close()
	path := f.Name()
	return path, func() { os.Remove(path) }, nil
}
