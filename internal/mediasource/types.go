// Package mediasource resolves a bytes|url|path input union to a local
// file path, fetching from a configured remote object store (s3://,
// gs://, azblob://) or plain HTTP(S) URL when the input isn't already a
// local path. Adapted from the teacher's internal/storage provider
// abstraction, trimmed to the read side only.
package mediasource

import "github.com/rendiffdev/frameguard/internal/xerrors"

// Input is a union: exactly one of Bytes, URL, or Path should be set.
// Precedence when more than one is set is Bytes, then URL, then Path.
type Input struct {
	Bytes []byte
	URL   string
	Path  string
}

func (in Input) kind() string {
	switch {
	case len(in.Bytes) > 0:
		return "bytes"
	case in.URL != "":
		return "url"
	case in.Path != "":
		return "path"
	default:
		return ""
	}
}

func (in Input) validate() error {
	if in.kind() == "" {
		return xerrors.Input("mediasource.Resolve", "input must set one of bytes, url, or path")
	}
	return nil
}
