package mediasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestResolve_BytesWritesTempFile(t *testing.T) {
	r, err := NewResolver(Config{TempDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	path, cleanup, err := r.Resolve(context.Background(), Input{Bytes: []byte("hello")})
	defer cleanup()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("data = %q; want %q", data, "hello")
	}
}

func TestResolve_LocalPathPassesThroughWithoutCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(src, []byte("frame"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r, err := NewResolver(Config{TempDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	path, cleanup, err := r.Resolve(context.Background(), Input{Path: src})
	defer cleanup()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != src {
		t.Errorf("path = %q; want %q (passthrough, no copy)", path, src)
	}
}

func TestResolve_MissingLocalPathFails(t *testing.T) {
	r, err := NewResolver(Config{TempDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if _, cleanup, err := r.Resolve(context.Background(), Input{Path: "/nonexistent/file.jpg"}); err == nil {
		cleanup()
		t.Error("expected an error for a missing local path")
	}
}

func TestResolve_URLFetchesAndWritesTempFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("remote-bytes"))
	}))
	defer srv.Close()

	r, err := NewResolver(Config{TempDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	path, cleanup, err := r.Resolve(context.Background(), Input{URL: srv.URL})
	defer cleanup()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "remote-bytes" {
		t.Errorf("data = %q; want %q", data, "remote-bytes")
	}
}

func TestResolve_RemoteSchemeWithoutConfiguredProviderFails(t *testing.T) {
	r, err := NewResolver(Config{Provider: "local", TempDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if _, cleanup, err := r.Resolve(context.Background(), Input{Path: "s3://bucket/key.jpg"}); err == nil {
		cleanup()
		t.Error("expected an error when no remote provider is configured for s3://")
	}
}

func TestResolve_EmptyInputFails(t *testing.T) {
	r, err := NewResolver(Config{TempDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if _, cleanup, err := r.Resolve(context.Background(), Input{}); err == nil {
		cleanup()
		t.Error("expected an error for an empty input union")
	}
}

func TestResolve_BytesTakesPrecedenceOverPath(t *testing.T) {
	r, err := NewResolver(Config{TempDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	path, cleanup, err := r.Resolve(context.Background(), Input{Bytes: []byte("b"), Path: "/should-be-ignored"})
	defer cleanup()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "b" {
		t.Errorf("data = %q; want %q (bytes should win over path)", data, "b")
	}
}
