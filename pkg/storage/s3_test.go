package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        string
}

// fakeS3 answers just enough of the S3 API for these tests.
type fakeS3 struct {
	mu       sync.Mutex
	requests []recordedRequest
	buckets  map[string]bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(body),
	})

	bucket := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)[0]
	isBucket := !strings.Contains(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodHead && isBucket:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && isBucket:
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (f *fakeS3) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestStorage(t *testing.T) (*S3Storage, *fakeS3, string) {
	t.Helper()
	fake := &fakeS3{buckets: map[string]bool{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), Config{
		Endpoint:     srv.URL,
		Region:       "us-east-1",
		Bucket:       "product-images",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}, zap.NewNop())
	require.NoError(t, err)
	return s, fake, srv.URL
}

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{AccessKey: "k", SecretKey: "s"}, zap.NewNop())
	assert.ErrorContains(t, err, "bucket is required")

	_, err = New(ctx, Config{Bucket: "b"}, zap.NewNop())
	assert.ErrorContains(t, err, "secret key are required")

	_, err = New(ctx, Config{Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "not a url"}, zap.NewNop())
	assert.Error(t, err)
}

func TestURL(t *testing.T) {
	ctx := context.Background()
	base := Config{Bucket: "imgs", AccessKey: "k", SecretKey: "s", Region: "eu-west-1"}

	s, err := New(ctx, base, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "https://imgs.s3.eu-west-1.amazonaws.com/a/b.png", s.URL("a/b.png"))

	cfg := base
	cfg.Endpoint, cfg.UsePathStyle = "http://minio:9000", true
	s, err = New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/imgs/a/b.png", s.URL("/a/b.png"))

	cfg.UsePathStyle = false
	s, err = New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://imgs.minio:9000/a/b.png", s.URL("a/b.png"))

	cfg.PublicBaseURL = "https://cdn.example.com/"
	s, err = New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a/b.png", s.URL("a/b.png"))
}

func TestUploadAndDelete(t *testing.T) {
	s, fake, endpoint := newTestStorage(t)
	ctx := context.Background()

	url, err := s.Upload(ctx, "products/usb-c-hub/1.png", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)
	assert.Equal(t, endpoint+"/product-images/products/usb-c-hub/1.png", url)

	require.NoError(t, s.Delete(ctx, "products/usb-c-hub/1.png"))

	reqs := fake.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/product-images/products/usb-c-hub/1.png", reqs[0].Path)
	assert.Equal(t, "image/png", reqs[0].ContentType)
	assert.Equal(t, "png-bytes", reqs[0].Body)
	assert.Equal(t, http.MethodDelete, reqs[1].Method)

	_, err = s.Upload(ctx, "", strings.NewReader(""), 0, "image/png")
	assert.Error(t, err)
}

func TestEnsureBucket(t *testing.T) {
	s, fake, _ := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureBucket(ctx))
	require.NoError(t, s.EnsureBucket(ctx))

	var methods []string
	for _, r := range fake.Requests() {
		methods = append(methods, r.Method)
	}
	assert.Equal(t, []string{http.MethodHead, http.MethodPut, http.MethodHead}, methods)
}
