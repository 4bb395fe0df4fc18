package spaces

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/jobstore"
)

const testBucket = "jobs-bucket"

// fakeS3 implements the handful of S3 calls the backend makes, including
// If-Match / If-None-Match preconditions on PutObject.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	etags    map[string]string
	revision int
	failAll  bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), etags: make(map[string]string)}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		writeS3Error(w, http.StatusServiceUnavailable, "SlowDown")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == testBucket && r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	key := strings.TrimPrefix(path, testBucket+"/")

	switch r.Method {
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("ETag", f.etags[key])
		w.Write(body)

	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		current, exists := f.etags[key]

		if r.Header.Get("If-None-Match") == "*" && exists {
			writeS3Error(w, http.StatusPreconditionFailed, "PreconditionFailed")
			return
		}
		if match := r.Header.Get("If-Match"); match != "" && (!exists || match != current) {
			writeS3Error(w, http.StatusPreconditionFailed, "PreconditionFailed")
			return
		}

		f.revision++
		etag := fmt.Sprintf(`"rev-%d"`, f.revision)
		f.objects[key] = body
		f.etags[key] = etag
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestBackend(t *testing.T) (*Backend, *fakeS3) {
	t.Helper()
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.DigitalOcean.Spaces.Endpoint = srv.URL
	cfg.DigitalOcean.Spaces.Region = "us-east-1"
	cfg.DigitalOcean.Spaces.BucketName = testBucket
	cfg.DigitalOcean.Spaces.AccessKeyID = "key"
	cfg.DigitalOcean.Spaces.AccessKeySecret = "secret"
	cfg.DigitalOcean.Spaces.ForcePathStyle = true

	b, err := New(cfg, nil)
	require.NoError(t, err)
	return b, fake
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(config.Default(), nil)
	assert.Error(t, err)
}

func TestBackend_GetMissing(t *testing.T) {
	b, _ := newTestBackend(t)

	_, err := b.Get(context.Background(), "data/jobs.json")
	assert.ErrorIs(t, err, jobstore.ErrNotFound)
}

func TestBackend_ConditionalWrites(t *testing.T) {
	b, fake := newTestBackend(t)
	ctx := context.Background()

	v1, err := b.Put(ctx, "data/jobs.json", []byte(`[]`), jobstore.AbsentVersion)
	require.NoError(t, err)
	assert.Equal(t, `"rev-1"`, v1)

	_, err = b.Put(ctx, "data/jobs.json", []byte(`[{"id":9}]`), jobstore.AbsentVersion)
	assert.ErrorIs(t, err, jobstore.ErrVersionConflict)

	v2, err := b.Put(ctx, "data/jobs.json", []byte(`[{"id":1}]`), v1)
	require.NoError(t, err)

	_, err = b.Put(ctx, "data/jobs.json", []byte(`[]`), v1)
	assert.ErrorIs(t, err, jobstore.ErrVersionConflict)

	blob, err := b.Get(ctx, "data/jobs.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(blob.Content))
	assert.Equal(t, v2, blob.Version)

	fake.mu.Lock()
	assert.Equal(t, 2, fake.revision)
	fake.mu.Unlock()
}

func TestBackend_Unavailable(t *testing.T) {
	b, fake := newTestBackend(t)
	fake.mu.Lock()
	fake.failAll = true
	fake.mu.Unlock()

	_, err := b.Get(context.Background(), "data/jobs.json")
	assert.ErrorIs(t, err, jobstore.ErrBackendUnavailable)
}

func TestBackend_Ping(t *testing.T) {
	b, _ := newTestBackend(t)
	assert.NoError(t, b.Ping(context.Background()))
}

func TestBackend_WithStoreAppend(t *testing.T) {
	b, _ := newTestBackend(t)
	store := jobstore.New(b, nil, jobstore.Options{}, nil)

	job, err := store.Append(context.Background(), jobstore.Draft{Title: "t", Description: "d", CompanyName: "c"}, jobstore.Identity{UserID: "u"})
	require.NoError(t, err)
	assert.Equal(t, 1, job.ID)

	got, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
}
