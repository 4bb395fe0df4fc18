package jobstore

import "context"

// AbsentVersion is the version of a blob that does not exist yet. Passing it
// to Put means "create only if absent".
const AbsentVersion = ""

// Blob is the raw content of a remote file together with its version token
type Blob struct {
	Content []byte
	Version string
}

// Backend is a remote file store with conditional writes.
//
// Get returns ErrNotFound for a missing blob. Put must reject, with
// ErrVersionConflict and without touching the stored content, any write whose
// expectedVersion differs from the current version. Transport failures should
// match ErrBackendUnavailable.
type Backend interface {
	Get(ctx context.Context, path string) (Blob, error)
	Put(ctx context.Context, path string, content []byte, expectedVersion string) (string, error)
	Name() string
}

// Pinger is implemented by backends with a cheaper liveness probe than Get
type Pinger interface {
	Ping(ctx context.Context) error
}

// Enricher annotates a job before it is written. Both calls are best effort:
// the store replaces any failure with a nil summary and isSpam=false.
type Enricher interface {
	Summarize(ctx context.Context, url string) (*string, error)
	ClassifySpam(ctx context.Context, job Job) (bool, error)
}
