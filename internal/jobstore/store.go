package jobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobboard-gateway/internal/logging"
)

const (
	DefaultPath         = "data/jobs.json"
	DefaultMaxAttempts  = 3
	DefaultRetryBackoff = 100 * time.Millisecond
)

// Options configures a Store
type Options struct {
	// Path of the collection blob inside the backend
	Path string
	// MaxAttempts bounds the read-write cycles of one Append, including the first
	MaxAttempts int
	// RetryBackoff is multiplied by the attempt number between retries
	RetryBackoff time.Duration
	Clock        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Path == "" {
		o.Path = DefaultPath
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.RetryBackoff < 0 {
		o.RetryBackoff = 0
	}
	if o.Clock == nil {
		o.Clock = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// Store is the versioned job collection. It keeps no cached copy: every call
// reads the backend, and writes are conditional on the version just read.
type Store struct {
	backend  Backend
	enricher Enricher
	opts     Options
	logger   logging.Logger
}

// New creates a Store. A nil enricher disables enrichment and a nil logger
// discards log output.
func New(backend Backend, enricher Enricher, opts Options, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Store{
		backend:  backend,
		enricher: enricher,
		opts:     opts.withDefaults(),
		logger:   logger.WithFields(map[string]interface{}{"component": "jobstore", "backend": backend.Name()}),
	}
}

// Path returns the blob path the store reads and writes
func (s *Store) Path() string {
	return s.opts.Path
}

// ReadAll fetches and decodes the collection. A missing blob is an empty
// collection with AbsentVersion.
func (s *Store) ReadAll(ctx context.Context) (Collection, string, error) {
	blob, err := s.backend.Get(ctx, s.opts.Path)
	if errors.Is(err, ErrNotFound) {
		return Collection{}, AbsentVersion, nil
	}
	if err != nil {
		return nil, "", asUnavailable("read "+s.opts.Path, err)
	}

	coll, err := decodeCollection(s.opts.Path, blob.Content)
	if err != nil {
		return nil, "", err
	}
	return coll, blob.Version, nil
}

// Append adds a job built from draft and attributed to who. On a version
// conflict the whole cycle is repeated against the latest blob, up to
// MaxAttempts times, after which ErrConcurrentModification is returned.
func (s *Store) Append(ctx context.Context, draft Draft, who Identity) (Job, error) {
	if err := draft.Validate(); err != nil {
		return Job{}, err
	}

	var (
		enriched bool
		summary  *string
		spam     bool
	)

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		coll, version, err := s.ReadAll(ctx)
		if err != nil {
			return Job{}, err
		}

		// enrichment depends only on the draft, so retries reuse it
		if !enriched {
			summary, spam = s.enrich(ctx, draft, who)
			enriched = true
		}

		job := draft.toJob(coll.NextID(), who, summary, spam, s.opts.Clock())
		content, err := encodeCollection(append(coll[:len(coll):len(coll)], job))
		if err != nil {
			return Job{}, fmt.Errorf("encode collection: %w", err)
		}

		newVersion, err := s.backend.Put(ctx, s.opts.Path, content, version)
		if err == nil {
			s.logger.Info("job appended", map[string]interface{}{
				"job_id":  job.ID,
				"attempt": attempt,
				"version": newVersion,
				"is_spam": job.IsSpam,
			})
			return job, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return Job{}, asUnavailable("write "+s.opts.Path, err)
		}

		s.logger.Warn("version conflict on append", map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": s.opts.MaxAttempts,
			"version":      version,
		})

		if attempt < s.opts.MaxAttempts {
			if err := sleepContext(ctx, s.opts.RetryBackoff*time.Duration(attempt)); err != nil {
				return Job{}, Unavailable("append backoff", err)
			}
		}
	}

	s.logger.Error("append gave up after repeated version conflicts", map[string]interface{}{
		"max_attempts": s.opts.MaxAttempts,
	})
	return Job{}, ErrConcurrentModification
}

// Filter narrows List results
type Filter struct {
	UserID      string
	ExcludeSpam bool
}

// List reads the collection and returns the jobs matching f
func (s *Store) List(ctx context.Context, f Filter) ([]Job, error) {
	coll, _, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	var preds []Predicate
	if f.UserID != "" {
		preds = append(preds, ByUser(f.UserID))
	}
	if f.ExcludeSpam {
		preds = append(preds, NotSpam())
	}
	return Find(coll, preds...), nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]Job, error) {
	return s.List(ctx, Filter{UserID: userID})
}

// Get returns the job with id, or an error matching ErrNotFound
func (s *Store) Get(ctx context.Context, id int) (Job, error) {
	coll, _, err := s.ReadAll(ctx)
	if err != nil {
		return Job{}, err
	}

	found := Find(coll, ByID(id))
	if len(found) == 0 {
		return Job{}, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	return found[0], nil
}

// Ping checks that the backend is reachable
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.backend.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return asUnavailable("ping", err)
		}
		return nil
	}
	_, err := s.backend.Get(ctx, s.opts.Path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return asUnavailable("ping", err)
	}
	return nil
}

func decodeCollection(path string, content []byte) (Collection, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Collection{}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	coll := make(Collection, len(elems))
	for i, raw := range elems {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, &DecodeError{Path: path, Err: fmt.Errorf("record %d: %w", i, errNullRecord)}
		}
		if err := json.Unmarshal(raw, &coll[i]); err != nil {
			return nil, &DecodeError{Path: path, Err: fmt.Errorf("record %d: %w", i, err)}
		}
	}
	if err := checkStored(coll); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return coll, nil
}

func encodeCollection(coll Collection) ([]byte, error) {
	if coll == nil {
		coll = Collection{}
	}
	data, err := json.MarshalIndent(coll, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func asUnavailable(op string, err error) error {
	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrDecode) {
		return err
	}
	return Unavailable(op, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
