// Package docservice implements the versioned document store: the write
// coordinator that turns a submission into one atomic batch, and the read
// aggregators that fold streamed rows into results.
//
// Service holds no mutable state of its own. Every call is independent and
// safe to run concurrently with any other.
package docservice

import (
	"context"
	"fmt"
	"time"

	"github.com/xtxerr/docservice/internal/errors"
	"github.com/xtxerr/docservice/internal/logging"
	"github.com/xtxerr/docservice/internal/stats"
	"github.com/xtxerr/docservice/internal/store"
	"github.com/xtxerr/docservice/internal/validation"
	"github.com/xtxerr/docservice/internal/versionid"
)

var log = logging.Component("docservice")

// Operation names used for statistics.
const (
	OpSubmit         = "submit"
	OpGetVersion     = "get_version"
	OpGetAllVersions = "get_all_versions"
	OpGetLinks       = "get_links"
	OpGetReferences  = "get_references"
)

// Service is the document service.
type Service struct {
	backend store.Backend
	ids     *versionid.Generator
	stats   *stats.Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithStats records per-operation statistics into r.
func WithStats(r *stats.Recorder) Option {
	return func(s *Service) {
		s.stats = r
	}
}

// New creates a Service over an initialised backend.
func New(backend store.Backend, ids *versionid.Generator, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		ids:     ids,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Health reports whether the backend is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.backend.Health(ctx)
}

func (s *Service) observe(op string, start time.Time, err error) {
	if s.stats != nil {
		s.stats.Since(op, start, err)
	}
}

// =============================================================================
// Input Checks
// =============================================================================

func checkKey(key string) error {
	if err := validation.ValidateKey(key); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidKey, err)
	}
	return nil
}

// lookupID canonicalises a version id received from a reader. ok is false
// when id cannot name any stored version, so the storage round trip can be
// skipped.
func lookupID(id string) (string, bool) {
	return versionid.Canonical(id)
}
