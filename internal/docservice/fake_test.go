package docservice

import (
	"context"
	"iter"
	"sort"
	"sync"

	"github.com/xtxerr/docservice/internal/store"
)

// fakeBackend is an in-memory store.Backend with failure injection.
type fakeBackend struct {
	mu    sync.Mutex
	docs  []store.DocumentRow
	links []store.LinkRow
	refs  []store.ReferenceRow

	applyCalls int
	scanCalls  int

	// applyErr fails every Apply without writing.
	applyErr error
	// scanErr is yielded after failAfter rows of any scan.
	scanErr   error
	failAfter int
}

var _ store.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) EnsureSchema(ctx context.Context) error { return nil }
func (f *fakeBackend) Health(ctx context.Context) error       { return nil }
func (f *fakeBackend) Close() error                           { return nil }

func (f *fakeBackend) Apply(ctx context.Context, b *store.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.applyCalls++
	if f.applyErr != nil {
		return f.applyErr
	}
	f.docs = append(f.docs, b.Document())
	f.links = append(f.links, b.Links()...)
	f.refs = append(f.refs, b.References()...)
	return nil
}

func (f *fakeBackend) ScanVersion(ctx context.Context, key, versionID string) iter.Seq2[store.DocumentRow, error] {
	return scan(f, func() []store.DocumentRow {
		var out []store.DocumentRow
		for _, d := range f.docs {
			if d.Key == key && d.VersionID == versionID {
				out = append(out, d)
			}
		}
		return out
	})
}

func (f *fakeBackend) ScanVersions(ctx context.Context, key string) iter.Seq2[store.DocumentRow, error] {
	return scan(f, func() []store.DocumentRow {
		var out []store.DocumentRow
		for _, d := range f.docs {
			if d.Key == key {
				out = append(out, d)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].VersionID > out[j].VersionID })
		return out
	})
}

func (f *fakeBackend) ScanLinks(ctx context.Context, key, versionID string) iter.Seq2[store.LinkRow, error] {
	return scan(f, func() []store.LinkRow {
		var out []store.LinkRow
		for _, l := range f.links {
			if l.Key == key && l.VersionID == versionID {
				out = append(out, l)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].LinkID < out[j].LinkID })
		return out
	})
}

func (f *fakeBackend) ScanReferences(ctx context.Context, key, versionID string) iter.Seq2[store.ReferenceRow, error] {
	return scan(f, func() []store.ReferenceRow {
		var out []store.ReferenceRow
		for _, r := range f.refs {
			if r.Key == key && r.VersionID == versionID {
				out = append(out, r)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].LinkID < out[j].LinkID })
		return out
	})
}

func scan[T any](f *fakeBackend, rows func() []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		f.mu.Lock()
		f.scanCalls++
		snapshot := rows()
		scanErr, failAfter := f.scanErr, f.failAfter
		f.mu.Unlock()

		for i, row := range snapshot {
			if scanErr != nil && i == failAfter {
				var zero T
				yield(zero, scanErr)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if scanErr != nil && failAfter >= len(snapshot) {
			var zero T
			yield(zero, scanErr)
		}
	}
}
