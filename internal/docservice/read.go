package docservice

import (
	"context"
	"iter"
	"time"

	"github.com/xtxerr/docservice/internal/errors"
	"github.com/xtxerr/docservice/internal/store"
)

// fold consumes seq, applying step to each row in delivery order. If the
// sequence reports an error the accumulator is discarded and the error is
// returned wrapped as a storage read failure.
func fold[R, A any](op string, seq iter.Seq2[R, error], acc A, step func(A, R) A) (A, error) {
	for row, err := range seq {
		if err != nil {
			var zero A
			return zero, errors.NewStorageRead(op, err)
		}
		acc = step(acc, row)
	}
	return acc, nil
}

// GetVersion returns one version of a document. Any id that names no stored
// version, well-formed or not, yields ErrVersionNotFound.
func (s *Service) GetVersion(ctx context.Context, key, id string) (v Version, err error) {
	start := time.Now()
	defer func() { s.observe(OpGetVersion, start, err) }()

	if err = checkKey(key); err != nil {
		return Version{}, err
	}
	canonical, ok := lookupID(id)
	if !ok {
		err = errors.Wrapf(errors.ErrVersionNotFound, "key %q id %q", key, id)
		return Version{}, err
	}
	id = canonical

	found := false
	v, err = fold(OpGetVersion, s.backend.ScanVersion(ctx, key, id), Version{Key: key, ID: id},
		func(v Version, row store.DocumentRow) Version {
			found = true
			v.HTML = row.HTML
			return v
		})
	if err != nil {
		return Version{}, err
	}
	if !found {
		err = errors.Wrapf(errors.ErrVersionNotFound, "key %q id %s", key, id)
		return Version{}, err
	}
	return v, nil
}

// GetAllVersions returns every version of key in the order storage delivers
// them, newest first. A key with no versions yields an empty list.
func (s *Service) GetAllVersions(ctx context.Context, key string) (list VersionList, err error) {
	start := time.Now()
	defer func() { s.observe(OpGetAllVersions, start, err) }()

	if err = checkKey(key); err != nil {
		return VersionList{}, err
	}

	return fold(OpGetAllVersions, s.backend.ScanVersions(ctx, key),
		VersionList{Key: key, Docs: []VersionEntry{}},
		func(l VersionList, row store.DocumentRow) VersionList {
			l.Docs = append(l.Docs, VersionEntry{ID: row.VersionID, HTML: row.HTML})
			return l
		})
}

// GetLinks returns the links stored with one version, ordered by link id.
// An unknown or malformed version id yields an empty list.
func (s *Service) GetLinks(ctx context.Context, key, id string) (list LinkList, err error) {
	start := time.Now()
	defer func() { s.observe(OpGetLinks, start, err) }()

	if err = checkKey(key); err != nil {
		return LinkList{}, err
	}
	canonical, ok := lookupID(id)
	if !ok {
		return LinkList{Key: key, ID: id, Links: []Link{}}, nil
	}
	id = canonical

	return fold(OpGetLinks, s.backend.ScanLinks(ctx, key, id),
		LinkList{Key: key, ID: id, Links: []Link{}},
		func(l LinkList, row store.LinkRow) LinkList {
			l.Links = append(l.Links, Link{ID: row.LinkID, Title: row.Title, URI: row.URI})
			return l
		})
}

// GetReferences returns the references stored with one version, ordered by
// the link id they point at. An unknown or malformed version id yields an
// empty list.
func (s *Service) GetReferences(ctx context.Context, key, id string) (list ReferenceList, err error) {
	start := time.Now()
	defer func() { s.observe(OpGetReferences, start, err) }()

	if err = checkKey(key); err != nil {
		return ReferenceList{}, err
	}
	canonical, ok := lookupID(id)
	if !ok {
		return ReferenceList{Key: key, ID: id, References: []Reference{}}, nil
	}
	id = canonical

	return fold(OpGetReferences, s.backend.ScanReferences(ctx, key, id),
		ReferenceList{Key: key, ID: id, References: []Reference{}},
		func(l ReferenceList, row store.ReferenceRow) ReferenceList {
			l.References = append(l.References, Reference{
				Anchor:   row.Anchor,
				Position: row.Position,
				Link:     row.LinkID,
			})
			return l
		})
}
