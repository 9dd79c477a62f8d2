package docservice

import (
	"context"
	"fmt"
	"time"

	"github.com/xtxerr/docservice/internal/errors"
	"github.com/xtxerr/docservice/internal/store"
	"github.com/xtxerr/docservice/internal/validation"
)

// Submit stores a new version of the document under key and returns the
// minted version id.
//
// The submission is checked completely before storage is touched. All rows
// of the version are applied as one batch: either the document, its links
// and its references all become visible, or none of them do. Links or
// references sharing a link id collapse to the last one given.
func (s *Service) Submit(ctx context.Context, key string, sub Submission) (res SubmitResult, err error) {
	start := time.Now()
	defer func() { s.observe(OpSubmit, start, err) }()

	if err = checkSubmission(key, sub); err != nil {
		return SubmitResult{}, err
	}

	id := s.ids.Mint()

	b := store.NewBatch(key, id, sub.HTML)
	for _, l := range sub.Links {
		b.AddLink(l.ID, l.Title, l.URI)
	}
	for _, r := range sub.References {
		b.AddReference(r.Link, r.Anchor, r.Position)
	}

	if err = s.backend.Apply(ctx, b); err != nil {
		err = errors.NewStorageWrite(OpSubmit, err)
		return SubmitResult{}, err
	}

	log.Debug("version stored",
		"key", key,
		"id", id,
		"links", len(b.Links()),
		"references", len(b.References()))

	return SubmitResult{Key: key, ID: id}, nil
}

// checkSubmission rejects anything the storage layer could not hold.
func checkSubmission(key string, sub Submission) error {
	if err := validation.ValidateKey(key); err != nil {
		return fmt.Errorf("%w: %w: %v", errors.ErrInvalidDocument, errors.ErrInvalidKey, err)
	}
	if err := validation.ValidateHTML(sub.HTML); err != nil {
		return errors.NewInvalidDocument(err.Error())
	}

	for i, l := range sub.Links {
		if err := validation.ValidateInt32("link id", l.ID); err != nil {
			return errors.NewInvalidDocument(fmt.Sprintf("links[%d]: %v", i, err))
		}
	}
	for i, r := range sub.References {
		if err := validation.ValidateInt32("link", r.Link); err != nil {
			return errors.NewInvalidDocument(fmt.Sprintf("references[%d]: %v", i, err))
		}
		if err := validation.ValidateInt32("position", r.Position); err != nil {
			return errors.NewInvalidDocument(fmt.Sprintf("references[%d]: %v", i, err))
		}
	}
	return nil
}
