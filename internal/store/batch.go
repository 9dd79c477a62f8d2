package store

import "sort"

// Batch is the write unit for one submitted version: the document row plus
// its link and reference rows. Every row shares the document's (key,
// version id).
//
// Links and references are keyed by link id, matching their clustering key,
// so adding a second row with the same id replaces the first. Backends never
// see two rows for one primary key.
type Batch struct {
	doc   DocumentRow
	links map[int]LinkRow
	refs  map[int]ReferenceRow
}

// NewBatch starts a batch for a new document version.
func NewBatch(key, versionID, html string) *Batch {
	return &Batch{
		doc:   DocumentRow{Key: key, VersionID: versionID, HTML: html},
		links: make(map[int]LinkRow),
		refs:  make(map[int]ReferenceRow),
	}
}

// AddLink adds or replaces the link row for linkID.
func (b *Batch) AddLink(linkID int, title, uri string) {
	b.links[linkID] = LinkRow{
		Key:       b.doc.Key,
		VersionID: b.doc.VersionID,
		LinkID:    linkID,
		Title:     title,
		URI:       uri,
	}
}

// AddReference adds or replaces the reference row for linkID.
func (b *Batch) AddReference(linkID int, anchor string, position int) {
	b.refs[linkID] = ReferenceRow{
		Key:       b.doc.Key,
		VersionID: b.doc.VersionID,
		LinkID:    linkID,
		Anchor:    anchor,
		Position:  position,
	}
}

// Document returns the document row.
func (b *Batch) Document() DocumentRow {
	return b.doc
}

// Links returns the link rows ordered by link id.
func (b *Batch) Links() []LinkRow {
	out := make([]LinkRow, 0, len(b.links))
	for _, l := range b.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LinkID < out[j].LinkID })
	return out
}

// References returns the reference rows ordered by link id.
func (b *Batch) References() []ReferenceRow {
	out := make([]ReferenceRow, 0, len(b.refs))
	for _, r := range b.refs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LinkID < out[j].LinkID })
	return out
}

// Len returns the number of rows the batch writes.
func (b *Batch) Len() int {
	return 1 + len(b.links) + len(b.refs)
}
