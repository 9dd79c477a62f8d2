package store

import "testing"

func TestBatch_DuplicateLinkLastWins(t *testing.T) {
	b := NewBatch("doc-42", "v1", "<p>hi</p>")
	b.AddLink(1, "first", "http://a")
	b.AddLink(2, "two", "http://b")
	b.AddLink(1, "second", "http://c")

	links := b.Links()
	if len(links) != 2 {
		t.Fatalf("links = %d, want 2", len(links))
	}
	if links[0].LinkID != 1 || links[0].Title != "second" || links[0].URI != "http://c" {
		t.Errorf("links[0] = %+v, want replaced link 1", links[0])
	}
	if links[1].LinkID != 2 {
		t.Errorf("links[1].LinkID = %d, want 2", links[1].LinkID)
	}
	if b.Len() != 3 {
		t.Errorf("Len = %d, want 3", b.Len())
	}
}

func TestBatch_RowsInheritParent(t *testing.T) {
	b := NewBatch("k", "v", "<p/>")
	b.AddLink(7, "t", "u")
	b.AddReference(7, "intro", 3)

	for _, l := range b.Links() {
		if l.Key != "k" || l.VersionID != "v" {
			t.Errorf("link parent = (%s, %s), want (k, v)", l.Key, l.VersionID)
		}
	}
	refs := b.References()
	if len(refs) != 1 {
		t.Fatalf("references = %d, want 1", len(refs))
	}
	if refs[0].Key != "k" || refs[0].VersionID != "v" || refs[0].Position != 3 {
		t.Errorf("reference = %+v", refs[0])
	}
}

func TestBatch_OrderedByLinkID(t *testing.T) {
	b := NewBatch("k", "v", "x")
	for _, id := range []int{5, -1, 3, 0} {
		b.AddReference(id, "a", id)
	}

	refs := b.References()
	for i := 1; i < len(refs); i++ {
		if refs[i-1].LinkID >= refs[i].LinkID {
			t.Fatalf("references not ordered: %d before %d", refs[i-1].LinkID, refs[i].LinkID)
		}
	}
}

func TestDocServiceSchema(t *testing.T) {
	s := DocServiceSchema("")
	if s.Namespace != DefaultNamespace {
		t.Errorf("Namespace = %q, want %q", s.Namespace, DefaultNamespace)
	}

	docs, ok := s.Table(TableDocuments)
	if !ok {
		t.Fatal("documents table missing")
	}
	if len(docs.Clustering) != 1 || !docs.Clustering[0].Descending {
		t.Errorf("documents clustering = %+v, want version_id DESC", docs.Clustering)
	}

	for _, name := range []string{TableLinks, TableReferences} {
		tbl, ok := s.Table(name)
		if !ok {
			t.Fatalf("%s table missing", name)
		}
		pk := tbl.PrimaryKey()
		want := []string{ColKey, ColVersionID, ColLinkID}
		if len(pk) != len(want) {
			t.Fatalf("%s primary key = %v, want %v", name, pk, want)
		}
		for i := range want {
			if pk[i] != want[i] {
				t.Errorf("%s primary key = %v, want %v", name, pk, want)
			}
		}
	}

	if _, ok := s.Table("missing"); ok {
		t.Error("unexpected table")
	}
}
