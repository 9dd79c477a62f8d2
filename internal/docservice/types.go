package docservice

// =============================================================================
// Write Model
// =============================================================================

// Submission is the body of a new document version.
type Submission struct {
	HTML       string           `json:"html"`
	Links      []LinkInput      `json:"links,omitempty"`
	References []ReferenceInput `json:"references,omitempty"`
}

// LinkInput is a link with a client-chosen id, unique within the version.
type LinkInput struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ReferenceInput points at a link of the same version by id. The link does
// not have to exist.
type ReferenceInput struct {
	Anchor   string `json:"anchor"`
	Position int    `json:"position"`
	Link     int    `json:"link"`
}

// SubmitResult identifies the stored version.
type SubmitResult struct {
	Key string `json:"key"`
	ID  string `json:"id"`
}

// =============================================================================
// Read Model
// =============================================================================

// Version is a single stored document version.
type Version struct {
	Key  string `json:"key"`
	ID   string `json:"id"`
	HTML string `json:"html"`
}

// VersionList holds every version of a key, newest first.
type VersionList struct {
	Key  string         `json:"key"`
	Docs []VersionEntry `json:"docs"`
}

// VersionEntry is one element of VersionList.Docs.
type VersionEntry struct {
	ID   string `json:"id"`
	HTML string `json:"html"`
}

// LinkList holds the links of one version ordered by link id.
type LinkList struct {
	Key   string `json:"key"`
	ID    string `json:"id"`
	Links []Link `json:"links"`
}

// Link is one stored link.
type Link struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ReferenceList holds the references of one version ordered by link id.
type ReferenceList struct {
	Key        string      `json:"key"`
	ID         string      `json:"id"`
	References []Reference `json:"references"`
}

// Reference is one stored reference.
type Reference struct {
	Anchor   string `json:"anchor"`
	Position int    `json:"position"`
	Link     int    `json:"link"`
}
