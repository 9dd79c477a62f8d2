package store

// =============================================================================
// Schema Declaration
// =============================================================================

// Column names shared by every backend.
const (
	ColKey       = "key"
	ColVersionID = "version_id"
	ColHTML      = "html"
	ColLinkID    = "link_id"
	ColTitle     = "title"
	ColURI       = "uri"
	ColAnchor    = "anchor"
	ColPosition  = "position"
)

// Table names within the namespace.
const (
	TableDocuments  = "documents"
	TableLinks      = "links"
	TableReferences = "references"
)

// DefaultNamespace is the keyspace/schema the tables live in.
const DefaultNamespace = "docservice"

// ColumnType is the logical type of a column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInt
)

// Column is a named, typed column.
type Column struct {
	Name string
	Type ColumnType
}

// Clustering is a clustering column and its sort direction.
type Clustering struct {
	Column     string
	Descending bool
}

// TableSpec declares a table: its columns, the columns forming its partition
// key, and the clustering columns ordering rows inside a partition.
type TableSpec struct {
	Name       string
	Columns    []Column
	Partition  []string
	Clustering []Clustering
}

// PrimaryKey returns partition columns followed by clustering columns.
func (t TableSpec) PrimaryKey() []string {
	pk := append([]string(nil), t.Partition...)
	for _, c := range t.Clustering {
		pk = append(pk, c.Column)
	}
	return pk
}

// Schema is the full table layout.
type Schema struct {
	Namespace string
	Tables    []TableSpec
}

// Table looks up a table by name.
func (s Schema) Table(name string) (TableSpec, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSpec{}, false
}

// DocServiceSchema returns the layout for the given namespace.
//
// Documents are partitioned by key and clustered newest first so the history
// of a key is one pre-sorted partition. Links and references are partitioned
// by (key, version id) so the rows of one version are one partition; listing
// them across versions is not supported.
func DocServiceSchema(namespace string) Schema {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return Schema{
		Namespace: namespace,
		Tables: []TableSpec{
			{
				Name: TableDocuments,
				Columns: []Column{
					{ColKey, TypeString},
					{ColVersionID, TypeString},
					{ColHTML, TypeString},
				},
				Partition:  []string{ColKey},
				Clustering: []Clustering{{Column: ColVersionID, Descending: true}},
			},
			{
				Name: TableLinks,
				Columns: []Column{
					{ColKey, TypeString},
					{ColVersionID, TypeString},
					{ColLinkID, TypeInt},
					{ColTitle, TypeString},
					{ColURI, TypeString},
				},
				Partition:  []string{ColKey, ColVersionID},
				Clustering: []Clustering{{Column: ColLinkID}},
			},
			{
				Name: TableReferences,
				Columns: []Column{
					{ColKey, TypeString},
					{ColVersionID, TypeString},
					{ColLinkID, TypeInt},
					{ColAnchor, TypeString},
					{ColPosition, TypeInt},
				},
				Partition:  []string{ColKey, ColVersionID},
				Clustering: []Clustering{{Column: ColLinkID}},
			},
		},
	}
}
