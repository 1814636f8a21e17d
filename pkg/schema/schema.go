// Package schema describes the fixed physical relational schema the
// translator targets and the schema-qualified naming of its tables.
// Unlike the general, loaded schemas a SQL analyzer works against, this
// schema is closed: there are exactly five tables and they never vary
// between compilations.
package schema

// Physical table names, unqualified by schema prefix.
const (
	TableNodes      = "nodes"
	TableLabels     = "rdf_labels"
	TableProps      = "rdf_props"
	TableEdges      = "rdf_edges"
	TableEmbeddings = "kg_NodeEmbeddings"
)

// Column names referenced by the translator.
const (
	ColNodeID     = "node_id"
	ColCreatedAt  = "created_at"
	ColLabelS     = "s"
	ColLabel      = "label"
	ColPropS      = "s"
	ColPropKey    = "key"
	ColPropVal    = "val"
	ColEdgeS      = "s"
	ColEdgeP      = "p"
	ColEdgeO      = "o_id"
	ColEdgeQual   = "qualifiers"
	ColEmbID      = "id"
	ColEmbVector  = "emb"
)

// DefaultSchemaPrefix matches the host engine's conventional namespace
// for the knowledge-graph tables.
const DefaultSchemaPrefix = "Graph_KG"

// Namer prepends a configurable schema prefix to every table
// reference. The zero Namer uses no prefix; Cypher compilations that
// want the host engine's default should use NewNamer(DefaultSchemaPrefix).
type Namer struct {
	Prefix string
}

// NewNamer builds a Namer with the given prefix.
func NewNamer(prefix string) Namer { return Namer{Prefix: prefix} }

// Table returns the schema-qualified name of a physical table.
func (n Namer) Table(name string) string {
	if n.Prefix == "" {
		return name
	}
	return n.Prefix + "." + name
}
