// Package models defines the domain types shared by the audit engine.
package models

// EdgeKind distinguishes advisory prose links from authoritative declarations.
type EdgeKind string

const (
	EdgeProse    EdgeKind = "prose-link"
	EdgeDeclared EdgeKind = "declared-autolink"
)

// Document is one corpus file after parsing. It is immutable once loaded.
type Document struct {
	Path     string
	Raw      string
	Checksum string
	Header   HeaderInfo
	Sections []Section
	Edges    []Edge
	// Malformed lists declared-block lines that could not be parsed.
	Malformed []string
	Tokens    int
}

// HeaderInfo is the parsed header block of a document.
type HeaderInfo struct {
	Present bool
	// Fields keeps the header keys in authored order.
	Fields    []HeaderField
	Name      string
	Desc      string
	Requires  []string
	Related   []string
	Resources []string
	// Problems holds parse failures; a non-empty list with Present=false
	// means structural checks cannot run on this document.
	Problems []string
}

// HeaderField is one key/value pair from the header block.
type HeaderField struct {
	Key   string
	Value string
}

// Has reports whether the header declares key.
func (h HeaderInfo) Has(key string) bool {
	for _, f := range h.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Section is a heading and the body that runs until the next heading of
// equal or shallower level. Level 0 is the implicit preamble.
type Section struct {
	Heading    string
	Level      int
	Body       string
	TokenCount int
	// Start and End are byte offsets of the whole section, heading line
	// included, within Document.Raw.
	Start int
	End   int
}

// Edge is an outbound reference as authored in Source.
type Edge struct {
	// Source is the document the edge starts from. For declared entries of
	// the form "a -> b" it is the resolved form of "a", otherwise the
	// declaring document.
	Source string `json:"source"`
	Target string `json:"target"`
	// DeclaredIn is the document whose text contains the reference.
	DeclaredIn string   `json:"declared_in"`
	Kind       EdgeKind `json:"kind"`
	// SourceAuthored is the raw source path of an "a -> b" entry.
	SourceAuthored string `json:"-"`
}
