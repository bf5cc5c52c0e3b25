package graph

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Status classifies the outcome of resolving one authored target.
type Status string

const (
	StatusResolved Status = "resolved"
	StatusBroken   Status = "broken"
	StatusExternal Status = "external"
	StatusAnchor   Status = "anchor"
	StatusAsset    Status = "asset"
	// StatusForeign marks a declared entry whose source is not the document
	// that declares it. It never enters the adjacency.
	StatusForeign  Status = "foreign"
)

var scheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// FileChecker reports whether a corpus-relative path exists on disk.
// storage.Provider satisfies it.
type FileChecker interface {
	Exists(path string) bool
}

// Resolver maps authored targets onto the known document set.
type Resolver struct {
	docs  map[string]bool
	files FileChecker
}

// NewResolver creates a resolver over the given document paths. files may
// be nil, in which case no target resolves as an asset.
func NewResolver(paths []string, files FileChecker) *Resolver {
	docs := make(map[string]bool, len(paths))
	for _, p := range paths {
		docs[p] = true
	}
	return &Resolver{docs: docs, files: files}
}

// IsDocument reports whether p is a known document path.
func (r *Resolver) IsDocument(p string) bool { return r.docs[p] }

// Resolve resolves target as written in the document at source. Lookup
// order is the exact path, then target.md, then target/README.md. The
// returned path is empty unless the status is resolved or asset.
func (r *Resolver) Resolve(source, target string) (string, Status) {
	target = strings.TrimSpace(target)
	switch {
	case target == "":
		return "", StatusBroken
	case strings.HasPrefix(target, "#"):
		return "", StatusAnchor
	case scheme.MatchString(target):
		return "", StatusExternal
	}

	p, ok := Normalize(source, target)
	if !ok {
		return "", StatusBroken
	}
	for _, c := range candidates(p) {
		if r.docs[c] {
			return c, StatusResolved
		}
	}
	if p != "." && r.files != nil && r.files.Exists(p) {
		return p, StatusAsset
	}
	return "", StatusBroken
}

// Normalize strips any fragment and query, unescapes, and joins target with
// the directory of source. A leading slash anchors the target at the corpus
// root. It reports false when the result escapes the root.
func Normalize(source, target string) (string, bool) {
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	if u, err := url.PathUnescape(target); err == nil {
		target = u
	}
	if target == "" {
		return "", false
	}

	var p string
	if strings.HasPrefix(target, "/") {
		p = path.Clean(strings.TrimLeft(target, "/"))
	} else {
		p = path.Join(path.Dir(source), target)
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}

func candidates(p string) []string {
	if p == "." {
		return []string{"README.md"}
	}
	out := []string{p}
	if !strings.HasSuffix(p, ".md") {
		out = append(out, p+".md")
	}
	return append(out, path.Join(p, "README.md"))
}
