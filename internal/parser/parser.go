// Package parser turns raw Markdown into a models.Document: header block,
// leveled sections, prose links, and declared-link entries.
package parser

import (
	"github.com/starford/skillgate/internal/checksum"
	"github.com/starford/skillgate/internal/header"
	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/tokens"
)

// Parse builds a Document for the file at path. It never fails: a
// malformed header is recorded on Document.Header and the rest of the
// document is still parsed so it can take part in graph checks.
func Parse(path string, data []byte, est tokens.Estimator) *models.Document {
	if est == nil {
		est = tokens.Default
	}

	hdr := header.Parse(data)
	body := data[hdr.BodyOffset:]

	doc := &models.Document{
		Path:     path,
		Raw:      string(data),
		Checksum: checksum.Sum(data),
		Header:   hdr.Info,
		Tokens:   est(string(data)),
	}

	doc.Sections = ExtractSections(body, hdr.BodyOffset, est)

	for _, target := range ExtractProseLinks(body) {
		doc.Edges = append(doc.Edges, models.Edge{
			Source:     path,
			Target:     target,
			DeclaredIn: path,
			Kind:       models.EdgeProse,
		})
	}

	entries, malformed := ExtractDeclared(data)
	doc.Malformed = malformed
	for _, e := range entries {
		doc.Edges = append(doc.Edges, models.Edge{
			Source:         path,
			SourceAuthored: e.Source,
			Target:         e.Target,
			DeclaredIn:     path,
			Kind:           models.EdgeDeclared,
		})
	}

	return doc
}
