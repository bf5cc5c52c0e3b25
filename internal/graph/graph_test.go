package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/skillgate/internal/models"
)

type fileSet map[string]bool

func (f fileSet) Exists(p string) bool { return f[p] }

func doc(path string, edges ...models.Edge) *models.Document {
	for i := range edges {
		edges[i].Source = path
		edges[i].DeclaredIn = path
	}
	return &models.Document{Path: path, Edges: edges}
}

func prose(target string) models.Edge {
	return models.Edge{Target: target, Kind: models.EdgeProse}
}

func declared(target string) models.Edge {
	return models.Edge{Target: target, Kind: models.EdgeDeclared}
}

func TestResolve_LookupOrder(t *testing.T) {
	r := NewResolver([]string{"README.md", "docs/a.md", "docs/guide/README.md", "docs/b.md"}, fileSet{"docs/img.png": true})

	cases := []struct {
		target string
		want   string
		status Status
	}{
		{"a.md", "docs/a.md", StatusResolved},
		{"a", "docs/a.md", StatusResolved},
		{"guide/", "docs/guide/README.md", StatusResolved},
		{"guide", "docs/guide/README.md", StatusResolved},
		{"../README.md", "README.md", StatusResolved},
		{"..", "README.md", StatusResolved},
		{"/docs/b.md", "docs/b.md", StatusResolved},
		{"b.md#section", "docs/b.md", StatusResolved},
		{"b.md?plain=1", "docs/b.md", StatusResolved},
		{"a%2Emd", "docs/a.md", StatusResolved},
		{"img.png", "docs/img.png", StatusAsset},
		{"missing.md", "", StatusBroken},
		{"../../outside.md", "", StatusBroken},
		{"#local", "", StatusAnchor},
		{"https://example.com/x.md", "", StatusExternal},
		{"mailto:someone@example.com", "", StatusExternal},
	}
	for _, tc := range cases {
		got, st := r.Resolve("docs/index.md", tc.target)
		assert.Equal(t, tc.status, st, tc.target)
		assert.Equal(t, tc.want, got, tc.target)
	}
}

func TestBuild_DeclaredNeverExternal(t *testing.T) {
	docs := []*models.Document{
		doc("hub.md", declared("https://example.com"), declared("#top"), declared("logo.png")),
	}
	_, vs := Build(docs, fileSet{"logo.png": true})
	require.Len(t, vs, 3)
	for _, v := range vs {
		assert.Equal(t, models.KindBrokenLink, v.Kind)
		assert.Equal(t, "hub.md", v.Subject)
	}
}

func TestBuild_OneBrokenLinkPerTarget(t *testing.T) {
	docs := []*models.Document{
		doc("a.md", prose("gone.md"), declared("gone.md"), declared("b.md")),
		doc("b.md", prose("https://example.com"), prose("#x")),
	}
	g, vs := Build(docs, nil)
	require.Len(t, vs, 1)
	assert.Equal(t, "a.md", vs[0].Subject)
	assert.Contains(t, vs[0].Detail, `"gone.md"`)

	assert.Equal(t, []string{"b.md"}, g.Children("a.md"))
	assert.Equal(t, []string{"a.md"}, g.DeclaredParents("b.md"))
	assert.Equal(t, 1, g.EdgeCount())
}

func TestBuild_ArrowEntriesResolveSourceRelativeToDeclarer(t *testing.T) {
	own := models.Edge{Target: "c.md", SourceAuthored: "b.md", Kind: models.EdgeDeclared}
	bad := models.Edge{Target: "c.md", SourceAuthored: "nope.md", Kind: models.EdgeDeclared}
	docs := []*models.Document{
		doc("index.md"),
		doc("x/b.md", own, bad),
		doc("x/c.md"),
	}
	g, vs := Build(docs, nil)
	assert.Equal(t, []string{"x/c.md"}, g.Children("x/b.md"))
	assert.Equal(t, []string{"x/b.md"}, g.DeclaredParents("x/c.md"))

	require.Len(t, vs, 1)
	assert.Equal(t, models.KindBrokenLink, vs[0].Kind)
	assert.Equal(t, "x/b.md", vs[0].Subject)
	assert.Contains(t, vs[0].Detail, "declared source")
}

func TestBuild_ArrowFromAnotherDocumentIsNotCredited(t *testing.T) {
	forged := models.Edge{Target: "c.md", SourceAuthored: "HUB.md", Kind: models.EdgeDeclared}
	docs := []*models.Document{
		doc("docs/HUB.md", declared("a.md")),
		doc("docs/a.md"),
		doc("docs/c.md", forged),
	}
	g, vs := Build(docs, nil)

	assert.Empty(t, g.DeclaredParents("docs/c.md"))
	assert.Equal(t, []string{"docs/a.md"}, g.Children("docs/HUB.md"))
	assert.Empty(t, g.Children("docs/c.md"))

	require.Len(t, vs, 1)
	assert.Equal(t, models.KindMalformedDeclaration, vs[0].Kind)
	assert.Equal(t, "docs/c.md", vs[0].Subject)
	assert.Contains(t, vs[0].Detail, "not the declaring document")

	var statuses []Status
	for _, e := range g.Edges() {
		statuses = append(statuses, e.Status)
	}
	assert.Contains(t, statuses, StatusForeign)
}

func TestBuild_ProseAssetIsNotAnEdge(t *testing.T) {
	docs := []*models.Document{doc("a.md", prose("script.sh"))}
	g, vs := Build(docs, fileSet{"script.sh": true})
	assert.Empty(t, vs)
	assert.Empty(t, g.Children("a.md"))
	require.Len(t, g.Edges(), 1)
	assert.Equal(t, StatusAsset, g.Edges()[0].Status)
}
