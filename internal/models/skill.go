package models

// TierID names a progressive-disclosure tier.
type TierID string

// SkillPackage is a package document together with its derived structure.
type SkillPackage struct {
	// Slug is the containing directory name.
	Slug string `json:"slug"`
	// Dir is the package directory relative to the corpus root.
	Dir  string `json:"dir"`
	Path string `json:"path"`

	Name        string   `json:"name"`
	Description string   `json:"description"`
	Requires    []string `json:"requires,omitempty"`
	Related     []string `json:"related,omitempty"`
	Resources   []string `json:"resources,omitempty"`

	Tiers []TierInfo `json:"tiers"`
}

// TierInfo describes one tier as found in a package body.
type TierInfo struct {
	ID       TierID   `json:"id"`
	Present  bool     `json:"present"`
	Tokens   int      `json:"tokens"`
	Budget   int      `json:"budget"`
	Headings []string `json:"headings,omitempty"`
}
