package report

import "github.com/starford/skillgate/internal/models"

var defaultSeverity = map[models.Kind]models.Severity{
	models.KindBrokenLink:               models.SeverityError,
	models.KindHubViolation:             models.SeverityError,
	models.KindOrphan:                   models.SeverityWarning,
	models.KindCycle:                    models.SeverityError,
	models.KindMissingHeaderField:       models.SeverityError,
	models.KindMissingSection:           models.SeverityError,
	models.KindTokenBudgetExceeded:      models.SeverityError,
	models.KindInvalidResourceReference: models.SeverityError,
	models.KindInvalidHeaderField:       models.SeverityError,
	models.KindDuplicateSection:         models.SeverityWarning,
	models.KindUnknownDependency:        models.SeverityWarning,
	models.KindMalformedDeclaration:     models.SeverityWarning,
}

// Policy assigns severities to violation kinds.
type Policy struct {
	// SeverityOverrides replaces the default severity of a kind.
	SeverityOverrides map[models.Kind]models.Severity
}

// DefaultSeverity returns the built-in severity of kind.
func DefaultSeverity(kind models.Kind) models.Severity {
	if s, ok := defaultSeverity[kind]; ok {
		return s
	}
	return models.SeverityError
}

// Severity returns the effective severity of kind.
func (p Policy) Severity(kind models.Kind) models.Severity {
	if s, ok := p.SeverityOverrides[kind]; ok {
		return s
	}
	return DefaultSeverity(kind)
}

// Apply returns a copy of vs with severities assigned.
func (p Policy) Apply(vs []models.Violation) []models.Violation {
	out := make([]models.Violation, len(vs))
	for i, v := range vs {
		v.Severity = p.Severity(v.Kind)
		out[i] = v
	}
	return out
}

// Gates are the count ceilings a passing audit must stay within.
type Gates struct {
	MaxBrokenLinks   int
	MaxHubViolations int
	MaxOrphans       int
}
