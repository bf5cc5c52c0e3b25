package models

import "fmt"

// Kind classifies a Violation.
type Kind string

const (
	KindBrokenLink               Kind = "BrokenLink"
	KindHubViolation             Kind = "HubViolation"
	KindOrphan                   Kind = "Orphan"
	KindCycle                    Kind = "Cycle"
	KindMissingHeaderField       Kind = "MissingHeaderField"
	KindMissingSection           Kind = "MissingSection"
	KindTokenBudgetExceeded      Kind = "TokenBudgetExceeded"
	KindInvalidResourceReference Kind = "InvalidResourceReference"
	KindInvalidHeaderField       Kind = "InvalidHeaderField"
	KindDuplicateSection         Kind = "DuplicateSection"
	KindUnknownDependency        Kind = "UnknownDependency"
	KindMalformedDeclaration     Kind = "MalformedDeclaration"
)

// Kinds lists every violation kind in report order.
var Kinds = []Kind{
	KindBrokenLink,
	KindHubViolation,
	KindOrphan,
	KindCycle,
	KindMissingHeaderField,
	KindMissingSection,
	KindTokenBudgetExceeded,
	KindInvalidResourceReference,
	KindInvalidHeaderField,
	KindDuplicateSection,
	KindUnknownDependency,
	KindMalformedDeclaration,
}

// ParseKind converts s into a known Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown violation kind %q", s)
}

// Severity is the policy weight of a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is a single finding. Severity is assigned by the report policy.
type Violation struct {
	Kind     Kind     `json:"kind"`
	Subject  string   `json:"subject"`
	Detail   string   `json:"detail"`
	Severity Severity `json:"severity"`
}

// NewViolation builds a violation without severity.
func NewViolation(kind Kind, subject, detail string) Violation {
	return Violation{Kind: kind, Subject: subject, Detail: detail}
}

// Violationf is NewViolation with a formatted detail.
func Violationf(kind Kind, subject, format string, args ...any) Violation {
	return Violation{Kind: kind, Subject: subject, Detail: fmt.Sprintf(format, args...)}
}
