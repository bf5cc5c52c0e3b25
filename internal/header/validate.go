package header

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SlugPattern is the kebab-case form required of package names.
var SlugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Rules parameterises Validate.
type Rules struct {
	// Slug is the package directory name the header name must equal.
	Slug          string
	NameMaxLength int
	DescMinLength int
	DescMaxLength int
}

// FieldError is a validation failure for one header field.
type FieldError struct {
	Field   string
	Missing bool
	Message string
}

// Validate checks the typed header against rules. Each field yields at most
// one FieldError; results are ordered by field name.
func Validate(h Header, r Rules) []FieldError {
	descRules := []validation.Rule{validation.Required}
	if r.DescMaxLength > 0 {
		descRules = append(descRules, validation.RuneLength(r.DescMinLength, r.DescMaxLength))
	} else if r.DescMinLength > 0 {
		descRules = append(descRules, validation.RuneLength(r.DescMinLength, 0))
	}

	err := validation.ValidateStruct(&h,
		validation.Field(&h.Name, validation.Required, validation.By(nameRule(r))),
		validation.Field(&h.Description, descRules...),
	)
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return []FieldError{{Field: "header", Message: err.Error()}}
	}

	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make([]FieldError, 0, len(fields))
	for _, f := range fields {
		fe := FieldError{Field: f, Message: errs[f].Error()}
		var verr validation.Error
		if errors.As(errs[f], &verr) && verr.Code() == validation.ErrRequired.Code() {
			fe.Missing = true
			fe.Message = fmt.Sprintf("required field %q is missing", f)
		}
		out = append(out, fe)
	}
	return out
}

// nameRule reports a directory mismatch first; only a name equal to its
// directory is checked for form, so one defect never yields two errors.
func nameRule(r Rules) validation.RuleFunc {
	return func(value interface{}) error {
		name, _ := value.(string)
		if name == "" {
			return nil
		}
		if r.Slug != "" && name != r.Slug {
			return fmt.Errorf("name %q does not match package directory %q", name, r.Slug)
		}
		if !SlugPattern.MatchString(name) {
			return fmt.Errorf("name %q is not kebab-case", name)
		}
		if r.NameMaxLength > 0 && len(name) > r.NameMaxLength {
			return fmt.Errorf("name %q exceeds %d characters", name, r.NameMaxLength)
		}
		return nil
	}
}
