package manifest

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a single structural problem in a manifest.
type ValidationError struct {
	// Path locates the problem (e.g. "components[1].type").
	Path string `json:"path,omitempty"`

	// Message describes the problem.
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator performs structural validation of service manifests. All
// problems across the manifest are collected before returning so authors
// can fix them in one pass.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a manifest validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate checks a parsed manifest for structural problems: missing
// required fields, duplicate component names, unknown compliance frameworks
// and references to undeclared components from overrides and patches.
// Dependency and binding target references are validated later by the
// dependency graph resolver, which owns those error kinds.
func (v *Validator) Validate(m *ServiceManifest) []ValidationError {
	var errs []ValidationError

	if err := v.validate.Struct(m); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				errs = append(errs, ValidationError{
					Path:    fieldPath(fe),
					Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
				})
			}
		} else {
			errs = append(errs, ValidationError{Message: err.Error()})
		}
	}

	if m.ComplianceFramework != "" && !m.ComplianceFramework.Valid() {
		errs = append(errs, ValidationError{
			Path:    "complianceFramework",
			Message: fmt.Sprintf("unknown compliance framework %q", m.ComplianceFramework),
		})
	}

	declared := make(map[string]bool, len(m.Components))
	for i, spec := range m.Components {
		if spec.Name == "" {
			continue
		}
		if declared[spec.Name] {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("components[%d].name", i),
				Message: fmt.Sprintf("duplicate component name %q", spec.Name),
			})
		}
		declared[spec.Name] = true
	}

	for name, env := range m.Environments {
		if env.ComplianceFramework != "" && !env.ComplianceFramework.Valid() {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("environments.%s.complianceFramework", name),
				Message: fmt.Sprintf("unknown compliance framework %q", env.ComplianceFramework),
			})
		}
		for comp := range env.Overrides {
			if !declared[comp] {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("environments.%s.overrides.%s", name, comp),
					Message: fmt.Sprintf("override targets undeclared component %q", comp),
				})
			}
		}
	}

	for i, p := range m.Patches {
		if p.Component != "" && !declared[p.Component] {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("patches[%d].component", i),
				Message: fmt.Sprintf("patch targets undeclared component %q", p.Component),
			})
		}
	}

	return errs
}

// fieldPath converts a validator namespace like
// "ServiceManifest.Components[0].Name" into the manifest's YAML spelling
// "components[0].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}
	parts := strings.Split(ns, ".")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToLower(part[:1]) + part[1:]
	}
	return strings.Join(parts, ".")
}
