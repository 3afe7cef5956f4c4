package schema

// Schema is a JSON-Schema-like description of a component configuration.
// Component types declare one Schema for their config block; the resolver
// validates every fully merged configuration against it and fills defaults
// for optional fields no precedence layer supplied.
type Schema struct {
	// Type is the expected value type: "object", "array", "string",
	// "number", "integer" or "boolean". Empty means any type.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Properties describes the fields of an object schema.
	Properties map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`

	// Required lists object property names that must be present.
	Required []string `json:"required,omitempty" yaml:"required,omitempty"`

	// AdditionalProperties controls whether object keys outside Properties
	// are accepted. Nil means accepted.
	AdditionalProperties *bool `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`

	// Items describes the element schema of an array schema.
	Items *Schema `json:"items,omitempty" yaml:"items,omitempty"`

	// Enum restricts a value to one of the listed literals.
	Enum []interface{} `json:"enum,omitempty" yaml:"enum,omitempty"`

	// Const restricts a value to exactly this literal. Used mostly inside
	// If/Then conditions.
	Const interface{} `json:"const,omitempty" yaml:"const,omitempty"`

	// Minimum and Maximum bound numeric values (inclusive).
	Minimum *float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`

	// MinLength and MaxLength bound string lengths.
	MinLength *int `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`

	// Pattern is an RE2 regular expression a string value must match.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Default is filled into the configuration when the field is absent
	// after all precedence layers merged.
	Default interface{} `json:"default,omitempty" yaml:"default,omitempty"`

	// AllOf lists conditional cross-field rules. Each rule's Then schema
	// must hold whenever its If schema matches the candidate.
	AllOf []ConditionalRule `json:"allOf,omitempty" yaml:"allOf,omitempty"`

	// Description documents the field for operators.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ConditionalRule is an if/then pair evaluated against the whole candidate
// object. When the If schema matches, the Then schema must also hold.
// Violations are reported with the rule's Message when one is set.
type ConditionalRule struct {
	If      *Schema `json:"if,omitempty" yaml:"if,omitempty"`
	Then    *Schema `json:"then,omitempty" yaml:"then,omitempty"`
	Message string  `json:"message,omitempty" yaml:"message,omitempty"`
}

// FieldError is a single validation failure at a configuration path.
type FieldError struct {
	// Path is the dotted path to the offending field (e.g. "compliance.objectLock.enabled").
	Path string `json:"path"`

	// Message describes the failure.
	Message string `json:"message"`

	// CrossField marks errors produced by a conditional AllOf rule.
	CrossField bool `json:"crossField,omitempty"`
}

// ValidationResult is the outcome of validating one candidate configuration.
// All errors across the candidate are collected before returning so callers
// can report them together.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// CrossFieldErrors returns only the errors produced by conditional rules.
func (r ValidationResult) CrossFieldErrors() []FieldError {
	var out []FieldError
	for _, e := range r.Errors {
		if e.CrossField {
			out = append(out, e)
		}
	}
	return out
}
