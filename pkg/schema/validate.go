package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Validator validates candidate configurations against a Schema. It is
// stateless apart from a cache of compiled patterns and is safe for
// concurrent use after construction.
type Validator struct {
	patterns map[string]*regexp.Regexp
}

// NewValidator creates a validator and pre-compiles every pattern that
// appears in the given schemas. An invalid pattern is reported as a
// validation error at evaluation time rather than a construction failure.
func NewValidator(schemas ...*Schema) *Validator {
	v := &Validator{patterns: make(map[string]*regexp.Regexp)}
	for _, s := range schemas {
		v.compilePatterns(s)
	}
	return v
}

func (v *Validator) compilePatterns(s *Schema) {
	if s == nil {
		return
	}
	if s.Pattern != "" {
		if _, ok := v.patterns[s.Pattern]; !ok {
			if re, err := regexp.Compile(s.Pattern); err == nil {
				v.patterns[s.Pattern] = re
			}
		}
	}
	for _, p := range s.Properties {
		v.compilePatterns(p)
	}
	v.compilePatterns(s.Items)
	for _, rule := range s.AllOf {
		v.compilePatterns(rule.If)
		v.compilePatterns(rule.Then)
	}
}

// Validate checks candidate against s and returns every violation found.
// Validation is pure: the same schema and input always yield the same result,
// and the candidate is never modified.
func (v *Validator) Validate(s *Schema, candidate interface{}) ValidationResult {
	var errs []FieldError
	v.validateValue(s, candidate, "", &errs)
	v.validateRules(s, candidate, &errs)
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// validateRules evaluates the conditional AllOf rules against the whole
// candidate. A rule fires only when its If schema matches; the Then schema
// is then required to hold.
func (v *Validator) validateRules(s *Schema, candidate interface{}, errs *[]FieldError) {
	if s == nil {
		return
	}
	for _, rule := range s.AllOf {
		if rule.Then == nil {
			continue
		}
		if rule.If != nil && !v.matches(rule.If, candidate) {
			continue
		}
		var thenErrs []FieldError
		v.validateValue(rule.Then, candidate, "", &thenErrs)
		for _, te := range thenErrs {
			msg := te.Message
			if rule.Message != "" {
				msg = rule.Message
			}
			*errs = append(*errs, FieldError{Path: te.Path, Message: msg, CrossField: true})
		}
	}
}

// matches reports whether value satisfies s, ignoring which constraints fail.
func (v *Validator) matches(s *Schema, value interface{}) bool {
	var errs []FieldError
	v.validateValue(s, value, "", &errs)
	return len(errs) == 0
}

func (v *Validator) validateValue(s *Schema, value interface{}, path string, errs *[]FieldError) {
	if s == nil {
		return
	}

	if s.Type != "" && !typeMatches(s.Type, value) {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected %s, got %s", s.Type, typeName(value)),
		})
		return
	}

	if s.Const != nil && !literalEqual(s.Const, value) {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("must equal %v", s.Const),
		})
	}

	if len(s.Enum) > 0 && !enumContains(s.Enum, value) {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("value %v not in enum %v", value, s.Enum),
		})
	}

	switch tv := value.(type) {
	case map[string]interface{}:
		v.validateObject(s, tv, path, errs)
	case []interface{}:
		v.validateArray(s, tv, path, errs)
	case string:
		v.validateString(s, tv, path, errs)
	default:
		if num, ok := toFloat(value); ok {
			v.validateNumber(s, num, path, errs)
		}
	}
}

func (v *Validator) validateObject(s *Schema, obj map[string]interface{}, path string, errs *[]FieldError) {
	for _, req := range s.Required {
		if _, ok := obj[req]; !ok {
			*errs = append(*errs, FieldError{
				Path:    joinPath(path, req),
				Message: "required field is missing",
			})
		}
	}

	if s.AdditionalProperties != nil && !*s.AdditionalProperties && len(s.Properties) > 0 {
		var unknown []string
		for key := range obj {
			if _, ok := s.Properties[key]; !ok {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		for _, key := range unknown {
			*errs = append(*errs, FieldError{
				Path:    joinPath(path, key),
				Message: "unknown field is not allowed",
			})
		}
	}

	// Deterministic error order regardless of map iteration.
	keys := make([]string, 0, len(s.Properties))
	for key := range s.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if child, ok := obj[key]; ok {
			v.validateValue(s.Properties[key], child, joinPath(path, key), errs)
		}
	}
}

func (v *Validator) validateArray(s *Schema, arr []interface{}, path string, errs *[]FieldError) {
	if s.Items == nil {
		return
	}
	for i, item := range arr {
		v.validateValue(s.Items, item, fmt.Sprintf("%s[%d]", path, i), errs)
	}
}

func (v *Validator) validateString(s *Schema, str, path string, errs *[]FieldError) {
	if s.MinLength != nil && len(str) < *s.MinLength {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("length %d is below minimum %d", len(str), *s.MinLength),
		})
	}
	if s.MaxLength != nil && len(str) > *s.MaxLength {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("length %d exceeds maximum %d", len(str), *s.MaxLength),
		})
	}
	if s.Pattern != "" {
		re, ok := v.patterns[s.Pattern]
		if !ok {
			var err error
			re, err = regexp.Compile(s.Pattern)
			if err != nil {
				*errs = append(*errs, FieldError{
					Path:    path,
					Message: fmt.Sprintf("schema pattern %q does not compile: %v", s.Pattern, err),
				})
				return
			}
		}
		if !re.MatchString(str) {
			*errs = append(*errs, FieldError{
				Path:    path,
				Message: fmt.Sprintf("value %q does not match pattern %q", str, s.Pattern),
			})
		}
	}
}

func (v *Validator) validateNumber(s *Schema, num float64, path string, errs *[]FieldError) {
	if s.Minimum != nil && num < *s.Minimum {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("value %v is below minimum %v", num, *s.Minimum),
		})
	}
	if s.Maximum != nil && num > *s.Maximum {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("value %v exceeds maximum %v", num, *s.Maximum),
		})
	}
}

// typeMatches checks a value against a schema type name. Numeric checks are
// lenient across the int/float representations produced by YAML and JSON
// decoders.
func typeMatches(schemaType string, value interface{}) bool {
	switch schemaType {
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		_, ok := toFloat(value)
		return ok
	case "integer":
		num, ok := toFloat(value)
		return ok && num == math.Trunc(num)
	default:
		return false
	}
}

func typeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		if _, ok := toFloat(value); ok {
			return "number"
		}
		return fmt.Sprintf("%T", value)
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// literalEqual compares schema literals with numeric leniency, so an enum
// declared with int 30 matches a decoded float64 30.
func literalEqual(a, b interface{}) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	return a == b
}

func enumContains(enum []interface{}, value interface{}) bool {
	for _, e := range enum {
		if literalEqual(e, value) {
			return true
		}
	}
	return false
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return strings.Join([]string{base, key}, ".")
}
