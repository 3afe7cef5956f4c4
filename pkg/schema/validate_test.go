package schema

import (
	"strings"
	"testing"
)

func boolPtr(b bool) *bool       { return &b }
func intPtr(i int) *int          { return &i }
func floatPtr(f float64) *float64 { return &f }

func storageSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"bucketName": {Type: "string", Pattern: "^[a-z0-9.-]+$", MinLength: intPtr(3)},
			"versioning": {Type: "boolean", Default: false},
			"retentionDays": {
				Type:    "integer",
				Minimum: floatPtr(1),
				Maximum: floatPtr(3650),
				Default: 30,
			},
			"storageClass": {
				Type:    "string",
				Enum:    []interface{}{"standard", "infrequent-access", "glacier"},
				Default: "standard",
			},
			"compliance": {
				Type: "object",
				Properties: map[string]*Schema{
					"objectLock": {
						Type: "object",
						Properties: map[string]*Schema{
							"enabled": {Type: "boolean", Default: false},
						},
					},
				},
			},
			"tags": {
				Type:  "array",
				Items: &Schema{Type: "string"},
			},
		},
		Required:             []string{"bucketName"},
		AdditionalProperties: boolPtr(false),
		AllOf: []ConditionalRule{
			{
				If: &Schema{
					Type: "object",
					Properties: map[string]*Schema{
						"compliance": {
							Type: "object",
							Properties: map[string]*Schema{
								"objectLock": {
									Type: "object",
									Properties: map[string]*Schema{
										"enabled": {Const: true},
									},
									Required: []string{"enabled"},
								},
							},
							Required: []string{"objectLock"},
						},
					},
					Required: []string{"compliance"},
				},
				Then: &Schema{
					Type: "object",
					Properties: map[string]*Schema{
						"versioning": {Const: true},
					},
					Required: []string{"versioning"},
				},
				Message: "object lock requires versioning to be enabled",
			},
		},
	}
}

func TestValidator_ValidCandidate(t *testing.T) {
	v := NewValidator(storageSchema())

	result := v.Validate(storageSchema(), map[string]interface{}{
		"bucketName":    "audit-logs",
		"versioning":    true,
		"retentionDays": 90,
		"storageClass":  "glacier",
		"tags":          []interface{}{"pci", "audit"},
	})

	if !result.Valid {
		t.Fatalf("Expected valid result, got errors: %v", result.Errors)
	}
}

func TestValidator_TypeMismatch(t *testing.T) {
	v := NewValidator(storageSchema())

	result := v.Validate(storageSchema(), map[string]interface{}{
		"bucketName":    "audit-logs",
		"retentionDays": "ninety",
	})

	if result.Valid {
		t.Fatal("Expected type mismatch to fail validation")
	}
	if !hasErrorAt(result, "retentionDays") {
		t.Errorf("Expected error at retentionDays, got %v", result.Errors)
	}
}

func TestValidator_CollectsAllErrors(t *testing.T) {
	v := NewValidator(storageSchema())

	result := v.Validate(storageSchema(), map[string]interface{}{
		"retentionDays": 0,
		"storageClass":  "tape",
		"unknownField":  true,
	})

	if result.Valid {
		t.Fatal("Expected invalid result")
	}
	// Missing bucketName, retentionDays below minimum, bad enum, unknown field.
	if len(result.Errors) != 4 {
		t.Errorf("Expected 4 errors, got %d: %v", len(result.Errors), result.Errors)
	}
	for _, path := range []string{"bucketName", "retentionDays", "storageClass", "unknownField"} {
		if !hasErrorAt(result, path) {
			t.Errorf("Expected an error at %s, got %v", path, result.Errors)
		}
	}
}

func TestValidator_PatternAndLength(t *testing.T) {
	v := NewValidator(storageSchema())

	result := v.Validate(storageSchema(), map[string]interface{}{
		"bucketName": "NO",
	})

	if result.Valid {
		t.Fatal("Expected invalid result")
	}
	// Uppercase violates the pattern and the name is below minLength.
	count := 0
	for _, e := range result.Errors {
		if e.Path == "bucketName" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("Expected 2 errors at bucketName, got %d: %v", count, result.Errors)
	}
}

func TestValidator_ArrayItems(t *testing.T) {
	v := NewValidator(storageSchema())

	result := v.Validate(storageSchema(), map[string]interface{}{
		"bucketName": "audit-logs",
		"tags":       []interface{}{"ok", 7},
	})

	if result.Valid {
		t.Fatal("Expected invalid result")
	}
	if !hasErrorAt(result, "tags[1]") {
		t.Errorf("Expected error at tags[1], got %v", result.Errors)
	}
}

func TestValidator_CrossFieldRule_Fires(t *testing.T) {
	v := NewValidator(storageSchema())

	result := v.Validate(storageSchema(), map[string]interface{}{
		"bucketName": "audit-logs",
		"versioning": false,
		"compliance": map[string]interface{}{
			"objectLock": map[string]interface{}{"enabled": true},
		},
	})

	if result.Valid {
		t.Fatal("Expected cross-field rule to fail validation")
	}
	crossField := result.CrossFieldErrors()
	if len(crossField) == 0 {
		t.Fatal("Expected cross-field errors")
	}
	if !strings.Contains(crossField[0].Message, "object lock requires versioning") {
		t.Errorf("Expected rule message, got %q", crossField[0].Message)
	}
}

func TestValidator_CrossFieldRule_MissingThenField(t *testing.T) {
	v := NewValidator(storageSchema())

	// versioning absent entirely: the rule still fires.
	result := v.Validate(storageSchema(), map[string]interface{}{
		"bucketName": "audit-logs",
		"compliance": map[string]interface{}{
			"objectLock": map[string]interface{}{"enabled": true},
		},
	})

	if result.Valid {
		t.Fatal("Expected cross-field rule to fail validation")
	}
	if len(result.CrossFieldErrors()) == 0 {
		t.Fatal("Expected cross-field errors")
	}
}

func TestValidator_CrossFieldRule_DoesNotFire(t *testing.T) {
	v := NewValidator(storageSchema())

	result := v.Validate(storageSchema(), map[string]interface{}{
		"bucketName": "audit-logs",
		"versioning": true,
		"compliance": map[string]interface{}{
			"objectLock": map[string]interface{}{"enabled": true},
		},
	})

	if !result.Valid {
		t.Fatalf("Expected valid result, got %v", result.Errors)
	}
}

func TestValidator_Deterministic(t *testing.T) {
	v := NewValidator(storageSchema())
	candidate := map[string]interface{}{
		"retentionDays": -1,
		"storageClass":  "tape",
		"zzz":           1,
		"aaa":           2,
	}

	first := v.Validate(storageSchema(), candidate)
	for i := 0; i < 10; i++ {
		again := v.Validate(storageSchema(), candidate)
		if len(again.Errors) != len(first.Errors) {
			t.Fatalf("Error count changed between runs: %d vs %d", len(first.Errors), len(again.Errors))
		}
		for j := range again.Errors {
			if again.Errors[j] != first.Errors[j] {
				t.Fatalf("Error order changed between runs: %v vs %v", first.Errors, again.Errors)
			}
		}
	}
}

func TestApplyDefaults_FillsMissingFields(t *testing.T) {
	out := ApplyDefaults(storageSchema(), map[string]interface{}{
		"bucketName": "audit-logs",
	})

	if out["retentionDays"] != 30 {
		t.Errorf("Expected retentionDays default 30, got %v", out["retentionDays"])
	}
	if out["storageClass"] != "standard" {
		t.Errorf("Expected storageClass default, got %v", out["storageClass"])
	}
	if out["versioning"] != false {
		t.Errorf("Expected versioning default false, got %v", out["versioning"])
	}

	compliance, ok := out["compliance"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected nested defaults to build compliance object, got %v", out["compliance"])
	}
	objectLock, ok := compliance["objectLock"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected objectLock object, got %v", compliance["objectLock"])
	}
	if objectLock["enabled"] != false {
		t.Errorf("Expected objectLock.enabled default false, got %v", objectLock["enabled"])
	}
}

func TestApplyDefaults_DoesNotOverride(t *testing.T) {
	out := ApplyDefaults(storageSchema(), map[string]interface{}{
		"bucketName":    "audit-logs",
		"retentionDays": 3650,
	})

	if out["retentionDays"] != 3650 {
		t.Errorf("Expected supplied value to win over default, got %v", out["retentionDays"])
	}
}

func TestApplyDefaults_DoesNotMutateInput(t *testing.T) {
	in := map[string]interface{}{"bucketName": "audit-logs"}
	_ = ApplyDefaults(storageSchema(), in)

	if len(in) != 1 {
		t.Errorf("Expected input untouched, got %v", in)
	}
}

func hasErrorAt(result ValidationResult, path string) bool {
	for _, e := range result.Errors {
		if e.Path == path {
			return true
		}
	}
	return false
}
