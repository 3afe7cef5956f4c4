package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/paveops/pave/pkg/compliance"
	"github.com/paveops/pave/pkg/manifest"
	"github.com/paveops/pave/pkg/schema"
)

func intPtr(i int) *int { return &i }

func testSchema() *schema.Schema {
	return &schema.Schema{
		Type: "object",
		Properties: map[string]*schema.Schema{
			"x":          {Type: "integer"},
			"versioning": {Type: "boolean", Default: false},
			"retentionDays": {
				Type:    "integer",
				Default: 30,
			},
			"compliance": {
				Type: "object",
				Properties: map[string]*schema.Schema{
					"objectLock": {
						Type: "object",
						Properties: map[string]*schema.Schema{
							"enabled": {Type: "boolean", Default: false},
						},
					},
				},
			},
			"nameLen": {Type: "string", MinLength: intPtr(3)},
		},
		AllOf: []schema.ConditionalRule{
			{
				If: &schema.Schema{
					Type: "object",
					Properties: map[string]*schema.Schema{
						"compliance": {
							Type: "object",
							Properties: map[string]*schema.Schema{
								"objectLock": {
									Type: "object",
									Properties: map[string]*schema.Schema{
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
				Then: &schema.Schema{
					Type: "object",
					Properties: map[string]*schema.Schema{
						"versioning": {Const: true},
					},
					Required: []string{"versioning"},
				},
				Message: "object lock requires versioning",
			},
		},
	}
}

// testCache writes framework default documents into a temp dir so tests
// control layer 2 exactly.
func testCache(t *testing.T, componentType string, docs map[compliance.Framework]string) *compliance.DefaultsCache {
	t.Helper()
	dir := t.TempDir()
	for _, f := range compliance.Frameworks() {
		body, ok := docs[f]
		if !ok {
			body = componentType + ": {}\n"
		}
		if err := os.WriteFile(filepath.Join(dir, string(f)+".yaml"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return compliance.NewDefaultsCache(compliance.WithOverrideDir(dir))
}

func testContext(framework compliance.Framework) *Context {
	return &Context{
		Service:     "orders",
		Environment: "dev",
		Framework:   framework,
		Region:      "us-east-1",
		AccountID:   "111111111111",
		Tags:        map[string]string{"service": "orders"},
	}
}

func TestBuilder_LayerPrecedence(t *testing.T) {
	cache := testCache(t, "widget", map[compliance.Framework]string{
		compliance.FrameworkCommercial: "widget:\n  x: 2\n",
	})
	builder := NewBuilder(cache, zerolog.Nop())

	base := BuildRequest{
		Context:  testContext(compliance.FrameworkCommercial),
		Schema:   testSchema(),
		Fallback: map[string]interface{}{"x": 1},
	}

	// Component config present: layer 4 wins.
	req := base
	req.Spec = manifest.ComponentSpec{Name: "w", Type: "widget", Config: map[string]interface{}{"x": 3}}
	cfg, err := builder.Build(req)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if cfg.Int("x") != 3 {
		t.Errorf("Expected component config to win, got %d", cfg.Int("x"))
	}

	// Component config absent: framework default wins.
	req = base
	req.Spec = manifest.ComponentSpec{Name: "w", Type: "widget"}
	cfg, err = builder.Build(req)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if cfg.Int("x") != 2 {
		t.Errorf("Expected framework default to win, got %d", cfg.Int("x"))
	}

	// Framework default absent too: hardcoded fallback wins.
	empty := testCache(t, "widget", nil)
	builder = NewBuilder(empty, zerolog.Nop())
	cfg, err = builder.Build(req)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if cfg.Int("x") != 1 {
		t.Errorf("Expected hardcoded fallback to win, got %d", cfg.Int("x"))
	}
}

func TestBuilder_EnvOverridesBeatFrameworkDefaults(t *testing.T) {
	cache := testCache(t, "widget", map[compliance.Framework]string{
		compliance.FrameworkCommercial: "widget:\n  x: 2\n",
	})
	builder := NewBuilder(cache, zerolog.Nop())

	cfg, err := builder.Build(BuildRequest{
		Spec:         manifest.ComponentSpec{Name: "w", Type: "widget"},
		Context:      testContext(compliance.FrameworkCommercial),
		Schema:       testSchema(),
		EnvOverrides: map[string]interface{}{"x": 7},
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if cfg.Int("x") != 7 {
		t.Errorf("Expected env override to win over framework default, got %d", cfg.Int("x"))
	}
}

func TestBuilder_PatchesAreHighestPrecedence(t *testing.T) {
	cache := testCache(t, "widget", nil)
	builder := NewBuilder(cache, zerolog.Nop())

	cfg, err := builder.Build(BuildRequest{
		Spec:    manifest.ComponentSpec{Name: "w", Type: "widget", Config: map[string]interface{}{"x": 3}},
		Context: testContext(compliance.FrameworkCommercial),
		Schema:  testSchema(),
		Patches: []manifest.Patch{
			{
				Name:          "emergency-x",
				Component:     "w",
				Justification: "incident 4521",
				ApprovedBy:    "jsmith",
				Values:        map[string]interface{}{"x": 42},
			},
		},
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if cfg.Int("x") != 42 {
		t.Errorf("Expected patch to win, got %d", cfg.Int("x"))
	}
	patches := cfg.AppliedPatches()
	if len(patches) != 1 || patches[0] != "emergency-x" {
		t.Errorf("Expected applied patch recorded, got %v", patches)
	}
}

func TestBuilder_SchemaDefaultsFillOnlyUnsuppliedFields(t *testing.T) {
	cache := testCache(t, "widget", map[compliance.Framework]string{
		compliance.FrameworkCommercial: "widget:\n  retentionDays: 90\n",
	})
	builder := NewBuilder(cache, zerolog.Nop())

	cfg, err := builder.Build(BuildRequest{
		Spec:    manifest.ComponentSpec{Name: "w", Type: "widget"},
		Context: testContext(compliance.FrameworkCommercial),
		Schema:  testSchema(),
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	// Layer 2 supplied retentionDays; schema default must not override it.
	if cfg.Int("retentionDays") != 90 {
		t.Errorf("Expected layer value 90 over schema default, got %d", cfg.Int("retentionDays"))
	}
	// Nothing supplied versioning; schema default fills it.
	if v, ok := cfg.Value("versioning"); !ok || v != false {
		t.Errorf("Expected schema default versioning=false, got %v", v)
	}
}

func TestBuilder_CrossFieldInvariantIsFatal(t *testing.T) {
	cache := testCache(t, "widget", nil)
	builder := NewBuilder(cache, zerolog.Nop())

	_, err := builder.Build(BuildRequest{
		Spec: manifest.ComponentSpec{
			Name: "w",
			Type: "widget",
			Config: map[string]interface{}{
				"compliance": map[string]interface{}{
					"objectLock": map[string]interface{}{"enabled": true},
				},
			},
		},
		Context: testContext(compliance.FrameworkCommercial),
		Schema:  testSchema(),
	})

	var failure *BuildFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Expected BuildFailure, got %v", err)
	}
	if len(failure.InvariantErrors) == 0 {
		t.Fatalf("Expected invariant errors, got %+v", failure)
	}

	// With versioning enabled the same config passes.
	cfg, err := builder.Build(BuildRequest{
		Spec: manifest.ComponentSpec{
			Name: "w",
			Type: "widget",
			Config: map[string]interface{}{
				"versioning": true,
				"compliance": map[string]interface{}{
					"objectLock": map[string]interface{}{"enabled": true},
				},
			},
		},
		Context: testContext(compliance.FrameworkCommercial),
		Schema:  testSchema(),
	})
	if err != nil {
		t.Fatalf("Expected success with versioning=true, got %v", err)
	}
	if !cfg.Bool("versioning") {
		t.Error("Expected versioning true in resolved config")
	}
}

func TestBuilder_SchemaViolationReported(t *testing.T) {
	cache := testCache(t, "widget", nil)
	builder := NewBuilder(cache, zerolog.Nop())

	_, err := builder.Build(BuildRequest{
		Spec:    manifest.ComponentSpec{Name: "w", Type: "widget", Config: map[string]interface{}{"nameLen": "ab"}},
		Context: testContext(compliance.FrameworkCommercial),
		Schema:  testSchema(),
	})

	var failure *BuildFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Expected BuildFailure, got %v", err)
	}
	if len(failure.SchemaErrors) == 0 || failure.SchemaErrors[0].Path != "nameLen" {
		t.Errorf("Expected schema error at nameLen, got %+v", failure)
	}
}

func TestBuilder_Deterministic(t *testing.T) {
	cache := testCache(t, "widget", map[compliance.Framework]string{
		compliance.FrameworkCommercial: "widget:\n  x: 2\n  retentionDays: 45\n",
	})
	builder := NewBuilder(cache, zerolog.Nop())

	req := BuildRequest{
		Spec: manifest.ComponentSpec{
			Name: "w",
			Type: "widget",
			Config: map[string]interface{}{
				"versioning": true,
				"compliance": map[string]interface{}{
					"objectLock": map[string]interface{}{"enabled": true},
				},
			},
		},
		Context: testContext(compliance.FrameworkCommercial),
		Schema:  testSchema(),
	}

	first, err := builder.Build(req)
	if err != nil {
		t.Fatal(err)
	}
	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		again, err := builder.Build(req)
		if err != nil {
			t.Fatal(err)
		}
		againJSON, err := json.Marshal(again)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(firstJSON, againJSON) {
			t.Fatalf("Resolution not byte-identical across runs:\n%s\n%s", firstJSON, againJSON)
		}
	}
}

func TestResolvedConfig_IsFrozen(t *testing.T) {
	values := map[string]interface{}{
		"nested": map[string]interface{}{"x": 1},
	}
	cfg := NewResolvedConfig("w", "widget", values, nil)

	// Mutating the source map after construction changes nothing.
	values["nested"].(map[string]interface{})["x"] = 99
	if cfg.Int("nested.x") != 1 {
		t.Error("ResolvedConfig shares memory with its source map")
	}

	// Mutating an accessor result changes nothing.
	m := cfg.Map()
	m["nested"].(map[string]interface{})["x"] = 77
	if cfg.Int("nested.x") != 1 {
		t.Error("ResolvedConfig accessor leaks internal state")
	}
}

func TestNewContext(t *testing.T) {
	m, err := manifest.Parse([]byte(`
service: orders
owner: payments-team
complianceFramework: fedramp-moderate
environments:
  dev:
    region: us-east-1
    accountId: "1"
    complianceFramework: commercial
components:
  - {name: db, type: db-postgres}
`))
	if err != nil {
		t.Fatal(err)
	}

	ctx, err := NewContext(m, "dev")
	if err != nil {
		t.Fatalf("NewContext returned error: %v", err)
	}
	if ctx.Framework != compliance.FrameworkCommercial {
		t.Errorf("Expected environment framework override, got %s", ctx.Framework)
	}
	if ctx.Tags["service"] != "orders" || ctx.Tags["environment"] != "dev" {
		t.Errorf("Expected service/environment tags, got %v", ctx.Tags)
	}

	if _, err := NewContext(m, "staging"); err == nil {
		t.Error("Expected error for undeclared environment")
	}
}
