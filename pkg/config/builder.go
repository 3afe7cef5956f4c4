package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/paveops/pave/pkg/compliance"
	"github.com/paveops/pave/pkg/manifest"
	"github.com/paveops/pave/pkg/schema"
)

// BuildRequest carries everything needed to resolve one component's
// configuration.
type BuildRequest struct {
	// Spec is the component declaration from the manifest.
	Spec manifest.ComponentSpec

	// Context is the environment the component resolves in.
	Context *Context

	// Schema is the component type's configuration schema.
	Schema *schema.Schema

	// Fallback is the component type's hardcoded fallback configuration
	// (precedence layer 1). It guarantees the builder never fails on a
	// minimal manifest.
	Fallback map[string]interface{}

	// EnvOverrides are the environment-level overrides for this component
	// (precedence layer 3).
	EnvOverrides map[string]interface{}

	// Patches are the manifest patches targeting this component
	// (precedence layer 5), already validated to carry a justification
	// and approver.
	Patches []manifest.Patch
}

// BuildFailure reports why a component's configuration could not be
// resolved. SchemaErrors and InvariantErrors are kept apart because they map
// to different failure kinds upstream.
type BuildFailure struct {
	Component       string
	SchemaErrors    []schema.FieldError
	InvariantErrors []schema.FieldError
}

func (f *BuildFailure) Error() string {
	total := len(f.SchemaErrors) + len(f.InvariantErrors)
	return fmt.Sprintf("configuration for component %s failed validation with %d error(s)", f.Component, total)
}

// Builder produces one ResolvedConfig per component by merging the five
// precedence layers, filling schema defaults and validating the result.
// A Builder is a pure function of its inputs plus the injected defaults
// cache and is safe to use concurrently for independent components.
type Builder struct {
	defaults  *compliance.DefaultsCache
	validator *schema.Validator
	logger    zerolog.Logger
}

// NewBuilder creates a config builder. The defaults cache is injected so
// concurrent resolution runs share one populate-once cache and tests can
// reset it explicitly.
func NewBuilder(defaults *compliance.DefaultsCache, logger zerolog.Logger) *Builder {
	return &Builder{
		defaults:  defaults,
		validator: schema.NewValidator(),
		logger:    logger.With().Str("component", "config-builder").Logger(),
	}
}

// Build merges the five precedence layers for one component, lowest to
// highest:
//
//  1. the component type's hardcoded fallback,
//  2. the compliance framework's default document,
//  3. environment-level manifest overrides,
//  4. the component's own config block,
//  5. declared patch overrides.
//
// Schema defaults fill any field no layer supplied, then the result is
// validated. Cross-field rule violations are never auto-corrected: a config
// that enables object lock without versioning fails here.
func (b *Builder) Build(req BuildRequest) (*ResolvedConfig, error) {
	frameworkDefaults, err := b.defaults.Defaults(req.Context.Framework, req.Spec.Type)
	if err != nil {
		return nil, fmt.Errorf("loading %s defaults for component %s: %w", req.Context.Framework, req.Spec.Name, err)
	}

	layers := []map[string]interface{}{
		req.Fallback,
		frameworkDefaults,
		req.EnvOverrides,
		req.Spec.Config,
	}

	var applied []string
	for _, patch := range req.Patches {
		layers = append(layers, patch.Values)
		applied = append(applied, patch.Name)
		b.logger.Warn().
			Str("patch", patch.Name).
			Str("target", req.Spec.Name).
			Str("environment", req.Context.Environment).
			Str("justification", patch.Justification).
			Str("approvedBy", patch.ApprovedBy).
			Msg("Applying declared patch override")
	}

	merged := MergeLayers(layers...)
	merged = schema.ApplyDefaults(req.Schema, merged)

	result := b.validator.Validate(req.Schema, merged)
	if !result.Valid {
		failure := &BuildFailure{Component: req.Spec.Name}
		for _, fe := range result.Errors {
			if fe.CrossField {
				failure.InvariantErrors = append(failure.InvariantErrors, fe)
			} else {
				failure.SchemaErrors = append(failure.SchemaErrors, fe)
			}
		}
		return nil, failure
	}

	b.logger.Debug().
		Str("name", req.Spec.Name).
		Str("type", req.Spec.Type).
		Str("framework", string(req.Context.Framework)).
		Int("patches", len(applied)).
		Msg("Resolved component configuration")

	return NewResolvedConfig(req.Spec.Name, req.Spec.Type, merged, applied), nil
}
