package config

import (
	"fmt"

	"github.com/paveops/pave/pkg/compliance"
	"github.com/paveops/pave/pkg/manifest"
)

// Context holds the resolved per-environment facts shared read-only by every
// component resolved in that environment. It is constructed once per
// environment and must not be modified afterwards.
type Context struct {
	// Service is the manifest's service name.
	Service string `json:"service"`

	// Environment is the environment name resolution was requested for.
	Environment string `json:"environment"`

	// Framework is the effective compliance framework for this environment.
	Framework compliance.Framework `json:"complianceFramework"`

	// Region is the provider region.
	Region string `json:"region"`

	// AccountID is the provider account identifier.
	AccountID string `json:"accountId"`

	// Tags are propagated to every component in this environment.
	Tags map[string]string `json:"tags,omitempty"`
}

// NewContext builds the component context for the requested environment.
// It fails when the environment is not declared or its effective framework
// is unknown.
func NewContext(m *manifest.ServiceManifest, environment string) (*Context, error) {
	env, ok := m.Environments[environment]
	if !ok {
		return nil, fmt.Errorf("environment %q is not declared in the manifest", environment)
	}

	framework := m.FrameworkFor(environment)
	if !framework.Valid() {
		return nil, fmt.Errorf("environment %q resolves to unknown compliance framework %q", environment, framework)
	}

	tags := make(map[string]string, len(env.Tags)+2)
	for k, v := range env.Tags {
		tags[k] = v
	}
	tags["service"] = m.Service
	tags["environment"] = environment

	return &Context{
		Service:     m.Service,
		Environment: environment,
		Framework:   framework,
		Region:      env.Region,
		AccountID:   env.AccountID,
		Tags:        tags,
	}, nil
}
