package manifest

import (
	"github.com/paveops/pave/pkg/compliance"
)

// ServiceManifest is the top-level document a service team writes to declare
// its infrastructure as typed components.
type ServiceManifest struct {
	// Service is the service name. Component and resource names derive from it.
	Service string `yaml:"service" json:"service" validate:"required"`

	// Owner identifies the owning team.
	Owner string `yaml:"owner" json:"owner" validate:"required"`

	// ComplianceFramework is the default posture for every environment that
	// does not override it.
	ComplianceFramework compliance.Framework `yaml:"complianceFramework" json:"complianceFramework" validate:"required"`

	// Environments maps environment name to its deployment facts.
	Environments map[string]EnvironmentSpec `yaml:"environments" json:"environments" validate:"required,min=1,dive"`

	// Components is the ordered list of component declarations. Declaration
	// order breaks ties in the resolved instantiation order.
	Components []ComponentSpec `yaml:"components" json:"components" validate:"required,min=1,dive"`

	// Binds declares service-level bindings between components, in addition
	// to the per-component binds blocks.
	Binds []Binding `yaml:"binds,omitempty" json:"binds,omitempty" validate:"omitempty,dive"`

	// Patches are named, justified overrides applied at the highest
	// precedence. Every patch is audited.
	Patches []Patch `yaml:"patches,omitempty" json:"patches,omitempty" validate:"omitempty,dive"`
}

// EnvironmentSpec holds the per-environment deployment facts.
type EnvironmentSpec struct {
	// ComplianceFramework overrides the manifest default for this environment.
	ComplianceFramework compliance.Framework `yaml:"complianceFramework,omitempty" json:"complianceFramework,omitempty"`

	// Region is the provider region components deploy into.
	Region string `yaml:"region" json:"region" validate:"required"`

	// AccountID is the provider account identifier.
	AccountID string `yaml:"accountId" json:"accountId" validate:"required"`

	// Overrides maps component name to configuration values applied to that
	// component in this environment (precedence layer 3).
	Overrides map[string]map[string]interface{} `yaml:"overrides,omitempty" json:"overrides,omitempty"`

	// Tags are propagated to every component resolved in this environment.
	Tags map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// ComponentSpec declares one component instance.
type ComponentSpec struct {
	// Name is the component's unique key within the manifest.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Type is the registry key selecting the component implementation.
	Type string `yaml:"type" json:"type" validate:"required"`

	// Config holds the author's partial configuration overrides
	// (precedence layer 4).
	Config map[string]interface{} `yaml:"config,omitempty" json:"config,omitempty"`

	// Dependencies are explicit ordering hints naming other components.
	Dependencies []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`

	// Binds declares this component's outgoing capability bindings.
	Binds []BindingSpec `yaml:"binds,omitempty" json:"binds,omitempty" validate:"omitempty,dive"`
}

// BindingSpec is a binding declared on a component; the consumer is the
// declaring component.
type BindingSpec struct {
	// To names the producing component.
	To string `yaml:"to" json:"to" validate:"required"`

	// Capability is the producer capability key ("domain:resource").
	Capability string `yaml:"capability" json:"capability" validate:"required"`

	// Access is the requested access level (e.g. "read", "write", "read-write").
	Access string `yaml:"access" json:"access" validate:"required"`
}

// Binding is a service-level binding between two named components.
type Binding struct {
	// From names the consuming component.
	From string `yaml:"from" json:"from" validate:"required"`

	// To names the producing component.
	To string `yaml:"to" json:"to" validate:"required"`

	// Capability is the producer capability key ("domain:resource").
	Capability string `yaml:"capability" json:"capability" validate:"required"`

	// Access is the requested access level.
	Access string `yaml:"access" json:"access" validate:"required"`
}

// Patch is a named, justified override recorded in the manifest's patches
// section (precedence layer 5). A patch without justification and approver
// fails validation; applied patches are logged and audited distinctly.
type Patch struct {
	// Name identifies the patch in logs and audit entries.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Component names the component the patch applies to.
	Component string `yaml:"component" json:"component" validate:"required"`

	// Justification explains why the override is needed.
	Justification string `yaml:"justification" json:"justification" validate:"required"`

	// ApprovedBy records who approved the override.
	ApprovedBy string `yaml:"approvedBy" json:"approvedBy" validate:"required"`

	// ApprovedDate records when the override was approved (YYYY-MM-DD).
	ApprovedDate string `yaml:"approvedDate" json:"approvedDate"`

	// Values are the configuration overrides the patch applies.
	Values map[string]interface{} `yaml:"values" json:"values" validate:"required"`
}

// Component returns the component spec with the given name, if declared.
func (m *ServiceManifest) Component(name string) (*ComponentSpec, bool) {
	for i := range m.Components {
		if m.Components[i].Name == name {
			return &m.Components[i], true
		}
	}
	return nil, false
}

// AllBindings flattens service-level binds and per-component binds into one
// list of (from, to, capability, access) tuples, in declaration order with
// service-level binds first.
func (m *ServiceManifest) AllBindings() []Binding {
	out := make([]Binding, 0, len(m.Binds))
	out = append(out, m.Binds...)
	for _, spec := range m.Components {
		for _, b := range spec.Binds {
			out = append(out, Binding{
				From:       spec.Name,
				To:         b.To,
				Capability: b.Capability,
				Access:     b.Access,
			})
		}
	}
	return out
}

// PatchesFor returns the patches targeting the named component, in
// declaration order.
func (m *ServiceManifest) PatchesFor(name string) []Patch {
	var out []Patch
	for _, p := range m.Patches {
		if p.Component == name {
			out = append(out, p)
		}
	}
	return out
}

/// FrameworkFor returns the effective compliance framework for an environment:
// the environment override when present, the manifest default otherwise.
func (m *ServiceManifest) FrameworkFor(env string) compliance.Framework {
	if spec, ok := m.Environments[env]; ok && spec.ComplianceFramework != "" {
		return spec.ComplianceFramework
	}
	return m.ComplianceFramework
}
