package engine

import (
	"time"

	"github.com/paveops/pave/pkg/config"
	"github.com/paveops/pave/pkg/manifest"
	"github.com/paveops/pave/pkg/schema"
)

// AccessLevel names an access mode a capability may allow a consumer.
type AccessLevel = string

// Common access levels. Capabilities may declare others; matching is by
// exact string.
const (
	AccessRead      AccessLevel = "read"
	AccessWrite     AccessLevel = "write"
	AccessReadWrite AccessLevel = "read-write"
	AccessInvoke    AccessLevel = "invoke"
	AccessConsume   AccessLevel = "consume"
	AccessSend      AccessLevel = "send"
	AccessReceive   AccessLevel = "receive"
)

// Capability is a contract a component exposes to other components: a data
// payload (endpoints, identifiers, ARNs) plus the set of access levels the
// producer allows. Keys are namespaced "domain:resource" strings, e.g.
// "database:postgres". A capability is produced by exactly one component and
// consumed by zero or more.
type Capability struct {
	// Payload carries producer attributes consumers and the synthesis layer
	// need (identifiers, endpoints).
	Payload map[string]interface{} `json:"payload,omitempty"`

	// AllowedAccess lists the access levels the producer permits.
	AllowedAccess []AccessLevel `json:"allowedAccess"`
}

// Allows reports whether the capability permits the given access level.
func (c Capability) Allows(access AccessLevel) bool {
	for _, a := range c.AllowedAccess {
		if a == access {
			return true
		}
	}
	return false
}

// ComponentHandle is the contract this engine consumes from component
// implementations. The engine never calls any resource-synthesis method;
// that belongs to the external synthesis layer.
type ComponentHandle interface {
	// Name returns the manifest component name.
	Name() string

	// Type returns the registry type key.
	Type() string

	// Capabilities returns the capability map this instance exposes, keyed
	// by "domain:resource".
	Capabilities() map[string]Capability

	// Config returns the frozen configuration the component was built with.
	Config() *config.ResolvedConfig
}

// Factory constructs a component handle from the shared environment context
// and the component's resolved configuration.
type Factory func(ctx *config.Context, cfg *config.ResolvedConfig) (ComponentHandle, error)

// Descriptor is the registry metadata for one component type.
type Descriptor struct {
	// Factory constructs instances of the type.
	Factory Factory

	// ConfigSchema validates and defaults the type's configuration.
	ConfigSchema *schema.Schema

	// Fallback is the hardcoded lowest-precedence configuration.
	Fallback map[string]interface{}

	// ProvidedCapabilities lists the capability keys instances expose.
	ProvidedCapabilities []string

	// RequiredCapabilities lists capability keys instances expect to bind.
	RequiredCapabilities []string
}

// AccessGrant is the abstract permission record derived from a validated
// binding: "principal X may perform verbs [...] on resource Y". It is
// deliberately generic so any downstream permission model (IAM-like,
// ACL-like) can consume it.
type AccessGrant struct {
	// ID uniquely identifies the grant within a resolution run.
	ID string `json:"id"`

	// Consumer is the component receiving access.
	Consumer string `json:"consumer"`

	// Producer is the component exposing the capability.
	Producer string `json:"producer"`

	// Capability is the bound capability key.
	Capability string `json:"capability"`

	// Access is the granted access level.
	Access AccessLevel `json:"access"`

	// Payload is the producer capability payload at grant time.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// RunState is the resolver engine's per-run state machine position.
type RunState string

const (
	StateUnparsed         RunState = "unparsed"
	StateValidated        RunState = "validated"
	StateContextBound     RunState = "context_bound"
	StateOrdered          RunState = "ordered"
	StateInstantiated     RunState = "instantiated"
	StateBindingsResolved RunState = "bindings_resolved"
	StateReady            RunState = "ready"
	StateFailed           RunState = "failed"
)

// ResolvedComponent pairs an instantiated component with its resolved
// configuration and the grants attached to it as a consumer.
type ResolvedComponent struct {
	// Spec is the manifest declaration.
	Spec manifest.ComponentSpec `json:"spec"`

	// Config is the frozen resolved configuration.
	Config *config.ResolvedConfig `json:"config"`

	// Handle is the instantiated component.
	Handle ComponentHandle `json:"-"`

	// Grants are the access grants attached to this component as consumer,
	// in binding declaration order.
	Grants []AccessGrant `json:"grants,omitempty"`
}

// ResolutionResult is the ready-to-synthesize plan returned to tooling.
type ResolutionResult struct {
	// RunID uniquely identifies the resolution run.
	RunID string `json:"runId"`

	// Service and Environment echo the request.
	Service     string `json:"service"`
	Environment string `json:"environment"`

	// State is the terminal state reached (StateReady on success).
	State RunState `json:"state"`

	// Context is the environment context components resolved under.
	Context *config.Context `json:"context"`

	// Components holds the resolved components in instantiation order.
	Components []*ResolvedComponent `json:"components"`

	// Grants lists every access grant produced, in binding order.
	Grants []AccessGrant `json:"grants,omitempty"`

	// Graph is the dependency graph resolution was ordered by.
	Graph *Graph `json:"graph"`

	// StartedAt and Duration time the run.
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// Component returns the resolved component with the given name, if present.
func (r *ResolutionResult) Component(name string) (*ResolvedComponent, bool) {
	for _, rc := range r.Components {
		if rc.Spec.Name == name {
			return rc, true
		}
	}
	return nil, false
}

// Order returns the component names in instantiation order.
func (r *ResolutionResult) Order() []string {
	out := make([]string, len(r.Components))
	for i, rc := range r.Components {
		out[i] = rc.Spec.Name
	}
	return out
}
