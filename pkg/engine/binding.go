package engine

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/paveops/pave/pkg/manifest"
)

// BindingResolver validates declared bindings against producer capability
// contracts and synthesizes access grants. It runs only after every
// component in the graph has been instantiated, so capability payloads are
// complete; it is never interleaved with instantiation.
type BindingResolver struct{}

// NewBindingResolver creates a binding resolver.
func NewBindingResolver() *BindingResolver {
	return &BindingResolver{}
}

// Resolve validates one binding against the producer's capability map.
// Capability keys match exactly; there is no prefix or wildcard matching.
// On success it returns the grant for the consumer.
func (r *BindingResolver) Resolve(b manifest.Binding, producer ComponentHandle) (*AccessGrant, error) {
	capabilities := producer.Capabilities()

	capability, ok := capabilities[b.Capability]
	if !ok {
		keys := make([]string, 0, len(capabilities))
		for key := range capabilities {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		exposed := "none"
		if len(keys) > 0 {
			exposed = strings.Join(keys, ", ")
		}
		return nil, Errorf(KindCapabilityMismatch,
			"component %s does not expose capability %q (exposed: %s)",
			b.To, b.Capability, exposed).
			WithComponent(b.From).
			WithDetail("producer", b.To).
			WithDetail("capability", b.Capability).
			WithDetail("exposed", keys)
	}

	if !capability.Allows(b.Access) {
		return nil, Errorf(KindCapabilityMismatch,
			"capability %s of component %s does not allow access %q (allowed: %s)",
			b.Capability, b.To, b.Access, strings.Join(capability.AllowedAccess, ", ")).
			WithComponent(b.From).
			WithDetail("producer", b.To).
			WithDetail("capability", b.Capability).
			WithDetail("requestedAccess", b.Access).
			WithDetail("allowedAccess", capability.AllowedAccess)
	}

	return &AccessGrant{
		ID:         uuid.NewString(),
		Consumer:   b.From,
		Producer:   b.To,
		Capability: b.Capability,
		Access:     b.Access,
		Payload:    capability.Payload,
	}, nil
}
