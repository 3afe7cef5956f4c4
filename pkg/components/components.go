package components

import (
	"github.com/paveops/pave/pkg/config"
	"github.com/paveops/pave/pkg/engine"
)

// Component type keys for the built-in catalog.
const (
	TypeObjectStorage = "object-storage"
	TypeDBPostgres    = "db-postgres"
	TypeQueue         = "queue"
	TypeAPIWorker     = "api-worker"
	TypeCacheRedis    = "cache-redis"
)

// Capability keys exposed by the built-in catalog.
const (
	CapObjectStorage = "storage:s3"
	CapPostgres      = "database:postgres"
	CapQueue         = "queue:sqs"
	CapHTTP          = "api:http"
	CapRedis         = "cache:redis"
)

// Handle is the component instance produced by every built-in factory. It
// carries the frozen configuration and the capability contracts downstream
// synthesis consumes; it performs no provisioning itself.
type Handle struct {
	name         string
	typeKey      string
	capabilities map[string]engine.Capability
	config       *config.ResolvedConfig
}

func newHandle(typeKey string, cfg *config.ResolvedConfig, capabilities map[string]engine.Capability) *Handle {
	return &Handle{
		name:         cfg.Component(),
		typeKey:      typeKey,
		capabilities: capabilities,
		config:       cfg,
	}
}

// Name returns the manifest component name.
func (h *Handle) Name() string { return h.name }

// Type returns the registry type key.
func (h *Handle) Type() string { return h.typeKey }

// Capabilities returns the capability map this instance exposes.
func (h *Handle) Capabilities() map[string]engine.Capability { return h.capabilities }

// Config returns the frozen configuration the instance was built with.
func (h *Handle) Config() *config.ResolvedConfig { return h.config }

// RegisterBuiltins registers the built-in component catalog on a registry.
func RegisterBuiltins(r *engine.Registry) error {
	catalog := map[string]engine.Descriptor{
		TypeObjectStorage: objectStorageDescriptor(),
		TypeDBPostgres:    postgresDescriptor(),
		TypeQueue:         queueDescriptor(),
		TypeAPIWorker:     apiWorkerDescriptor(),
		TypeCacheRedis:    redisDescriptor(),
	}
	for typeKey, desc := range catalog {
		if err := r.Register(typeKey, desc); err != nil {
			return err
		}
	}
	return nil
}

func floatPtr(f float64) *float64 { return &f }
