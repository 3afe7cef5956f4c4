package components

import (
	"fmt"

	"github.com/paveops/pave/pkg/config"
	"github.com/paveops/pave/pkg/engine"
	"github.com/paveops/pave/pkg/schema"
)

// redisDescriptor declares the cache-redis component type: an ElastiCache
// style Redis cluster with at-rest and in-transit encryption controls.
func redisDescriptor() engine.Descriptor {
	return engine.Descriptor{
		ConfigSchema: &schema.Schema{
			Type: "object",
			Properties: map[string]*schema.Schema{
				"engineVersion": {Type: "string", Default: "7.1"},
				"nodeType":      {Type: "string", Default: "cache.t3.micro"},
				"replicas":      {Type: "integer", Minimum: floatPtr(0), Maximum: floatPtr(5), Default: 0},
				"multiAZ":       {Type: "boolean", Default: false},
				"encryption": {
					Type: "object",
					Properties: map[string]*schema.Schema{
						"atRest":             {Type: "boolean", Default: false},
						"inTransit":          {Type: "boolean", Default: false},
						"customerManagedKey": {Type: "boolean", Default: false},
					},
				},
			},
			AllOf: []schema.ConditionalRule{
				{
					// A multi-AZ cluster cannot fail over without a replica.
					If: &schema.Schema{
						Type: "object",
						Properties: map[string]*schema.Schema{
							"multiAZ": {Const: true},
						},
						Required: []string{"multiAZ"},
					},
					Then: &schema.Schema{
						Type: "object",
						Properties: map[string]*schema.Schema{
							"replicas": {Type: "integer", Minimum: floatPtr(1)},
						},
						Required: []string{"replicas"},
					},
					Message: "multi-AZ requires at least one replica",
				},
			},
		},
		Fallback: map[string]interface{}{
			"nodeType": "cache.t3.micro",
			"replicas": 0,
		},
		ProvidedCapabilities: []string{CapRedis},
		Factory: func(ctx *config.Context, cfg *config.ResolvedConfig) (engine.ComponentHandle, error) {
			return newHandle(TypeCacheRedis, cfg, map[string]engine.Capability{
				CapRedis: {
					Payload: map[string]interface{}{
						"host": fmt.Sprintf("%s-%s.%s.cache.local", ctx.Service, cfg.Component(), ctx.Region),
						"port": 6379,
						"tls":  cfg.Bool("encryption.inTransit"),
					},
					AllowedAccess: []engine.AccessLevel{
						engine.AccessRead, engine.AccessReadWrite,
					},
				},
			}), nil
		},
	}
}
