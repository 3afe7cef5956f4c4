package components

import (
	"fmt"

	"github.com/paveops/pave/pkg/config"
	"github.com/paveops/pave/pkg/engine"
	"github.com/paveops/pave/pkg/schema"
)

// apiWorkerDescriptor declares the api-worker component type: a stateless
// request-serving workload. It consumes capabilities from data components
// and exposes an invokable HTTP endpoint of its own.
func apiWorkerDescriptor() engine.Descriptor {
	return engine.Descriptor{
		ConfigSchema: &schema.Schema{
			Type: "object",
			Properties: map[string]*schema.Schema{
				"concurrency": {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(1000), Default: 10},
				"memoryMB":    {Type: "integer", Minimum: floatPtr(128), Maximum: floatPtr(10240), Default: 512},
				"timeoutSeconds": {
					Type:    "integer",
					Minimum: floatPtr(1),
					Maximum: floatPtr(900),
					Default: 30,
				},
				"logging": {
					Type: "object",
					Properties: map[string]*schema.Schema{
						"level": {
							Type:    "string",
							Enum:    []interface{}{"debug", "info", "warn", "error"},
							Default: "info",
						},
						"retentionDays": {Type: "integer", Minimum: floatPtr(1), Default: 30},
					},
				},
				"healthCheckPath": {
					Type:    "string",
					Pattern: `^/`,
					Default: "/healthz",
				},
			},
		},
		Fallback: map[string]interface{}{
			"concurrency": 10,
			"memoryMB":    512,
		},
		ProvidedCapabilities: []string{CapHTTP},
		RequiredCapabilities: []string{CapPostgres, CapQueue, CapObjectStorage, CapRedis},
		Factory: func(ctx *config.Context, cfg *config.ResolvedConfig) (engine.ComponentHandle, error) {
			return newHandle(TypeAPIWorker, cfg, map[string]engine.Capability{
				CapHTTP: {
					Payload: map[string]interface{}{
						"endpoint":        fmt.Sprintf("https://%s-%s.%s.svc.local", ctx.Service, cfg.Component(), ctx.Environment),
						"healthCheckPath": cfg.String("healthCheckPath"),
					},
					AllowedAccess: []engine.AccessLevel{engine.AccessInvoke},
				},
			}), nil
		},
	}
}
