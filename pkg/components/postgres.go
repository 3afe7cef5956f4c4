package components

import (
	"fmt"

	"github.com/paveops/pave/pkg/config"
	"github.com/paveops/pave/pkg/engine"
	"github.com/paveops/pave/pkg/schema"
)

// postgresDescriptor declares the db-postgres component type: a managed
// PostgreSQL instance with encryption, multi-AZ and backup controls.
func postgresDescriptor() engine.Descriptor {
	return engine.Descriptor{
		ConfigSchema: &schema.Schema{
			Type: "object",
			Properties: map[string]*schema.Schema{
				"engineVersion": {
					Type:    "string",
					Enum:    []interface{}{"14", "15", "16"},
					Default: "16",
				},
				"instanceClass": {Type: "string", Default: "db.t3.medium"},
				"storageGB":     {Type: "integer", Minimum: floatPtr(20), Maximum: floatPtr(65536), Default: 100},
				"multiAZ":       {Type: "boolean", Default: false},
				"encryption": {
					Type: "object",
					Properties: map[string]*schema.Schema{
						"enabled":            {Type: "boolean", Default: true},
						"customerManagedKey": {Type: "boolean", Default: false},
					},
				},
				"backupRetentionDays": {Type: "integer", Minimum: floatPtr(0), Maximum: floatPtr(35), Default: 7},
				"deletionProtection":  {Type: "boolean", Default: false},
				"databaseName": {
					Type:    "string",
					Pattern: `^[a-z][a-z0-9_]*$`,
					Default: "app",
				},
			},
		},
		Fallback: map[string]interface{}{
			"instanceClass": "db.t3.medium",
			"storageGB":     100,
		},
		ProvidedCapabilities: []string{CapPostgres},
		Factory: func(ctx *config.Context, cfg *config.ResolvedConfig) (engine.ComponentHandle, error) {
			host := fmt.Sprintf("%s-%s.%s.rds.local", ctx.Service, cfg.Component(), ctx.Region)
			return newHandle(TypeDBPostgres, cfg, map[string]engine.Capability{
				CapPostgres: {
					Payload: map[string]interface{}{
						"host":     host,
						"port":     5432,
						"database": cfg.String("databaseName"),
					},
					AllowedAccess: []engine.AccessLevel{
						engine.AccessRead, engine.AccessReadWrite,
					},
				},
			}), nil
		},
	}
}
