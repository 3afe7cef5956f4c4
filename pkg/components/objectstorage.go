package components

import (
	"fmt"

	"github.com/paveops/pave/pkg/config"
	"github.com/paveops/pave/pkg/engine"
	"github.com/paveops/pave/pkg/schema"
)

// objectStorageDescriptor declares the object-storage component type: an
// S3-style bucket with encryption, versioning, lifecycle retention and an
// optional object-lock compliance block. Object lock depends on versioning,
// so the schema carries a cross-field rule rather than silently enabling it.
func objectStorageDescriptor() engine.Descriptor {
	return engine.Descriptor{
		ConfigSchema: &schema.Schema{
			Type: "object",
			Properties: map[string]*schema.Schema{
				"encryption": {
					Type: "object",
					Properties: map[string]*schema.Schema{
						"enabled":            {Type: "boolean", Default: true},
						"algorithm":          {Type: "string", Enum: []interface{}{"aes256", "aws-kms"}, Default: "aes256"},
						"customerManagedKey": {Type: "boolean", Default: false},
					},
				},
				"versioning":    {Type: "boolean", Default: false},
				"retentionDays": {Type: "integer", Minimum: floatPtr(1), Default: 30},
				"storageClass": {
					Type:    "string",
					Enum:    []interface{}{"standard", "infrequent-access", "glacier"},
					Default: "standard",
				},
				"publicAccess": {Type: "boolean", Default: false},
				"compliance": {
					Type: "object",
					Properties: map[string]*schema.Schema{
						"objectLock": {
							Type: "object",
							Properties: map[string]*schema.Schema{
								"enabled": {Type: "boolean", Default: false},
								"mode":    {Type: "string", Enum: []interface{}{"governance", "compliance"}, Default: "governance"},
							},
						},
					},
				},
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
					Message: "object lock requires versioning to be enabled",
				},
			},
		},
		Fallback: map[string]interface{}{
			"versioning":    false,
			"retentionDays": 30,
			"storageClass":  "standard",
		},
		ProvidedCapabilities: []string{CapObjectStorage},
		Factory: func(ctx *config.Context, cfg *config.ResolvedConfig) (engine.ComponentHandle, error) {
			bucket := fmt.Sprintf("%s-%s-%s", ctx.Service, cfg.Component(), ctx.Environment)
			return newHandle(TypeObjectStorage, cfg, map[string]engine.Capability{
				CapObjectStorage: {
					Payload: map[string]interface{}{
						"bucketName": bucket,
						"arn":        fmt.Sprintf("arn:aws:s3:::%s", bucket),
						"region":     ctx.Region,
					},
					AllowedAccess: []engine.AccessLevel{
						engine.AccessRead, engine.AccessWrite, engine.AccessReadWrite,
					},
				},
			}), nil
		},
	}
}
