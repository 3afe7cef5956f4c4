package components

import (
	"fmt"

	"github.com/paveops/pave/pkg/config"
	"github.com/paveops/pave/pkg/engine"
	"github.com/paveops/pave/pkg/schema"
)

// queueDescriptor declares the queue component type: an SQS-style queue with
// visibility, retention and dead-letter settings. A dead-letter policy needs
// a positive receive count, enforced as a cross-field rule.
func queueDescriptor() engine.Descriptor {
	return engine.Descriptor{
		ConfigSchema: &schema.Schema{
			Type: "object",
			Properties: map[string]*schema.Schema{
				"fifo": {Type: "boolean", Default: false},
				"encryption": {
					Type: "object",
					Properties: map[string]*schema.Schema{
						"enabled":            {Type: "boolean", Default: false},
						"customerManagedKey": {Type: "boolean", Default: false},
					},
				},
				"visibilityTimeoutSeconds": {Type: "integer", Minimum: floatPtr(0), Maximum: floatPtr(43200), Default: 30},
				"messageRetentionDays":     {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(14), Default: 4},
				"deadLetter": {
					Type: "object",
					Properties: map[string]*schema.Schema{
						"enabled":         {Type: "boolean", Default: false},
						"maxReceiveCount": {Type: "integer", Minimum: floatPtr(1), Default: 5},
					},
				},
			},
			AllOf: []schema.ConditionalRule{
				{
					If: &schema.Schema{
						Type: "object",
						Properties: map[string]*schema.Schema{
							"deadLetter": {
								Type: "object",
								Properties: map[string]*schema.Schema{
									"enabled": {Const: true},
								},
								Required: []string{"enabled"},
							},
						},
						Required: []string{"deadLetter"},
					},
					Then: &schema.Schema{
						Type: "object",
						Properties: map[string]*schema.Schema{
							"deadLetter": {
								Type: "object",
								Properties: map[string]*schema.Schema{
									"maxReceiveCount": {Type: "integer", Minimum: floatPtr(1)},
								},
								Required: []string{"maxReceiveCount"},
							},
						},
					},
					Message: "dead-letter policy requires a positive maxReceiveCount",
				},
			},
		},
		Fallback: map[string]interface{}{
			"visibilityTimeoutSeconds": 30,
			"messageRetentionDays":     4,
		},
		ProvidedCapabilities: []string{CapQueue},
		Factory: func(ctx *config.Context, cfg *config.ResolvedConfig) (engine.ComponentHandle, error) {
			name := fmt.Sprintf("%s-%s-%s", ctx.Service, cfg.Component(), ctx.Environment)
			if cfg.Bool("fifo") {
				name += ".fifo"
			}
			return newHandle(TypeQueue, cfg, map[string]engine.Capability{
				CapQueue: {
					Payload: map[string]interface{}{
						"queueName": name,
						"queueUrl":  fmt.Sprintf("https://sqs.%s.local/%s/%s", ctx.Region, ctx.AccountID, name),
						"arn":       fmt.Sprintf("arn:aws:sqs:%s:%s:%s", ctx.Region, ctx.AccountID, name),
					},
					AllowedAccess: []engine.AccessLevel{
						engine.AccessSend, engine.AccessReceive,
					},
				},
			}), nil
		},
	}
}
