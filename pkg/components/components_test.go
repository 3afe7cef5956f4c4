package components

import (
	"context"
	"strings"
	"testing"

	"github.com/paveops/pave/pkg/compliance"
	"github.com/paveops/pave/pkg/engine"
	"github.com/paveops/pave/pkg/manifest"
)

func builtinRegistry(t *testing.T) *engine.Registry {
	t.Helper()
	r := engine.NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}
	return r
}

func TestRegisterBuiltins(t *testing.T) {
	r := builtinRegistry(t)
	for _, typeKey := range []string{TypeObjectStorage, TypeDBPostgres, TypeQueue, TypeAPIWorker, TypeCacheRedis} {
		if !r.Has(typeKey) {
			t.Errorf("built-in type %s not registered", typeKey)
		}
	}
	if err := RegisterBuiltins(r); err == nil {
		t.Error("second RegisterBuiltins should fail on duplicate keys")
	}
}

func fullManifest(framework compliance.Framework) *manifest.ServiceManifest {
	return &manifest.ServiceManifest{
		Service:             "orders",
		Owner:               "commerce-team",
		ComplianceFramework: framework,
		Environments: map[string]manifest.EnvironmentSpec{
			"prod": {Region: "us-east-1", AccountID: "123456789012"},
		},
		Components: []manifest.ComponentSpec{
			{Name: "uploads", Type: TypeObjectStorage},
			{Name: "db", Type: TypeDBPostgres, Config: map[string]interface{}{"databaseName": "orders"}},
			{Name: "events", Type: TypeQueue},
			{Name: "cache", Type: TypeCacheRedis},
			{Name: "api", Type: TypeAPIWorker, Binds: []manifest.BindingSpec{
				{To: "db", Capability: CapPostgres, Access: "read-write"},
				{To: "events", Capability: CapQueue, Access: "send"},
				{To: "uploads", Capability: CapObjectStorage, Access: "read-write"},
				{To: "cache", Capability: CapRedis, Access: "read-write"},
			}},
		},
	}
}

func TestResolveFullCatalogCommercial(t *testing.T) {
	resolver := engine.NewResolver(builtinRegistry(t))

	result, err := resolver.Resolve(context.Background(), fullManifest(compliance.FrameworkCommercial), "prod")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.State != engine.StateReady {
		t.Fatalf("state = %v, want %v", result.State, engine.StateReady)
	}

	order := result.Order()
	if order[len(order)-1] != "api" {
		t.Errorf("api should resolve last, got order %v", order)
	}
	if len(result.Grants) != 4 {
		t.Errorf("grants = %d, want 4", len(result.Grants))
	}

	db, _ := result.Component("db")
	payload := db.Handle.Capabilities()[CapPostgres].Payload
	if payload["database"] != "orders" {
		t.Errorf("postgres payload database = %v, want orders", payload["database"])
	}
	if !strings.Contains(payload["host"].(string), "orders-db") {
		t.Errorf("postgres host should derive from service and component, got %v", payload["host"])
	}

	uploads, _ := result.Component("uploads")
	// Commercial posture leaves versioning off.
	if uploads.Config.Bool("versioning") {
		t.Error("commercial object storage should not enable versioning by default")
	}
	if !uploads.Config.Bool("encryption.enabled") {
		t.Error("commercial object storage should still encrypt")
	}
}

func TestResolveFullCatalogFedRAMPHigh(t *testing.T) {
	resolver := engine.NewResolver(builtinRegistry(t))

	result, err := resolver.Resolve(context.Background(), fullManifest(compliance.FrameworkFedRAMPHigh), "prod")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	uploads, _ := result.Component("uploads")
	if !uploads.Config.Bool("versioning") {
		t.Error("fedramp-high must force versioning")
	}
	if !uploads.Config.Bool("compliance.objectLock.enabled") {
		t.Error("fedramp-high must force object lock")
	}
	if uploads.Config.Int("retentionDays") != 2555 {
		t.Errorf("fedramp-high retentionDays = %d, want 2555", uploads.Config.Int("retentionDays"))
	}

	db, _ := result.Component("db")
	if !db.Config.Bool("multiAZ") || !db.Config.Bool("deletionProtection") {
		t.Error("fedramp-high postgres must be multi-AZ with deletion protection")
	}

	cache, _ := result.Component("cache")
	if !cache.Config.Bool("encryption.inTransit") {
		t.Error("fedramp-high redis must encrypt in transit")
	}
	tls, _ := cache.Handle.Capabilities()[CapRedis].Payload["tls"].(bool)
	if !tls {
		t.Error("redis capability payload should reflect in-transit encryption")
	}
}

func TestObjectLockWithoutVersioningFails(t *testing.T) {
	resolver := engine.NewResolver(builtinRegistry(t))
	m := fullManifest(compliance.FrameworkCommercial)
	uploads, _ := m.Component("uploads")
	uploads.Config = map[string]interface{}{
		"versioning": false,
		"compliance": map[string]interface{}{
			"objectLock": map[string]interface{}{"enabled": true},
		},
	}

	_, err := resolver.Resolve(context.Background(), m, "prod")
	if err == nil {
		t.Fatal("object lock without versioning must fail, not auto-correct")
	}
	if !engine.IsKind(err, engine.KindCrossFieldInvariant) {
		t.Errorf("error kind = %v, want %v", engine.KindOf(err), engine.KindCrossFieldInvariant)
	}
	if !strings.Contains(err.Error(), "object lock requires versioning") {
		t.Errorf("error should carry the rule message, got: %v", err)
	}
}

func TestQueueFifoNaming(t *testing.T) {
	resolver := engine.NewResolver(builtinRegistry(t))
	m := fullManifest(compliance.FrameworkCommercial)
	events, _ := m.Component("events")
	events.Config = map[string]interface{}{"fifo": true}

	result, err := resolver.Resolve(context.Background(), m, "prod")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	queue, _ := result.Component("events")
	name := queue.Handle.Capabilities()[CapQueue].Payload["queueName"].(string)
	if name != "orders-events-prod.fifo" {
		t.Errorf("queue name = %q, want orders-events-prod.fifo", name)
	}
}

func TestQueueRejectsReceiveOnlyAccessViolations(t *testing.T) {
	resolver := engine.NewResolver(builtinRegistry(t))
	m := fullManifest(compliance.FrameworkCommercial)
	api, _ := m.Component("api")
	api.Binds = []manifest.BindingSpec{
		{To: "events", Capability: CapQueue, Access: "invoke"},
	}

	_, err := resolver.Resolve(context.Background(), m, "prod")
	if !engine.IsKind(err, engine.KindCapabilityMismatch) {
		t.Errorf("error kind = %v, want %v", engine.KindOf(err), engine.KindCapabilityMismatch)
	}
}

func TestRedisMultiAZRequiresReplica(t *testing.T) {
	resolver := engine.NewResolver(builtinRegistry(t))
	m := fullManifest(compliance.FrameworkCommercial)
	cache, _ := m.Component("cache")
	cache.Config = map[string]interface{}{"multiAZ": true, "replicas": 0}

	_, err := resolver.Resolve(context.Background(), m, "prod")
	if !engine.IsKind(err, engine.KindCrossFieldInvariant) {
		t.Errorf("error kind = %v, want %v", engine.KindOf(err), engine.KindCrossFieldInvariant)
	}
}
