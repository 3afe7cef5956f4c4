package engine

import (
	"strings"
	"testing"

	"github.com/paveops/pave/pkg/config"
)

func noopFactory(name, typeKey string) Factory {
	return func(ctx *config.Context, cfg *config.ResolvedConfig) (ComponentHandle, error) {
		return &staticHandle{name: name, typeKey: typeKey, config: cfg}, nil
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("queue", Descriptor{Factory: noopFactory("q", "queue")}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register("db-postgres", Descriptor{Factory: noopFactory("db", "db-postgres")}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if !r.Has("queue") {
		t.Error("expected Has(queue) to be true")
	}
	if r.Has("cache-redis") {
		t.Error("expected Has(cache-redis) to be false")
	}

	if _, err := r.Descriptor("queue"); err != nil {
		t.Errorf("Descriptor(queue) failed: %v", err)
	}

	types := r.Types()
	if len(types) != 2 || types[0] != "db-postgres" || types[1] != "queue" {
		t.Errorf("Types() = %v, want sorted [db-postgres queue]", types)
	}
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("queue", Descriptor{Factory: noopFactory("q", "queue")}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := r.Register("queue", Descriptor{Factory: noopFactory("q", "queue")}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegistryRejectsInvalidRegistrations(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("", Descriptor{Factory: noopFactory("x", "x")}); err == nil {
		t.Error("expected empty type key to fail")
	}
	if err := r.Register("queue", Descriptor{}); err == nil {
		t.Error("expected nil factory to fail")
	}
}

func TestRegistryUnknownTypeListsRegistered(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("queue", Descriptor{Factory: noopFactory("q", "queue")})
	r.MustRegister("api-worker", Descriptor{Factory: noopFactory("w", "api-worker")})

	_, err := r.Create("nosql", nil, nil)
	if err == nil {
		t.Fatal("expected Create with unknown type to fail")
	}
	if !IsKind(err, KindUnknownComponentType) {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindUnknownComponentType)
	}
	if !strings.Contains(err.Error(), "api-worker, queue") {
		t.Errorf("error should list registered types sorted, got: %v", err)
	}
}
