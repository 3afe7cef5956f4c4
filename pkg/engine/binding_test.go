package engine

import (
	"strings"
	"testing"

	"github.com/paveops/pave/pkg/manifest"
)

func queueHandle() ComponentHandle {
	return &staticHandle{
		name:    "events",
		typeKey: "queue",
		capabilities: map[string]Capability{
			"queue:sqs": {
				Payload:       map[string]interface{}{"queueUrl": "https://sqs.test/events"},
				AllowedAccess: []AccessLevel{AccessSend, AccessReceive},
			},
			"queue:dlq": {
				AllowedAccess: []AccessLevel{AccessReceive},
			},
		},
	}
}

func TestResolveBindingIssuesGrant(t *testing.T) {
	r := NewBindingResolver()
	b := manifest.Binding{From: "api", To: "events", Capability: "queue:sqs", Access: "send"}

	grant, err := r.Resolve(b, queueHandle())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if grant.ID == "" {
		t.Error("grant ID should be set")
	}
	if grant.Consumer != "api" || grant.Producer != "events" {
		t.Errorf("grant endpoints = %s -> %s, want api -> events", grant.Consumer, grant.Producer)
	}
	if grant.Capability != "queue:sqs" || grant.Access != AccessSend {
		t.Errorf("grant = %s/%s, want queue:sqs/send", grant.Capability, grant.Access)
	}
	if grant.Payload["queueUrl"] != "https://sqs.test/events" {
		t.Errorf("grant payload missing producer attributes: %v", grant.Payload)
	}
}

func TestResolveBindingUnknownCapability(t *testing.T) {
	r := NewBindingResolver()
	b := manifest.Binding{From: "api", To: "events", Capability: "storage:s3", Access: "read"}

	_, err := r.Resolve(b, queueHandle())
	if err == nil {
		t.Fatal("expected unknown capability to fail")
	}
	if !IsKind(err, KindCapabilityMismatch) {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindCapabilityMismatch)
	}
	// Exposed keys are listed sorted so the message is deterministic.
	if !strings.Contains(err.Error(), "queue:dlq, queue:sqs") {
		t.Errorf("error should list exposed capabilities, got: %v", err)
	}
}

func TestResolveBindingDisallowedAccess(t *testing.T) {
	r := NewBindingResolver()
	b := manifest.Binding{From: "api", To: "events", Capability: "queue:dlq", Access: "send"}

	_, err := r.Resolve(b, queueHandle())
	if err == nil {
		t.Fatal("expected disallowed access to fail")
	}
	if !IsKind(err, KindCapabilityMismatch) {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindCapabilityMismatch)
	}
	if !strings.Contains(err.Error(), `access "send"`) || !strings.Contains(err.Error(), "receive") {
		t.Errorf("error should name requested and allowed access, got: %v", err)
	}
}

func TestCapabilityAllows(t *testing.T) {
	c := Capability{AllowedAccess: []AccessLevel{AccessRead, AccessReadWrite}}
	if !c.Allows(AccessRead) {
		t.Error("expected read to be allowed")
	}
	if c.Allows(AccessWrite) {
		t.Error("expected write to be denied")
	}
}
