package manifest

import (
	"strings"
	"testing"

	"github.com/paveops/pave/pkg/compliance"
)

const sampleManifest = `
service: orders
owner: payments-team
complianceFramework: fedramp-moderate
environments:
  dev:
    region: us-east-1
    accountId: "111111111111"
    complianceFramework: commercial
  prod:
    region: us-gov-west-1
    accountId: "222222222222"
    overrides:
      db:
        backupRetentionDays: 35
    tags:
      costCenter: "4021"
components:
  - name: db
    type: db-postgres
    config:
      instanceClass: db.r6g.large
  - name: api
    type: api-worker
    dependencies: [db]
    binds:
      - to: db
        capability: database:postgres
        access: read-write
binds:
  - from: api
    to: queue
    capability: queue:sqs
    access: send
patches:
  - name: dev-short-retention
    component: db
    justification: dev data is disposable
    approvedBy: jsmith
    approvedDate: "2026-01-15"
    values:
      backupRetentionDays: 1
`

func TestParse_Sample(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if m.Service != "orders" {
		t.Errorf("Expected service orders, got %q", m.Service)
	}
	if len(m.Components) != 2 {
		t.Fatalf("Expected 2 components, got %d", len(m.Components))
	}
	if m.Components[1].Binds[0].Capability != "database:postgres" {
		t.Errorf("Unexpected bind capability %q", m.Components[1].Binds[0].Capability)
	}
	if got := m.Environments["prod"].Overrides["db"]["backupRetentionDays"]; got != 35 {
		t.Errorf("Expected prod override 35, got %v", got)
	}
}

func TestFrameworkFor(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatal(err)
	}

	if f := m.FrameworkFor("dev"); f != compliance.FrameworkCommercial {
		t.Errorf("Expected dev override to commercial, got %s", f)
	}
	if f := m.FrameworkFor("prod"); f != compliance.FrameworkFedRAMPModerate {
		t.Errorf("Expected manifest default for prod, got %s", f)
	}
}

func TestAllBindings_FlattensInDeclarationOrder(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatal(err)
	}

	binds := m.AllBindings()
	if len(binds) != 2 {
		t.Fatalf("Expected 2 bindings, got %d", len(binds))
	}
	// Service-level binds come first, then per-component binds.
	if binds[0].From != "api" || binds[0].To != "queue" {
		t.Errorf("Unexpected first binding %+v", binds[0])
	}
	if binds[1].From != "api" || binds[1].To != "db" || binds[1].Access != "read-write" {
		t.Errorf("Unexpected second binding %+v", binds[1])
	}
}

func TestValidate_ValidManifest(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatal(err)
	}

	if errs := NewValidator().Validate(m); len(errs) != 0 {
		t.Errorf("Expected no validation errors, got %v", errs)
	}
}

func TestValidate_MissingTopLevelFields(t *testing.T) {
	m, err := Parse([]byte("service: orders\n"))
	if err != nil {
		t.Fatal(err)
	}

	errs := NewValidator().Validate(m)
	if len(errs) == 0 {
		t.Fatal("Expected validation errors for missing fields")
	}

	var paths []string
	for _, e := range errs {
		paths = append(paths, e.Path)
	}
	joined := strings.Join(paths, " ")
	for _, want := range []string{"owner", "complianceFramework", "environments", "components"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected an error mentioning %s, got %v", want, errs)
		}
	}
}

func TestValidate_DuplicateComponentNames(t *testing.T) {
	raw := `
service: orders
owner: payments-team
complianceFramework: commercial
environments:
  dev: {region: us-east-1, accountId: "1"}
components:
  - {name: db, type: db-postgres}
  - {name: db, type: db-postgres}
`
	m, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}

	errs := NewValidator().Validate(m)
	if !hasMessageContaining(errs, "duplicate component name") {
		t.Errorf("Expected duplicate name error, got %v", errs)
	}
}

func TestValidate_UnknownFramework(t *testing.T) {
	raw := `
service: orders
owner: payments-team
complianceFramework: fedramp-low
environments:
  dev: {region: us-east-1, accountId: "1"}
components:
  - {name: db, type: db-postgres}
`
	m, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}

	errs := NewValidator().Validate(m)
	if !hasMessageContaining(errs, "unknown compliance framework") {
		t.Errorf("Expected unknown framework error, got %v", errs)
	}
}

func TestValidate_PatchRequiresJustificationAndApprover(t *testing.T) {
	raw := `
service: orders
owner: payments-team
complianceFramework: commercial
environments:
  dev: {region: us-east-1, accountId: "1"}
components:
  - {name: db, type: db-postgres}
patches:
  - name: sneaky
    component: db
    values:
      deletionProtection: false
`
	m, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}

	errs := NewValidator().Validate(m)
	if !hasPathContaining(errs, "justification") {
		t.Errorf("Expected missing justification error, got %v", errs)
	}
	if !hasPathContaining(errs, "approvedBy") {
		t.Errorf("Expected missing approver error, got %v", errs)
	}
}

func TestValidate_ReferencesToUndeclaredComponents(t *testing.T) {
	raw := `
service: orders
owner: payments-team
complianceFramework: commercial
environments:
  dev:
    region: us-east-1
    accountId: "1"
    overrides:
      ghost: {x: 1}
components:
  - {name: db, type: db-postgres}
patches:
  - name: p
    component: phantom
    justification: because
    approvedBy: jsmith
    values: {x: 1}
`
	m, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}

	errs := NewValidator().Validate(m)
	if !hasMessageContaining(errs, `override targets undeclared component "ghost"`) {
		t.Errorf("Expected override target error, got %v", errs)
	}
	if !hasMessageContaining(errs, `patch targets undeclared component "phantom"`) {
		t.Errorf("Expected patch target error, got %v", errs)
	}
}

func hasMessageContaining(errs []ValidationError, s string) bool {
	for _, e := range errs {
		if strings.Contains(e.Message, s) {
			return true
		}
	}
	return false
}

func hasPathContaining(errs []ValidationError, s string) bool {
	for _, e := range errs {
		if strings.Contains(e.Path, s) {
			return true
		}
	}
	return false
}
