package policy

import (
	"time"
)

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		patchGovernancePolicy(),
		componentNamingPolicy(),
		productionHardeningPolicy(),
		storageWriteReviewPolicy(),
	}
}

// patchGovernancePolicy enforces the audit trail on declared patches. The
// manifest validator already rejects patches with no justification at all;
// this policy raises the bar to something a reviewer can actually audit.
func patchGovernancePolicy() Policy {
	return Policy{
		Name:        "patch-governance",
		Description: "Requires every patch to carry an approval date and an auditable justification",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"patches", "audit"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package pave.policies.patches

import rego.v1

deny contains violation if {
	some patch in input.manifest.patches
	not patch.approvedDate
	violation := {
		"message": sprintf("Patch %s has no approval date", [patch.name]),
		"severity": "error",
		"component": patch.component,
	}
}

deny contains violation if {
	some patch in input.manifest.patches
	count(patch.justification) < 10
	violation := {
		"message": sprintf("Patch %s justification is too short to audit", [patch.name]),
		"severity": "error",
		"component": patch.component,
	}
}`,
	}
}

// componentNamingPolicy enforces component naming conventions.
func componentNamingPolicy() Policy {
	return Policy{
		Name:        "component-naming",
		Description: "Enforces component naming conventions (lowercase, alphanumeric, hyphens, 3-40 characters)",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"naming", "conventions"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package pave.policies.naming

import rego.v1

deny contains violation if {
	some component in input.manifest.components
	not regex.match("^[a-z][a-z0-9-]*$", component.name)
	violation := {
		"message": sprintf("Component name %q must be lowercase alphanumeric with hyphens and start with a letter", [component.name]),
		"severity": "error",
		"component": component.name,
	}
}

deny contains violation if {
	some component in input.manifest.components
	count(component.name) < 3
	violation := {
		"message": sprintf("Component name %q must be at least 3 characters long", [component.name]),
		"severity": "error",
		"component": component.name,
	}
}

deny contains violation if {
	some component in input.manifest.components
	count(component.name) > 40
	violation := {
		"message": sprintf("Component name %q must not exceed 40 characters", [component.name]),
		"severity": "error",
		"component": component.name,
	}
}

deny contains violation if {
	some component in input.manifest.components
	regex.match("-$", component.name)
	violation := {
		"message": sprintf("Component name %q must not end with a hyphen", [component.name]),
		"severity": "error",
		"component": component.name,
	}
}`,
	}
}

// productionHardeningPolicy blocks configurations that undo the FedRAMP
// hardening the framework defaults establish.
func productionHardeningPolicy() Policy {
	return Policy{
		Name:        "production-hardening",
		Description: "Blocks public access and disabled deletion protection under FedRAMP postures",
		Severity:    SeverityCritical,
		Enabled:     true,
		Tags:        []string{"compliance", "fedramp", "safety"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package pave.policies.hardening

import rego.v1

deny contains violation if {
	startswith(input.context.framework, "fedramp")
	some component in input.manifest.components
	component.config.publicAccess == true
	violation := {
		"message": sprintf("Component %s must not enable public access under %s", [component.name, input.context.framework]),
		"severity": "critical",
		"component": component.name,
	}
}

deny contains violation if {
	startswith(input.context.framework, "fedramp")
	some component in input.manifest.components
	component.type == "db-postgres"
	component.config.deletionProtection == false
	violation := {
		"message": sprintf("Component %s must not disable deletion protection under %s", [component.name, input.context.framework]),
		"severity": "critical",
		"component": component.name,
	}
}

deny contains violation if {
	startswith(input.context.framework, "fedramp")
	some component in input.manifest.components
	component.config.encryption.enabled == false
	violation := {
		"message": sprintf("Component %s must not disable encryption under %s", [component.name, input.context.framework]),
		"severity": "critical",
		"component": component.name,
	}
}`,
	}
}

// storageWriteReviewPolicy flags write access to object storage in prod so
// reviewers see it; it never blocks resolution.
func storageWriteReviewPolicy() Policy {
	return Policy{
		Name:        "storage-write-review",
		Description: "Flags write access to object storage in the prod environment for review",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"bindings", "review"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package pave.policies.bindings

import rego.v1

write_access := ["write", "read-write"]

deny contains violation if {
	input.context.environment == "prod"
	some b in input.manifest.binds
	b.capability == "storage:s3"
	b.access in write_access
	violation := {
		"message": sprintf("Component %s requests %s access to object storage in prod", [b.from, b.access]),
		"severity": "warning",
		"component": b.from,
	}
}

deny contains violation if {
	input.context.environment == "prod"
	some component in input.manifest.components
	some b in component.binds
	b.capability == "storage:s3"
	b.access in write_access
	violation := {
		"message": sprintf("Component %s requests %s access to object storage in prod", [component.name, b.access]),
		"severity": "warning",
		"component": component.name,
	}
}`,
	}
}
