package policy

import (
	"time"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational findings.
	SeverityInfo Severity = "info"

	// SeverityWarning is for findings that should be reviewed but do not
	// block resolution.
	SeverityWarning Severity = "warning"

	// SeverityError is for findings that block resolution.
	SeverityError Severity = "error"

	// SeverityCritical is for findings that must never reach production.
	SeverityCritical Severity = "critical"
)

// Blocking reports whether the severity stops a resolution run.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// Policy represents a governance rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Metadata contains additional policy metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is when the policy was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the policy was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Violation represents a single policy violation against a manifest.
type Violation struct {
	// Policy is the name of the policy that fired.
	Policy string `json:"policy"`

	// Component is the offending component name, when the rule targets one.
	Component string `json:"component,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`

	// Details contains additional violation details.
	Details map[string]interface{} `json:"details,omitempty"`

	// DetectedAt is when the violation was detected.
	DetectedAt time.Time `json:"detected_at"`
}

// Result represents the outcome of auditing one manifest.
type Result struct {
	// Allowed indicates whether resolution may proceed.
	Allowed bool `json:"allowed"`

	// Violations lists all findings, blocking and non-blocking.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists evaluation problems that did not stop the audit
	// (for example one policy failing to evaluate).
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// EvaluatedAt is when the audit ran.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// Duration is how long the audit took.
	Duration time.Duration `json:"duration"`
}

// Input is the document handed to every Rego policy as `input`.
type Input struct {
	// Manifest is the full parsed service manifest.
	Manifest interface{} `json:"manifest"`

	// Context carries the facts of the environment being resolved.
	Context *Context `json:"context"`
}

// Context provides evaluation context for policies.
type Context struct {
	// Service is the manifest's service name.
	Service string `json:"service"`

	// Environment is the environment resolution was requested for.
	Environment string `json:"environment"`

	// Framework is the effective compliance framework.
	Framework string `json:"framework"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`
}

// Bundle represents a collection of related policies shipped together.
type Bundle struct {
	// Name is the unique name of the bundle.
	Name string `json:"name"`

	// Version is the bundle version.
	Version string `json:"version"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Policies are the policies in this bundle.
	Policies []Policy `json:"policies"`

	// CreatedAt is when the bundle was created.
	CreatedAt time.Time `json:"created_at"`
}
