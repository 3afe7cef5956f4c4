// Package policy audits service manifests against governance rules written
// in Rego, evaluated with Open Policy Agent. A built-in set covers patch
// audit trails, component naming and FedRAMP hardening; operators add their
// own rules as .rego files loaded from disk, with optional hot reload. The
// engine plugs into resolution as an engine.ManifestAuditor: error-severity
// findings block a run, warnings are logged and let it proceed.
package policy
