// Package manifest defines the service manifest document: the typed
// component declarations, environments, bindings and patches a service team
// writes, plus YAML loading and structural validation.
//
// Validation collects every problem across the manifest before returning.
// Reference checks that belong to later resolution phases (dependency and
// binding targets, capability contracts) are intentionally not performed
// here.
package manifest
