// Package compliance defines the supported compliance frameworks and the
// per-framework default documents that encode each posture's mandatory
// hardening (precedence layer 2 of configuration resolution).
//
// Documents are embedded YAML keyed by component type and are served through
// DefaultsCache, a read-through cache with a populate-once-per-key contract:
// a document is parsed at most once per framework and never mutated in place,
// and callers always receive deep copies. Tests swap documents by pointing
// the cache at an override directory and calling Reset.
package compliance
