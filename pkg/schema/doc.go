// Package schema implements the JSON-Schema-like document model component
// types use to describe their configuration, and a validator for it.
//
// The validator supports primitive type, enum, range and pattern checks,
// nested object and array validation, default application for missing
// optional fields, and conditional cross-field rules expressed as allOf
// if/then pairs (for example "if compliance.objectLock.enabled is true then
// versioning must be true").
//
// Validation is pure and collects every violation across the candidate
// before returning, so callers can report all errors together instead of
// fixing them one at a time.
package schema
