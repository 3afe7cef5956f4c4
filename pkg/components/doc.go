// Package components is the built-in component type catalog: object storage,
// PostgreSQL, queues, API workers and Redis caches. Each type declares its
// configuration schema, hardcoded fallback values and capability contracts,
// and registers a factory that produces plan handles for downstream
// synthesis.
package components
