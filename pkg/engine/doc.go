// Package engine is the resolution core of pave. It owns the component type
// registry, the dependency graph and its deterministic topological ordering,
// capability binding resolution with access grant synthesis, the classified
// error taxonomy, and the Resolver state machine that drives a service
// manifest from structural validation to a ready-to-synthesize plan.
//
// The engine stops at the plan boundary: it instantiates component handles
// and issues abstract access grants but never provisions anything. Cloud
// resource synthesis consumes a ResolutionResult downstream.
package engine
