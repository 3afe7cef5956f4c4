// Package config implements configuration resolution for components: the
// deterministic deep merge across the five precedence layers, the
// per-environment component context, and the frozen ResolvedConfig handed to
// component factories.
//
// Precedence, lowest to highest: hardcoded component fallback, compliance
// framework defaults, environment-level manifest overrides, the component's
// own config block, declared patch overrides. Schema defaults rank below
// everything and only fill fields no layer supplied.
package config
