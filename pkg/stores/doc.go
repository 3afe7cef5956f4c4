// Package stores provides the resolution history persistence layer: run
// records, per-component outcomes, issued access grants, and the patch audit
// trail, backed by SQLite with embedded migrations.
package stores
