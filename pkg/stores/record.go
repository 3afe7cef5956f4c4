package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paveops/pave/pkg/engine"
	"github.com/paveops/pave/pkg/manifest"
)

// RecordResolution persists a completed resolution run: the run record, one
// outcome per manifest component, every grant issued, and an audit entry per
// applied patch. runErr is the error returned by the resolver, nil on
// success. Components the run never resolved are recorded as failed when the
// error list names them and skipped otherwise.
func RecordResolution(ctx context.Context, s Store, m *manifest.ServiceManifest, result *engine.ResolutionResult, runErr error) error {
	if result == nil {
		return fmt.Errorf("resolution result is required")
	}

	now := time.Now()
	completedAt := result.StartedAt.Add(result.Duration)

	status := RunStatusReady
	var errMsg *string
	if runErr != nil || result.State != engine.StateReady {
		status = RunStatusFailed
	}
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
	}

	metadata, err := json.Marshal(map[string]interface{}{
		"state":      string(result.State),
		"durationMs": result.Duration.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode run metadata: %w", err)
	}

	run := &ResolutionRun{
		ID:          result.RunID,
		Service:     result.Service,
		Environment: result.Environment,
		Framework:   frameworkOf(result, m),
		Status:      status,
		StartedAt:   result.StartedAt,
		CompletedAt: &completedAt,
		Error:       errMsg,
		Metadata:    string(metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.CreateRun(ctx, run); err != nil {
		return err
	}

	resolved := make(map[string]bool, len(result.Components))
	for position, rc := range result.Components {
		resolved[rc.Spec.Name] = true

		cfg, err := json.Marshal(rc.Config)
		if err != nil {
			return fmt.Errorf("failed to encode config for %s: %w", rc.Spec.Name, err)
		}
		cfgStr := string(cfg)

		patches, err := json.Marshal(rc.Config.AppliedPatches())
		if err != nil {
			return fmt.Errorf("failed to encode patches for %s: %w", rc.Spec.Name, err)
		}

		outcome := &ComponentOutcome{
			ID:        uuid.NewString(),
			RunID:     result.RunID,
			Name:      rc.Spec.Name,
			Type:      rc.Spec.Type,
			Status:    OutcomeResolved,
			Position:  position,
			Config:    &cfgStr,
			Patches:   string(patches),
			CreatedAt: now,
		}
		if err := s.CreateComponentOutcome(ctx, outcome); err != nil {
			return err
		}
	}

	failures := componentFailures(runErr)
	for _, spec := range m.Components {
		if resolved[spec.Name] {
			continue
		}

		outcomeStatus := OutcomeSkipped
		var outcomeErr *string
		if msg, ok := failures[spec.Name]; ok {
			outcomeStatus = OutcomeFailed
			outcomeErr = &msg
		}

		outcome := &ComponentOutcome{
			ID:        uuid.NewString(),
			RunID:     result.RunID,
			Name:      spec.Name,
			Type:      spec.Type,
			Status:    outcomeStatus,
			Position:  -1,
			Patches:   "[]",
			Error:     outcomeErr,
			CreatedAt: now,
		}
		if err := s.CreateComponentOutcome(ctx, outcome); err != nil {
			return err
		}
	}

	for _, g := range result.Grants {
		payload, err := json.Marshal(g.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode grant payload: %w", err)
		}
		record := &GrantRecord{
			ID:         g.ID,
			RunID:      result.RunID,
			Consumer:   g.Consumer,
			Producer:   g.Producer,
			Capability: g.Capability,
			Access:     string(g.Access),
			Payload:    string(payload),
			CreatedAt:  now,
		}
		if err := s.CreateGrant(ctx, record); err != nil {
			return err
		}
	}

	return recordAppliedPatches(ctx, s, m, result, now)
}

// recordAppliedPatches writes one audit entry per patch a resolved component
// actually applied.
func recordAppliedPatches(ctx context.Context, s Store, m *manifest.ServiceManifest, result *engine.ResolutionResult, now time.Time) error {
	for _, rc := range result.Components {
		applied := make(map[string]bool)
		for _, name := range rc.Config.AppliedPatches() {
			applied[name] = true
		}
		for _, p := range m.PatchesFor(rc.Spec.Name) {
			if !applied[p.Name] {
				continue
			}
			values, err := json.Marshal(p.Values)
			if err != nil {
				return fmt.Errorf("failed to encode patch values for %s: %w", p.Name, err)
			}
			entry := &PatchAuditEntry{
				RunID:         result.RunID,
				Component:     p.Component,
				Patch:         p.Name,
				Justification: p.Justification,
				ApprovedBy:    p.ApprovedBy,
				ApprovedDate:  p.ApprovedDate,
				Values:        string(values),
				Timestamp:     now,
			}
			if err := s.CreatePatchAuditEntry(ctx, entry); err != nil {
				return err
			}
		}
	}
	return nil
}

// componentFailures maps component names to failure messages pulled from the
// resolver's aggregated error, when present.
func componentFailures(runErr error) map[string]string {
	out := map[string]string{}
	if runErr == nil {
		return out
	}
	var list *engine.ErrorList
	if !errors.As(runErr, &list) {
		return out
	}
	for _, e := range list.Errors() {
		if e.Component == "" {
			continue
		}
		if _, seen := out[e.Component]; !seen {
			out[e.Component] = e.Error()
		}
	}
	return out
}

func frameworkOf(result *engine.ResolutionResult, m *manifest.ServiceManifest) string {
	if result.Context != nil {
		return string(result.Context.Framework)
	}
	return string(m.FrameworkFor(result.Environment))
}
