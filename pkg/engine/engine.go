package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/paveops/pave/pkg/compliance"
	"github.com/paveops/pave/pkg/config"
	"github.com/paveops/pave/pkg/manifest"
	"github.com/paveops/pave/pkg/telemetry"
)

// PolicyViolation is a single governance finding raised while auditing a
// manifest. Severity "error" blocks resolution; "warning" is logged and
// resolution continues.
type PolicyViolation struct {
	// Policy names the rule that fired.
	Policy string `json:"policy"`

	// Severity is "error" or "warning".
	Severity string `json:"severity"`

	// Component is the offending component, when the rule targets one.
	Component string `json:"component,omitempty"`

	// Message describes the finding.
	Message string `json:"message"`
}

// Violation severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ManifestAuditor audits a structurally valid manifest against governance
// policy before any component resolves. Implementations live outside this
// package; the engine only consumes the findings.
type ManifestAuditor interface {
	Audit(ctx context.Context, m *manifest.ServiceManifest, envCtx *config.Context) ([]PolicyViolation, error)
}

// Resolver drives a manifest through the resolution state machine: structural
// validation, context binding, policy audit, dependency ordering, per-component
// configuration and instantiation, and finally binding resolution. Structural
// and environment failures abort immediately; per-component and per-binding
// failures are collected so one bad component never hides its siblings.
type Resolver struct {
	registry *Registry
	defaults *compliance.DefaultsCache
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer
	auditor  ManifestAuditor

	manifestValidator *manifest.Validator
	bindingResolver   *BindingResolver
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(logger *telemetry.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithMetrics sets the resolver's metrics collector.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(r *Resolver) { r.metrics = metrics }
}

// WithTracer sets the resolver's tracer.
func WithTracer(tracer *telemetry.Tracer) Option {
	return func(r *Resolver) { r.tracer = tracer }
}

// WithAuditor sets the governance auditor run after structural validation.
func WithAuditor(auditor ManifestAuditor) Option {
	return func(r *Resolver) { r.auditor = auditor }
}

// WithDefaultsCache replaces the compliance defaults cache, mainly so tests
// can point it at override documents.
func WithDefaultsCache(cache *compliance.DefaultsCache) Option {
	return func(r *Resolver) { r.defaults = cache }
}

// NewResolver creates a resolver over the given component type registry.
func NewResolver(registry *Registry, opts ...Option) *Resolver {
	r := &Resolver{
		registry:          registry,
		defaults:          compliance.NewDefaultsCache(),
		logger:            telemetry.NewNopLogger(),
		manifestValidator: manifest.NewValidator(),
		bindingResolver:   NewBindingResolver(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics, _ = telemetry.NewMetrics(telemetry.MetricsConfig{})
	}
	return r
}

// Resolve runs the full state machine for one manifest and environment and
// returns the ready-to-synthesize plan. On failure the returned result still
// carries the run identity and the terminal StateFailed state, and the error
// aggregates everything that went wrong in the failing phase.
func (r *Resolver) Resolve(ctx context.Context, m *manifest.ServiceManifest, environment string) (*ResolutionResult, error) {
	result := &ResolutionResult{
		RunID:       uuid.NewString(),
		Service:     m.Service,
		Environment: environment,
		State:       StateUnparsed,
		StartedAt:   time.Now(),
	}

	log := r.logger.WithRunID(result.RunID).WithService(m.Service).WithEnvironment(environment)
	r.metrics.RecordResolutionStarted(m.Service, environment)

	if r.tracer != nil {
		spanCtx, runSpan := r.tracer.StartResolutionSpan(ctx, result.RunID, m.Service, environment)
		ctx = spanCtx
		defer runSpan.End()
	}

	err := r.resolve(ctx, m, environment, result, log)

	if r.tracer != nil {
		telemetry.RecordError(telemetry.SpanFromContext(ctx), err)
	}

	result.Duration = time.Since(result.StartedAt)
	if err != nil {
		result.State = StateFailed
		log.WithError(err).Error("Resolution failed")
	} else {
		result.State = StateReady
		log.Infof("Resolution ready: %d component(s), %d grant(s) in %s",
			len(result.Components), len(result.Grants), result.Duration)
	}
	r.metrics.RecordResolutionCompleted(string(result.State), result.Duration)
	return result, err
}

func (r *Resolver) resolve(ctx context.Context, m *manifest.ServiceManifest, environment string, result *ResolutionResult, log *telemetry.Logger) error {
	// Structural validation fails fast: nothing downstream is meaningful on
	// a malformed manifest.
	if structErrs := r.manifestValidator.Validate(m); len(structErrs) > 0 {
		var errs ErrorList
		for _, ve := range structErrs {
			errs.Append(NewError(KindManifestStructure, ve.Message).WithPath(ve.Path))
			r.metrics.RecordError(string(KindManifestStructure))
		}
		return errs.Err()
	}
	result.State = StateValidated

	envCtx, err := config.NewContext(m, environment)
	if err != nil {
		r.metrics.RecordError(string(KindUnknownEnvironment))
		return NewError(KindUnknownEnvironment, err.Error()).WithDetail("environment", environment)
	}
	result.Context = envCtx
	result.State = StateContextBound
	log = log.WithFramework(string(envCtx.Framework))

	if err := r.audit(ctx, m, envCtx, log); err != nil {
		return err
	}

	order, err := r.order(m, result)
	if err != nil {
		return err
	}
	result.State = StateOrdered

	if err := r.instantiate(m, envCtx, order, result, log); err != nil {
		return err
	}
	result.State = StateInstantiated

	if err := r.bind(m, result, log); err != nil {
		return err
	}
	result.State = StateBindingsResolved

	return nil
}

// audit runs the governance auditor, when one is configured. Error-severity
// findings abort resolution together; warnings are logged and kept out of the
// error path.
func (r *Resolver) audit(ctx context.Context, m *manifest.ServiceManifest, envCtx *config.Context, log *telemetry.Logger) error {
	if r.auditor == nil {
		return nil
	}

	violations, err := r.auditor.Audit(ctx, m, envCtx)
	if err != nil {
		return NewError(KindInternal, "policy audit failed").WithCause(err)
	}

	var errs ErrorList
	for _, v := range violations {
		if v.Severity == SeverityError {
			errs.Append(NewError(KindPolicyViolation, v.Message).
				WithComponent(v.Component).
				WithDetail("policy", v.Policy))
			r.metrics.RecordError(string(KindPolicyViolation))
			continue
		}
		log.WithField("policy", v.Policy).WithField("component", v.Component).Warn(v.Message)
	}
	return errs.Err()
}

// order builds the dependency graph and computes the instantiation order.
// A cycle aborts the run before any component resolves.
func (r *Resolver) order(m *manifest.ServiceManifest, result *ResolutionResult) ([]string, error) {
	graph, err := BuildGraph(m.Components, m.AllBindings())
	if err != nil {
		r.recordKinds(err)
		return nil, err
	}
	result.Graph = graph

	order, err := graph.TopologicalOrder()
	if err != nil {
		r.recordKinds(err)
		return nil, err
	}
	return order, nil
}

// instantiate resolves configuration for every component in order and runs
// each type's factory. Failures are collected per component; every component
// is attempted so the caller sees the full damage in one pass.
func (r *Resolver) instantiate(m *manifest.ServiceManifest, envCtx *config.Context, order []string, result *ResolutionResult, log *telemetry.Logger) error {
	builder := config.NewBuilder(r.defaults, log.Zerolog())
	env := m.Environments[envCtx.Environment]

	var errs ErrorList
	for _, name := range order {
		spec, ok := m.Component(name)
		if !ok {
			errs.Append(Errorf(KindInternal, "ordered component %s has no declaration", name))
			continue
		}

		desc, err := r.registry.Descriptor(spec.Type)
		if err != nil {
			errs.Append(asResolutionError(err).WithComponent(spec.Name))
			r.metrics.RecordComponentFailure(spec.Type, string(KindUnknownComponentType))
			continue
		}

		cfg, err := builder.Build(config.BuildRequest{
			Spec:         *spec,
			Context:      envCtx,
			Schema:       desc.ConfigSchema,
			Fallback:     desc.Fallback,
			EnvOverrides: env.Overrides[spec.Name],
			Patches:      m.PatchesFor(spec.Name),
		})
		if err != nil {
			for _, re := range buildErrors(spec.Name, err) {
				errs.Append(re)
				r.metrics.RecordComponentFailure(spec.Type, string(re.Kind))
			}
			continue
		}

		handle, err := desc.Factory(envCtx, cfg)
		if err != nil {
			errs.Append(Errorf(KindInternal, "instantiating component %s failed", spec.Name).
				WithComponent(spec.Name).WithCause(err))
			r.metrics.RecordComponentFailure(spec.Type, string(KindInternal))
			continue
		}

		result.Components = append(result.Components, &ResolvedComponent{
			Spec:   *spec,
			Config: cfg,
			Handle: handle,
		})
		r.metrics.RecordComponentResolved(spec.Type)
		log.WithComponent(spec.Name, spec.Type).Debug("Component instantiated")
	}
	return errs.Err()
}

// bind resolves every declared binding against instantiated producers and
// attaches the synthesized grants. Like instantiation, failures are collected.
func (r *Resolver) bind(m *manifest.ServiceManifest, result *ResolutionResult, log *telemetry.Logger) error {
	var errs ErrorList
	for _, b := range m.AllBindings() {
		consumer, ok := result.Component(b.From)
		if !ok {
			errs.Append(Errorf(KindInternal, "binding consumer %s was not instantiated", b.From).
				WithComponent(b.From))
			continue
		}
		producer, ok := result.Component(b.To)
		if !ok {
			errs.Append(Errorf(KindInternal, "binding producer %s was not instantiated", b.To).
				WithComponent(b.From))
			continue
		}

		grant, err := r.bindingResolver.Resolve(b, producer.Handle)
		if err != nil {
			errs.Append(asResolutionError(err))
			r.metrics.RecordBindingFailure(b.Capability)
			r.metrics.RecordError(string(KindCapabilityMismatch))
			continue
		}

		consumer.Grants = append(consumer.Grants, *grant)
		result.Grants = append(result.Grants, *grant)
		r.metrics.RecordGrantIssued(grant.Capability, grant.Access)
		log.WithComponent(b.From, consumer.Spec.Type).
			WithField("capability", b.Capability).
			WithField("access", b.Access).
			Debug("Access grant issued")
	}
	return errs.Err()
}

// buildErrors maps a config builder failure to resolution errors, one per
// field problem, splitting plain schema violations from cross-field
// invariant violations.
func buildErrors(component string, err error) []*ResolutionError {
	failure, ok := err.(*config.BuildFailure)
	if !ok {
		return []*ResolutionError{
			Errorf(KindInternal, "resolving configuration for component %s failed", component).
				WithComponent(component).WithCause(err),
		}
	}

	var out []*ResolutionError
	for _, fe := range failure.SchemaErrors {
		out = append(out, NewError(KindSchemaValidation, fe.Message).
			WithComponent(component).WithPath(fe.Path))
	}
	for _, fe := range failure.InvariantErrors {
		out = append(out, NewError(KindCrossFieldInvariant, fe.Message).
			WithComponent(component).WithPath(fe.Path))
	}
	return out
}

// recordKinds feeds every resolution error in err into the error-kind metric.
func (r *Resolver) recordKinds(err error) {
	if list, ok := err.(*ErrorList); ok {
		for _, e := range list.Errors() {
			r.metrics.RecordError(string(e.Kind))
		}
		return
	}
	r.metrics.RecordError(string(KindOf(err)))
}

// asResolutionError normalizes an error into a *ResolutionError.
func asResolutionError(err error) *ResolutionError {
	if re, ok := err.(*ResolutionError); ok {
		return re
	}
	return NewError(KindInternal, err.Error()).WithCause(err)
}
