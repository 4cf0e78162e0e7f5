package access

import (
	"context"

	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DecisionRecorder counts guard decisions
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, outcome, capability string)
}

// Guard applies access.Evaluate as a hard gate (before protected work starts)
// and as a soft gate (again after every map swap).
type Guard struct {
	policy  access.FallbackPolicy
	metrics DecisionRecorder
	logger  *zap.Logger
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithDecisionRecorder counts every decision
func WithDecisionRecorder(r DecisionRecorder) GuardOption {
	return func(g *Guard) {
		g.metrics = r
	}
}

// NewGuard creates a guard using the given fallback policy
func NewGuard(policy access.FallbackPolicy, logger *zap.Logger, opts ...GuardOption) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Guard{policy: policy, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Policy returns the fallback policy
func (g *Guard) Policy() access.FallbackPolicy {
	return g.policy
}

// Check decides req against m
func (g *Guard) Check(ctx context.Context, m *access.PermissionMap, req access.Requirement) access.Decision {
	d := access.Evaluate(m, req, g.policy)
	g.observe(ctx, req, d)
	return d
}

// CheckContext decides req against the map carried on ctx
func (g *Guard) CheckContext(ctx context.Context, req access.Requirement) access.Decision {
	return g.Check(ctx, PermissionsFrom(ctx), req)
}

// Watch re-evaluates req whenever the store swaps its map and hands the new
// decision to fn. The first call happens immediately with the current map.
// The returned function stops watching.
func (g *Guard) Watch(ctx context.Context, store *PermissionStore, req access.Requirement, fn func(access.Decision)) func() {
	stop := store.Subscribe(func(m *access.PermissionMap) {
		fn(g.Check(ctx, m, req))
	})
	fn(g.Check(ctx, store.Current(), req))
	return stop
}

func (g *Guard) observe(ctx context.Context, req access.Requirement, d access.Decision) {
	if g.metrics != nil {
		g.metrics.RecordDecision(ctx, d.Outcome.String(), req.Capability.String())
	}
	if d.Allowed() {
		return
	}
	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "access.denied",
		telemetry.SpanAttrCapability, req.Capability.String(),
		telemetry.SpanAttrDecision, d.Outcome.String())
	g.logger.Debug("Access denied",
		zap.String("capability", req.Capability.String()),
		zap.String("resource_id", req.ResourceID),
		zap.Stringer("outcome", d.Outcome),
		zap.String("target", string(d.Target)),
		zap.String("reason", string(d.Reason)))
}
