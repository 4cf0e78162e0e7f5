package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MapCache keeps resolved maps per user
type MapCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*access.PermissionMap, bool, error)
	Set(ctx context.Context, userID uuid.UUID, m *access.PermissionMap) error
}

// PermissionService resolves a user's map from the grants of their roles and
// replaces role grants.
type PermissionService struct {
	roles     access.RoleRepository
	cache     MapCache
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewPermissionService creates the service. cache and publisher may be nil.
func NewPermissionService(roles access.RoleRepository, cache MapCache, publisher shared.EventPublisher, logger *zap.Logger) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionService{
		roles:     roles,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// ResolveForUser returns the union of the grants of every role the user holds.
// A user without roles gets an empty, resolved map.
func (s *PermissionService) ResolveForUser(ctx context.Context, userID uuid.UUID) (*access.PermissionMap, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "PermissionService", "ResolveForUser",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, userID.String()))
	defer span.End()

	if s.cache != nil {
		m, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("Permission cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
		} else if ok {
			telemetry.AddEvent(span, "cache.hit")
			return m, nil
		}
	}

	roles, err := s.roles.FindByUser(ctx, userID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load roles: %w", err)
	}
	var grants []access.Grant
	for _, r := range roles {
		grants = append(grants, r.Grants...)
	}
	m := access.BuildPermissionMap(grants)

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, m); err != nil {
			s.logger.Warn("Permission cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return m, nil
}

// ReplaceGrants swaps the grant set of a role and publishes the change so
// that cached maps of its holders are dropped.
func (s *PermissionService) ReplaceGrants(ctx context.Context, companyID, roleID uuid.UUID, grants []access.Grant) (*access.Role, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "PermissionService", "ReplaceGrants",
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, companyID.String()))
	defer span.End()

	role, err := s.roles.FindByID(ctx, companyID, roleID)
	if err != nil {
		return nil, fmt.Errorf("role %s: %w", roleID, err)
	}
	if err := role.ReplaceGrants(grants); err != nil {
		return nil, err
	}
	if err := s.roles.Save(ctx, role); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("save role: %w", err)
	}

	events := role.GetDomainEvents()
	role.ClearDomainEvents()
	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Error("Failed to publish grant change",
				zap.String("role_id", role.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("Role grants replaced",
		zap.String("role_id", role.ID.String()),
		zap.Int("grants", len(role.Grants)))
	return role, nil
}
