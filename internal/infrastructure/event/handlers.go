package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RoleHolders finds the users affected by a role change
type RoleHolders interface {
	FindUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)
}

// PermissionInvalidator drops cached permission maps
type PermissionInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...uuid.UUID) error
}

// SessionRevoker revokes every token a user holds
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
}

// GrantsChangedHandler makes a grant change visible: cached maps of the
// role's holders are dropped and, when a revoker is set, their sessions are
// revoked so that clients re-resolve on the next login.
type GrantsChangedHandler struct {
	holders    RoleHolders
	cache      PermissionInvalidator
	revoker    SessionRevoker
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewGrantsChangedHandler creates the handler. revoker may be nil.
func NewGrantsChangedHandler(holders RoleHolders, cache PermissionInvalidator, revoker SessionRevoker, sessionTTL time.Duration, logger *zap.Logger) *GrantsChangedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrantsChangedHandler{
		holders:    holders,
		cache:      cache,
		revoker:    revoker,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

func (h *GrantsChangedHandler) EventTypes() []string {
	return []string{access.EventTypeGrantsChanged}
}

func (h *GrantsChangedHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	changed, ok := ev.(*access.GrantsChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", ev)
	}
	users, err := h.holders.FindUserIDsByRole(ctx, changed.RoleID)
	if err != nil {
		return fmt.Errorf("find holders of role %s: %w", changed.RoleID, err)
	}
	if len(users) == 0 {
		return nil
	}

	errs := []error{h.cache.Invalidate(ctx, users...)}
	if h.revoker != nil {
		for _, u := range users {
			errs = append(errs, h.revoker.RevokeUser(ctx, u.String(), h.sessionTTL))
		}
	}
	h.logger.Info("Permission maps invalidated",
		zap.String("role_id", changed.RoleID.String()),
		zap.Int("users", len(users)),
	)
	return errors.Join(errs...)
}

// PaymentCounter records appended payment entries
type PaymentCounter interface {
	RecordPayment(ctx context.Context, reversal bool)
}

// PaymentRecordedHandler feeds payment metrics
type PaymentRecordedHandler struct {
	counter PaymentCounter
}

// NewPaymentRecordedHandler creates the handler
func NewPaymentRecordedHandler(counter PaymentCounter) *PaymentRecordedHandler {
	return &PaymentRecordedHandler{counter: counter}
}

func (h *PaymentRecordedHandler) EventTypes() []string {
	return []string{billing.EventTypePaymentRecorded}
}

func (h *PaymentRecordedHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	recorded, ok := ev.(*billing.PaymentRecordedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", ev)
	}
	h.counter.RecordPayment(ctx, recorded.Reversal)
	return nil
}
