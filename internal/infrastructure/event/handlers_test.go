package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHolders struct{ mock.Mock }

func (m *mockHolders) FindUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, roleID)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

type mockInvalidator struct{ mock.Mock }

func (m *mockInvalidator) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	return m.Called(ctx, userIDs).Error(0)
}

type mockRevoker struct{ mock.Mock }

func (m *mockRevoker) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	return m.Called(ctx, userID, ttl).Error(0)
}

func TestGrantsChangedHandler_InvalidatesAndRevokes(t *testing.T) {
	ctx := context.Background()
	roleID := uuid.New()
	users := []uuid.UUID{uuid.New(), uuid.New()}

	holders := new(mockHolders)
	holders.On("FindUserIDsByRole", ctx, roleID).Return(users, nil)
	inv := new(mockInvalidator)
	inv.On("Invalidate", ctx, users).Return(nil)
	rev := new(mockRevoker)
	for _, u := range users {
		rev.On("RevokeUser", ctx, u.String(), time.Hour).Return(nil)
	}

	h := NewGrantsChangedHandler(holders, inv, rev, time.Hour, nil)
	require.NoError(t, h.Handle(ctx, access.NewGrantsChangedEvent(roleID, uuid.New())))

	holders.AssertExpectations(t)
	inv.AssertExpectations(t)
	rev.AssertExpectations(t)
}

func TestGrantsChangedHandler_NoHolders(t *testing.T) {
	ctx := context.Background()
	holders := new(mockHolders)
	holders.On("FindUserIDsByRole", ctx, mock.Anything).Return([]uuid.UUID{}, nil)
	inv := new(mockInvalidator)

	h := NewGrantsChangedHandler(holders, inv, nil, time.Hour, nil)
	require.NoError(t, h.Handle(ctx, access.NewGrantsChangedEvent(uuid.New(), uuid.New())))
	inv.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestGrantsChangedHandler_JoinsErrors(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	holders := new(mockHolders)
	holders.On("FindUserIDsByRole", ctx, mock.Anything).Return([]uuid.UUID{user}, nil)
	inv := new(mockInvalidator)
	inv.On("Invalidate", ctx, mock.Anything).Return(errors.New("redis down"))
	rev := new(mockRevoker)
	rev.On("RevokeUser", ctx, user.String(), time.Minute).Return(nil)

	h := NewGrantsChangedHandler(holders, inv, rev, time.Minute, nil)
	err := h.Handle(ctx, access.NewGrantsChangedEvent(uuid.New(), uuid.New()))
	assert.ErrorContains(t, err, "redis down")
	rev.AssertExpectations(t)
}

func TestGrantsChangedHandler_RejectsOtherEvents(t *testing.T) {
	h := NewGrantsChangedHandler(new(mockHolders), new(mockInvalidator), nil, 0, nil)
	assert.Error(t, h.Handle(context.Background(), newTestEvent(access.EventTypeGrantsChanged)))
}

type countingPayments struct{ payments, reversals int }

func (c *countingPayments) RecordPayment(_ context.Context, reversal bool) {
	if reversal {
		c.reversals++
		return
	}
	c.payments++
}

func TestPaymentRecordedHandler(t *testing.T) {
	counter := &countingPayments{}
	h := NewPaymentRecordedHandler(counter)
	bus := NewInMemoryEventBus(nil)
	bus.Subscribe(h)

	pay, err := billing.NewPaymentRecord(uuid.New(), uuid.New(), billing.PaymentInput{Amount: valueobject.MustMoney("100", valueobject.INR)})
	require.NoError(t, err)
	rev, err := billing.NewPaymentRecord(uuid.New(), uuid.New(), billing.PaymentInput{Amount: valueobject.MustMoney("-40", valueobject.INR), Reason: "bounced cheque"})
	require.NoError(t, err)

	_ = bus.Publish(context.Background(), billing.NewPaymentRecordedEvent(pay), billing.NewPaymentRecordedEvent(rev))
	assert.Equal(t, 1, counter.payments)
	assert.Equal(t, 1, counter.reversals)
}
