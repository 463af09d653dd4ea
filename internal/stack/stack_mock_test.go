package stack

import (
	"context"
	"errors"
	"testing"

	"ordstack/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) Load(ctx context.Context, id int64) (order.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(order.Record), args.Error(1)
}

func (m *MockOrderStore) Save(ctx context.Context, id int64, rec order.Record, overwrite bool) error {
	args := m.Called(ctx, id, rec, overwrite)
	return args.Error(0)
}

func (m *MockOrderStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderStore) ListIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func TestPutPropagatesStoreFailure(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("disk full")

	ms := new(MockOrderStore)
	ms.On("ListIDs", ctx).Return([]int64{}, nil)
	ms.On("Save", ctx, int64(1), mock.Anything, false).Return(storeErr)

	s, err := New(ctx, "instrument", ms)
	require.NoError(t, err)

	_, err = s.Put(ctx, order.New(order.InstrumentKey{Instrument: "EDOLLAR"}, order.SingleLeg(10)))
	assert.ErrorIs(t, err, storeErr)
	ms.AssertExpectations(t)
}

func TestPutRetryableAfterStoreFailure(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("disk full")

	ms := new(MockOrderStore)
	ms.On("ListIDs", ctx).Return([]int64{}, nil)
	ms.On("Save", ctx, int64(1), mock.Anything, false).Return(storeErr).Once()
	ms.On("Save", ctx, int64(1), mock.Anything, false).Return(nil).Once()

	s, err := New(ctx, "instrument", ms)
	require.NoError(t, err)

	o := order.New(order.InstrumentKey{Instrument: "EDOLLAR"}, order.SingleLeg(10))
	_, err = s.Put(ctx, o)
	require.ErrorIs(t, err, storeErr)
	assert.False(t, o.HasID())

	id, err := s.Put(ctx, o)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, id, o.ID())
	ms.AssertExpectations(t)
}

func TestOpenPropagatesStoreFailure(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("corrupt database")

	ms := new(MockOrderStore)
	ms.On("ListIDs", ctx).Return(nil, storeErr)

	_, err := New(ctx, "instrument", ms)
	assert.ErrorIs(t, err, storeErr)
}
