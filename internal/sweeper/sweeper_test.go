package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-realty-platform/auth-service/mocks"
)

func TestRunOnce_ReturnsDeletedCount(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	st.EXPECT().DeleteExpiredTokens(gomock.Any(), gomock.Any()).Return(int64(7), nil)

	sw := New(st, time.Minute, nil)

	deleted, err := sw.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(7), deleted)
}

func TestRunOnce_PropagatesStorageError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	st.EXPECT().DeleteExpiredTokens(gomock.Any(), gomock.Any()).
		Return(int64(0), errors.New("db down"))

	sw := New(st, time.Minute, nil)

	_, err := sw.RunOnce(context.Background())
	require.Error(t, err)
}

func TestRun_ZeroInterval_NoOp(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Ни одного обращения к хранилищу не ожидается.
	st := mocks.NewMockStorage(ctrl)
	sw := New(st, 0, nil)

	done := make(chan struct{})
	go func() {
		sw.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with zero interval must return immediately")
	}
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var calls atomic.Int64

	st := mocks.NewMockStorage(ctrl)
	st.EXPECT().DeleteExpiredTokens(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) (int64, error) {
			calls.Add(1)
			return 0, nil
		}).MinTimes(2)

	ctx, cancel := context.WithCancel(context.Background())
	sw := New(st, 10*time.Millisecond, nil)

	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run must stop after context cancellation")
	}
}
