package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"textflow/internal/chat/domain"
	"textflow/pkg/logger"
)

func TestPurgeUseCase_Sweep(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	idleCutoff := testNow.Add(-domain.MemberIdleTimeout)

	t.Run("先清失聯成員再清死房", func(t *testing.T) {
		roomRepo := new(MockRoomRepo)
		uc := &purgeUseCase{roomRepo: roomRepo, now: func() time.Time { return testNow }}

		var membersDone bool
		roomRepo.On("PurgeIdleMembers", ctx, testNow, idleCutoff).
			Run(func(args mock.Arguments) { membersDone = true }).Return(int64(3), nil)
		roomRepo.On("PurgeDeadRooms", ctx, testNow).
			Run(func(args mock.Arguments) {
				assert.True(t, membersDone, "idle members must be purged before rooms")
			}).Return(int64(2), nil)

		result, err := uc.Sweep(ctx)
		assert.NoError(t, err)
		assert.Equal(t, PurgeResult{Members: 3, Rooms: 2}, result)
	})

	t.Run("沒東西可清也正常收斂", func(t *testing.T) {
		roomRepo := new(MockRoomRepo)
		uc := &purgeUseCase{roomRepo: roomRepo, now: func() time.Time { return testNow }}

		roomRepo.On("PurgeIdleMembers", ctx, testNow, idleCutoff).Return(int64(0), nil)
		roomRepo.On("PurgeDeadRooms", ctx, testNow).Return(int64(0), nil)

		result, err := uc.Sweep(ctx)
		assert.NoError(t, err)
		assert.Equal(t, PurgeResult{}, result)
	})

	t.Run("清成員失敗就不碰房間", func(t *testing.T) {
		roomRepo := new(MockRoomRepo)
		uc := &purgeUseCase{roomRepo: roomRepo, now: func() time.Time { return testNow }}

		roomRepo.On("PurgeIdleMembers", ctx, testNow, idleCutoff).Return(int64(0), assert.AnError)

		_, err := uc.Sweep(ctx)
		assert.Error(t, err)
		roomRepo.AssertNotCalled(t, "PurgeDeadRooms", mock.Anything, mock.Anything)
	})
}

func TestPurgeUseCase_RunScheduler(t *testing.T) {
	logger.SetNewNop()

	roomRepo := new(MockRoomRepo)
	uc := &purgeUseCase{roomRepo: roomRepo, now: time.Now}

	roomRepo.On("PurgeIdleMembers", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	roomRepo.On("PurgeDeadRooms", mock.Anything, mock.Anything).Return(int64(0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		uc.RunScheduler(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after ctx cancel")
	}
	roomRepo.AssertCalled(t, "PurgeIdleMembers", mock.Anything, mock.Anything, mock.Anything)
}
