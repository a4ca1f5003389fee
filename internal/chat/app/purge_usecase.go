package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"textflow/internal/chat/domain"
	"textflow/internal/chat/repository"
	"textflow/pkg/logger"
)

// PurgeResult counts removed by one sweep, for observability
type PurgeResult struct {
	Members int64 `json:"members"`
	Rooms   int64 `json:"rooms"`
}

// PurgeUseCase 定時清掃過期房與失聯成員
type PurgeUseCase interface {
	// Sweep 先清成員再清房，兩步皆冪等，重跑收斂
	Sweep(ctx context.Context) (PurgeResult, error)
	// RunScheduler 以固定週期跑 Sweep，ctx 取消即停
	RunScheduler(ctx context.Context, interval time.Duration)
}

type purgeUseCase struct {
	roomRepo repository.RoomRepository

	now func() time.Time
}

// NewPurgeUseCase create a PurgeUseCase
func NewPurgeUseCase(roomRepo repository.RoomRepository) PurgeUseCase {
	return &purgeUseCase{
		roomRepo: roomRepo,
		now:      time.Now,
	}
}

// Sweep 2 分鐘沒心跳就當斷線，比 1 小時房間壽命嚴格得多；
// 優雅離開走 LeaveRoom，這裡收的是關瀏覽器沒發 leave 的房
func (uc *purgeUseCase) Sweep(ctx context.Context) (PurgeResult, error) {
	now := uc.now()
	idleCutoff := now.Add(-domain.MemberIdleTimeout)

	var result PurgeResult
	members, err := uc.roomRepo.PurgeIdleMembers(ctx, now, idleCutoff)
	if err != nil {
		return result, err
	}
	result.Members = members

	rooms, err := uc.roomRepo.PurgeDeadRooms(ctx, now)
	if err != nil {
		return result, err
	}
	result.Rooms = rooms

	if result.Members > 0 || result.Rooms > 0 {
		logger.Log.Info("purge sweep done",
			zap.Int64("members", result.Members), zap.Int64("rooms", result.Rooms))
	}
	return result, nil
}

func (uc *purgeUseCase) RunScheduler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := uc.Sweep(ctx); err != nil {
				// best-effort，下一輪再試
				logger.Log.Error("purge sweep failed", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Log.Info("purge scheduler stopped")
			return
		}
	}
}
