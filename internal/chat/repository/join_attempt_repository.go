package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"textflow/internal/chat/domain"
)

// JoinAttemptRepository definition join rate-limit ledger
// 只做滑動視窗計數，寫入後不再讀取個別列。
type JoinAttemptRepository interface {
	Record(ctx context.Context, attempt *domain.JoinAttempt) error
	CountByMemberSince(ctx context.Context, memberID string, since time.Time) (int64, error)
	CountByIPSince(ctx context.Context, ip string, since time.Time) (int64, error)
}

type joinAttemptRepository struct {
	db *gorm.DB
}

// NewJoinAttemptRepository create a JoinAttemptRepository
func NewJoinAttemptRepository(db *gorm.DB) JoinAttemptRepository {
	return &joinAttemptRepository{db: db}
}

func (r *joinAttemptRepository) Record(ctx context.Context, attempt *domain.JoinAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *joinAttemptRepository) CountByMemberSince(ctx context.Context, memberID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.JoinAttempt{}).
		Where("member_id = ? AND created_at >= ?", memberID, since).
		Count(&count).Error
	return count, err
}

func (r *joinAttemptRepository) CountByIPSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.JoinAttempt{}).
		Where("ip = ? AND created_at >= ?", ip, since).
		Count(&count).Error
	return count, err
}
