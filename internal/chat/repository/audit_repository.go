package repository

import (
	"context"

	"gorm.io/gorm"

	"textflow/internal/chat/domain"
)

// AuditRepository definition append-only audit event log
// 呼叫端負責 fire-and-forget：這裡的錯誤不可以讓主要操作失敗。
type AuditRepository interface {
	Append(ctx context.Context, event *domain.AuditEvent) error
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository create an AuditRepository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, event *domain.AuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
