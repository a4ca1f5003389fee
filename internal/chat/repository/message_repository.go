package repository

import (
	"context"

	"gorm.io/gorm"

	"textflow/internal/chat/domain"
)

// MessageRepository definition chat message persistence
type MessageRepository interface {
	// Insert 寫入一筆訊息，序號由 DB 全域序列產生
	Insert(ctx context.Context, msg *domain.ChatMessage) error
	// ListAfter 取出序號大於 afterID 的訊息，升序。斷線重連補洞用。
	ListAfter(ctx context.Context, roomID, afterID uint64, limit int) ([]domain.ChatMessage, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository create a MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) ListAfter(ctx context.Context, roomID, afterID uint64, limit int) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	q := r.db.WithContext(ctx).
		Where("room_id = ? AND id > ?", roomID, afterID).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
