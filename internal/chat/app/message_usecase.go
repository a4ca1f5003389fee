package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"textflow/internal/chat/domain"
	"textflow/internal/chat/repository"
	"textflow/pkg/logger"
)

// MessagePublisher 發布新訊息事件到房間 channel
type MessagePublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// MessageUseCase 封裝訊息寫入與補洞查詢
type MessageUseCase interface {
	// Send insert 訊息並帶上暱稱快照，成功後發布到房間 channel
	Send(ctx context.Context, memberID string, roomID uint64, content string) (*domain.ChatMessage, error)
	// ListAfter 取序號之後的訊息，重連補洞用。afterID 0 表示整段歷史。
	ListAfter(ctx context.Context, roomID, afterID uint64) ([]domain.ChatMessage, error)
}

type messageUseCase struct {
	roomRepo repository.RoomRepository
	msgRepo  repository.MessageRepository
	pub      MessagePublisher

	now func() time.Time
}

// NewMessageUseCase create a MessageUseCase
func NewMessageUseCase(
	roomRepo repository.RoomRepository,
	msgRepo repository.MessageRepository,
	pub MessagePublisher,
) MessageUseCase {
	return &messageUseCase{
		roomRepo: roomRepo,
		msgRepo:  msgRepo,
		pub:      pub,
		now:      time.Now,
	}
}

func (uc *messageUseCase) Send(ctx context.Context, memberID string, roomID uint64, content string) (*domain.ChatMessage, error) {
	if memberID == "" {
		return nil, domain.ErrAuthRequired
	}
	content, err := domain.NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	now := uc.now()

	if _, err := uc.roomRepo.FindUsableByID(ctx, roomID, now); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, domain.ErrRoomMemberNotFound
		}
		return nil, err
	}
	member, err := uc.roomRepo.FindMember(ctx, roomID, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, domain.ErrRoomMemberNotFound
		}
		return nil, err
	}
	if !member.HasNickname() {
		return nil, domain.ErrNicknameRequired
	}

	msg := &domain.ChatMessage{
		RoomID:    roomID,
		MemberID:  memberID,
		Nickname:  member.Nickname, // 快照，之後改暱稱不影響
		Content:   content,
		CreatedAt: now,
	}
	if err := uc.msgRepo.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	// 發訊也算活動，刷新 last_seen_at
	if err := uc.roomRepo.TouchMember(ctx, roomID, memberID, now); err != nil {
		logger.Log.Warn("touch on send failed", zap.Uint64("room_id", roomID), zap.Error(err))
	}

	// 通知 channel 是 best-effort，訊息已落庫，訂閱端可用 ListAfter 補洞
	if err := uc.pub.Publish(ctx, domain.RoomChannel(roomID), msg); err != nil {
		logger.Log.Warn("publish message event failed",
			zap.Uint64("room_id", roomID), zap.Uint64("message_id", msg.ID), zap.Error(err))
	}
	return msg, nil
}

func (uc *messageUseCase) ListAfter(ctx context.Context, roomID, afterID uint64) ([]domain.ChatMessage, error) {
	return uc.msgRepo.ListAfter(ctx, roomID, afterID, 0)
}
