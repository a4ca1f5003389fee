package app

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"textflow/internal/chat/domain"
	"textflow/internal/chat/repository"
	"textflow/pkg/logger"
)

// RoomUseCase 封裝聊天室生命週期的應用服務
type RoomUseCase interface {
	// CreateRoom reserve a unique 4-digit code and add the caller as first member
	CreateRoom(ctx context.Context, memberID string) (*domain.Room, error)
	// JoinRoom attach the caller to the newest active room holding the code
	JoinRoom(ctx context.Context, memberID, code, clientIP string) (*domain.Room, error)
	// SetNickname set the caller's per-room nickname (required before sending)
	SetNickname(ctx context.Context, memberID string, roomID uint64, nickname string) (string, error)
	// Touch best-effort heartbeat, silent on membership/room mismatch
	Touch(ctx context.Context, memberID string, roomID uint64) error
	// LeaveRoom remove the caller; destroys the room when it was the last member
	LeaveRoom(ctx context.Context, memberID string, roomID uint64) (destroyed bool, err error)
}

type roomUseCase struct {
	roomRepo    repository.RoomRepository
	attemptRepo repository.JoinAttemptRepository
	auditRepo   repository.AuditRepository

	// 注入時鐘，測試時才能模擬過期與限流視窗
	now func() time.Time
}

// NewRoomUseCase create a RoomUseCase
func NewRoomUseCase(
	roomRepo repository.RoomRepository,
	attemptRepo repository.JoinAttemptRepository,
	auditRepo repository.AuditRepository,
) RoomUseCase {
	return &roomUseCase{
		roomRepo:    roomRepo,
		attemptRepo: attemptRepo,
		auditRepo:   auditRepo,
		now:         time.Now,
	}
}

// CreateRoom 先懶過期，再用隨機代碼 insert-on-conflict，撞號就換號重試
func (uc *roomUseCase) CreateRoom(ctx context.Context, memberID string) (*domain.Room, error) {
	if memberID == "" {
		return nil, domain.ErrAuthRequired
	}
	now := uc.now()

	// lazy expiry: 過期房先關掉，partial unique index 才不會擋住合法的新房
	closed, err := uc.roomRepo.CloseExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("close expired rooms: %w", err)
	}
	if closed > 0 {
		logger.Log.Info("closed expired rooms", zap.Int64("count", closed))
		uc.audit(ctx, domain.AuditExpired, "", nil, map[string]interface{}{"count": closed})
	}

	var room *domain.Room
	for attempt := 0; attempt < domain.MaxCodeAttempts; attempt++ {
		code, err := randomRoomCode()
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}
		candidate := &domain.Room{
			Code:      code,
			Status:    domain.RoomStatusActive,
			CreatedAt: now,
			ExpiresAt: now.Add(domain.RoomTTL),
		}
		err = uc.roomRepo.CreateRoom(ctx, candidate)
		if err == nil {
			room = candidate
			break
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			// 1/10000 的撞號，直接換號重試，不退避
			continue
		}
		return nil, err
	}
	if room == nil {
		logger.Log.Error("room code space saturated",
			zap.Int("attempts", domain.MaxCodeAttempts))
		return nil, domain.ErrRoomCreateRetryExceeded
	}

	member := &domain.RoomMember{
		RoomID:     room.ID,
		MemberID:   memberID,
		JoinedAt:   now,
		LastSeenAt: now,
	}
	if err := uc.roomRepo.UpsertMember(ctx, member); err != nil {
		return nil, fmt.Errorf("add creator membership: %w", err)
	}

	uc.audit(ctx, domain.AuditCreate, memberID, &room.ID, map[string]interface{}{"code": room.Code})
	logger.Log.Info("room created",
		zap.Uint64("room_id", room.ID), zap.String("code", room.Code))
	return room, nil
}

// JoinRoom 驗碼 → 限流 → 記錄嘗試 → 找房 → upsert 成員
func (uc *roomUseCase) JoinRoom(ctx context.Context, memberID, code, clientIP string) (*domain.Room, error) {
	if memberID == "" {
		return nil, domain.ErrAuthRequired
	}
	code, err := domain.ValidateRoomCode(code)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	since := now.Add(-domain.JoinRateWindow)

	userCount, err := uc.attemptRepo.CountByMemberSince(ctx, memberID, since)
	if err != nil {
		return nil, fmt.Errorf("count member join attempts: %w", err)
	}
	if userCount >= domain.JoinRateLimit {
		return nil, domain.ErrJoinRateLimitUser
	}
	// 沒有可解析的來源 IP 時不做 IP 限流
	if clientIP != "" {
		ipCount, err := uc.attemptRepo.CountByIPSince(ctx, clientIP, since)
		if err != nil {
			return nil, fmt.Errorf("count ip join attempts: %w", err)
		}
		if ipCount >= domain.JoinRateLimit {
			return nil, domain.ErrJoinRateLimitIP
		}
	}

	// 通過限流就記帳，之後找不找得到房都算一次嘗試
	attempt := &domain.JoinAttempt{MemberID: memberID, IP: clientIP, CreatedAt: now}
	if err := uc.attemptRepo.Record(ctx, attempt); err != nil {
		return nil, fmt.Errorf("record join attempt: %w", err)
	}

	room, err := uc.roomRepo.FindActiveByCode(ctx, code, now)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, domain.ErrRoomNotFoundOrExpired
		}
		return nil, err
	}

	member := &domain.RoomMember{
		RoomID:     room.ID,
		MemberID:   memberID,
		JoinedAt:   now,
		LastSeenAt: now,
	}
	if err := uc.roomRepo.UpsertMember(ctx, member); err != nil {
		return nil, fmt.Errorf("upsert membership: %w", err)
	}

	uc.audit(ctx, domain.AuditJoin, memberID, &room.ID, map[string]interface{}{"code": room.Code})
	return room, nil
}

func (uc *roomUseCase) SetNickname(ctx context.Context, memberID string, roomID uint64, nickname string) (string, error) {
	if memberID == "" {
		return "", domain.ErrAuthRequired
	}
	nickname, err := domain.NormalizeNickname(nickname)
	if err != nil {
		return "", err
	}
	now := uc.now()

	if _, err := uc.roomRepo.FindUsableByID(ctx, roomID, now); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return "", domain.ErrRoomMemberNotFound
		}
		return "", err
	}
	if err := uc.roomRepo.UpdateNickname(ctx, roomID, memberID, nickname, now); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return "", domain.ErrRoomMemberNotFound
		}
		return "", err
	}
	return nickname, nil
}

// Touch 心跳是定時器打的，房間不在了或成員不在了都安靜吞掉
func (uc *roomUseCase) Touch(ctx context.Context, memberID string, roomID uint64) error {
	if memberID == "" {
		return domain.ErrAuthRequired
	}
	now := uc.now()
	if _, err := uc.roomRepo.FindUsableByID(ctx, roomID, now); err != nil {
		return nil
	}
	if err := uc.roomRepo.TouchMember(ctx, roomID, memberID, now); err != nil &&
		!errors.Is(err, repository.ErrMemberNotFound) {
		logger.Log.Warn("heartbeat update failed",
			zap.Uint64("room_id", roomID), zap.Error(err))
	}
	return nil
}

// LeaveRoom 審計要在刪房之前寫，audit_events 以 FK 指向房間
func (uc *roomUseCase) LeaveRoom(ctx context.Context, memberID string, roomID uint64) (bool, error) {
	if memberID == "" {
		return false, domain.ErrAuthRequired
	}

	removed, remaining, err := uc.roomRepo.RemoveMember(ctx, roomID, memberID)
	if err != nil {
		return false, fmt.Errorf("remove membership: %w", err)
	}
	if !removed {
		// 不是成員，no-op 而非錯誤
		return false, nil
	}

	empty := remaining == 0
	uc.audit(ctx, domain.AuditLeave, memberID, &roomID, map[string]interface{}{"destroyed": empty})

	if !empty {
		return false, nil
	}
	destroyed, err := uc.roomRepo.DeleteIfEmpty(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("destroy empty room: %w", err)
	}
	if destroyed {
		logger.Log.Info("room destroyed on last leave", zap.Uint64("room_id", roomID))
	}
	return destroyed, nil
}

// audit fire-and-forget：寫失敗只記 log，絕不讓主要操作失敗
func (uc *roomUseCase) audit(ctx context.Context, kind domain.AuditEventKind, memberID string, roomID *uint64, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}
	event := &domain.AuditEvent{
		Kind:      kind,
		MemberID:  memberID,
		RoomID:    roomID,
		Payload:   string(data),
		CreatedAt: uc.now(),
	}
	if err := uc.auditRepo.Append(ctx, event); err != nil {
		logger.Log.Warn("audit append failed",
			zap.String("kind", string(kind)), zap.Error(err))
	}
}

// randomRoomCode 產生 0000–9999 均勻亂數，補零成 4 碼
func randomRoomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
