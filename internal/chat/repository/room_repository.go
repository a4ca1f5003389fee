package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"textflow/internal/chat/domain"
)

// 倉庫層錯誤，由 use case 轉成業務錯誤
var (
	// ErrRoomNotFound no matching room row
	ErrRoomNotFound = errors.New("room not found")
	// ErrMemberNotFound no matching membership row
	ErrMemberNotFound = errors.New("room member not found")
	// ErrDuplicateCode an active room already holds the code
	ErrDuplicateCode = errors.New("duplicate active room code")
)

// RoomRepository definition room / membership persistence
type RoomRepository interface {
	AutoMigrate() error
	// CloseExpired 把已過期仍是 active 的房間改為 closed (lazy expiry)
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
	// CreateRoom insert-on-conflict; 代碼與現存 active 房撞號時回 ErrDuplicateCode
	CreateRoom(ctx context.Context, room *domain.Room) error
	// FindActiveByCode newest active, non-expired room holding the code
	FindActiveByCode(ctx context.Context, code string, now time.Time) (*domain.Room, error)
	// FindUsableByID active, non-expired room by id
	FindUsableByID(ctx context.Context, roomID uint64, now time.Time) (*domain.Room, error)
	// UpsertMember insert membership or refresh last_seen_at (idempotent rejoin)
	UpsertMember(ctx context.Context, member *domain.RoomMember) error
	FindMember(ctx context.Context, roomID uint64, memberID string) (*domain.RoomMember, error)
	// UpdateNickname set nickname and refresh last_seen_at; ErrMemberNotFound on zero rows
	UpdateNickname(ctx context.Context, roomID uint64, memberID, nickname string, now time.Time) error
	// TouchMember refresh last_seen_at; ErrMemberNotFound on zero rows
	TouchMember(ctx context.Context, roomID uint64, memberID string, now time.Time) error
	// RemoveMember delete membership and report how many members remain
	RemoveMember(ctx context.Context, roomID uint64, memberID string) (removed bool, remaining int64, err error)
	// DeleteIfEmpty delete the room only if it still has zero members
	DeleteIfEmpty(ctx context.Context, roomID uint64) (bool, error)
	// PurgeIdleMembers delete members of dead rooms and members idle past the cutoff
	PurgeIdleMembers(ctx context.Context, now, idleCutoff time.Time) (int64, error)
	// PurgeDeadRooms delete rooms that are expired, non-active, or empty
	PurgeDeadRooms(ctx context.Context, now time.Time) (int64, error)
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository create a RoomRepository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

// AutoMigrate create tables plus the partial unique index that guarantees
// at most one active room per code. 一般 unique index 不行，closed 房要能重用代碼。
func (r *roomRepository) AutoMigrate() error {
	if err := r.db.AutoMigrate(
		&domain.Room{},
		&domain.RoomMember{},
		&domain.ChatMessage{},
		&domain.JoinAttempt{},
		&domain.AuditEvent{},
	); err != nil {
		return err
	}
	return r.db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_active_code ON rooms (code) WHERE status = 'active'`,
	).Error
}

func (r *roomRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("status = ? AND expires_at <= ?", domain.RoomStatusActive, now).
		Update("status", domain.RoomStatusClosed)
	return res.RowsAffected, res.Error
}

func (r *roomRepository) CreateRoom(ctx context.Context, room *domain.Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (r *roomRepository) FindActiveByCode(ctx context.Context, code string, now time.Time) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).
		Where("code = ? AND status = ? AND expires_at > ?", code, domain.RoomStatusActive, now).
		Order("created_at DESC").
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindUsableByID(ctx context.Context, roomID uint64, now time.Time) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).
		Where("id = ? AND status = ? AND expires_at > ?", roomID, domain.RoomStatusActive, now).
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// UpsertMember 已是成員時只更新 last_seen_at，joined_at 與 nickname 不動
func (r *roomRepository) UpsertMember(ctx context.Context, member *domain.RoomMember) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "member_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seen_at"}),
	}).Create(member).Error
}

func (r *roomRepository) FindMember(ctx context.Context, roomID uint64, memberID string) (*domain.RoomMember, error) {
	var member domain.RoomMember
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND member_id = ?", roomID, memberID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *roomRepository) UpdateNickname(ctx context.Context, roomID uint64, memberID, nickname string, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.RoomMember{}).
		Where("room_id = ? AND member_id = ?", roomID, memberID).
		Updates(map[string]interface{}{"nickname": nickname, "last_seen_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *roomRepository) TouchMember(ctx context.Context, roomID uint64, memberID string, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.RoomMember{}).
		Where("room_id = ? AND member_id = ?", roomID, memberID).
		Update("last_seen_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// RemoveMember 刪除成員並回傳剩餘人數，兩步在同一交易內
func (r *roomRepository) RemoveMember(ctx context.Context, roomID uint64, memberID string) (bool, int64, error) {
	var (
		removed   bool
		remaining int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("room_id = ? AND member_id = ?", roomID, memberID).
			Delete(&domain.RoomMember{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		if !removed {
			return nil
		}
		return tx.Model(&domain.RoomMember{}).
			Where("room_id = ?", roomID).
			Count(&remaining).Error
	})
	return removed, remaining, err
}

// DeleteIfEmpty 帶守衛條件的刪除，與並發 join 競爭時寧可不刪 (purge 會收斂)
func (r *roomRepository) DeleteIfEmpty(ctx context.Context, roomID uint64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`DELETE FROM rooms WHERE id = ? AND NOT EXISTS (SELECT 1 FROM room_members WHERE room_id = rooms.id)`,
		roomID,
	)
	return res.RowsAffected > 0, res.Error
}

func (r *roomRepository) PurgeIdleMembers(ctx context.Context, now, idleCutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`DELETE FROM room_members m USING rooms r
		 WHERE m.room_id = r.id
		   AND (r.expires_at <= ? OR r.status <> ? OR m.last_seen_at < ?)`,
		now, domain.RoomStatusActive, idleCutoff,
	)
	return res.RowsAffected, res.Error
}

func (r *roomRepository) PurgeDeadRooms(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`DELETE FROM rooms
		 WHERE expires_at <= ? OR status <> ?
		    OR NOT EXISTS (SELECT 1 FROM room_members WHERE room_id = rooms.id)`,
		now, domain.RoomStatusActive,
	)
	return res.RowsAffected, res.Error
}
