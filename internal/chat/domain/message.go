package domain

import "time"

// ChatMessage 表示一則聊天訊息
// ID 是全域遞增序號 (bigserial)，同時是訊息排序鍵。
// Nickname 是發送當下的快照，之後改暱稱不影響歷史訊息。
type ChatMessage struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	RoomID    uint64    `gorm:"not null;index" json:"room_id"`
	MemberID  string    `gorm:"type:varchar(64);not null" json:"member_id"`
	Nickname  string    `gorm:"type:varchar(20);not null" json:"nickname"`
	Content   string    `gorm:"type:varchar(500);not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName gorm table name
func (ChatMessage) TableName() string { return "chat_messages" }

// AuditEventKind definition audit event kind
type AuditEventKind string

const (
	// AuditCreate room created
	AuditCreate AuditEventKind = "create"
	// AuditJoin member joined
	AuditJoin AuditEventKind = "join"
	// AuditLeave member left (payload carries whether the room was destroyed)
	AuditLeave AuditEventKind = "leave"
	// AuditExpired room flipped to closed by lazy expiry
	AuditExpired AuditEventKind = "expired"
	// AuditError unexpected failure worth recording
	AuditError AuditEventKind = "error"
)

// AuditEvent append-only lifecycle record. Writes are fire-and-forget:
// a failed insert must never abort the operation that produced it.
// RoomID 在房間被刪除後由 FK 置為 NULL，事件本身保留。
type AuditEvent struct {
	ID        uint64         `gorm:"primaryKey" json:"id"`
	Kind      AuditEventKind `gorm:"type:varchar(16);not null;index" json:"kind"`
	MemberID  string         `gorm:"type:varchar(64)" json:"member_id"`
	RoomID    *uint64        `gorm:"index" json:"room_id,omitempty"`
	Room      *Room          `gorm:"foreignKey:RoomID;constraint:OnDelete:SET NULL" json:"-"`
	Payload   string         `gorm:"type:jsonb" json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName gorm table name
func (AuditEvent) TableName() string { return "audit_events" }
