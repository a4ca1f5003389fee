package domain

import (
	"regexp"
	"strings"
	"time"
)

// RoomStatus definition room lifecycle state
type RoomStatus string

const (
	// RoomStatusActive room is joinable and usable
	RoomStatusActive RoomStatus = "active"
	// RoomStatusClosed room passed its expiry and was flipped by lazy expiry
	RoomStatusClosed RoomStatus = "closed"
)

const (
	// RoomTTL fixed room lifetime, set once at creation
	RoomTTL = time.Hour
	// MemberIdleTimeout purge cutoff for members that stopped heartbeating
	MemberIdleTimeout = 2 * time.Minute
	// MaxCodeAttempts cap on random code generation before giving up
	MaxCodeAttempts = 30
	// JoinRateWindow trailing window for join rate limiting
	JoinRateWindow = time.Minute
	// JoinRateLimit max join attempts per member / per IP inside the window
	JoinRateLimit = 10
	// NicknameMaxLen max nickname length after trimming
	NicknameMaxLen = 20
	// MessageMaxLen max message content length after trimming
	MessageMaxLen = 500
)

var roomCodePattern = regexp.MustCompile(`^[0-9]{4}$`)

// Room 表示一個以 4 位數字代碼加入的匿名聊天室
type Room struct {
	ID        uint64     `gorm:"primaryKey" json:"id"`
	Code      string     `gorm:"type:char(4);not null;index" json:"code"`
	Status    RoomStatus `gorm:"type:varchar(16);not null;default:active" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`

	Members  []RoomMember  `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
	Messages []ChatMessage `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName gorm table name
func (Room) TableName() string { return "rooms" }

// IsUsable room can be joined / used at the given instant
func (r *Room) IsUsable(now time.Time) bool {
	return r.Status == RoomStatusActive && r.ExpiresAt.After(now)
}

// RoomMember 表示成員與聊天室的關係，一個成員在一個房間內只有一列
type RoomMember struct {
	RoomID     uint64    `gorm:"primaryKey;autoIncrement:false" json:"room_id"`
	MemberID   string    `gorm:"type:varchar(64);primaryKey" json:"member_id"`
	Nickname   string    `gorm:"type:varchar(20)" json:"nickname"`
	JoinedAt   time.Time `json:"joined_at"`
	LastSeenAt time.Time `gorm:"not null;index" json:"last_seen_at"`
}

// TableName gorm table name
func (RoomMember) TableName() string { return "room_members" }

// HasNickname member already picked a nickname and may send messages
func (m *RoomMember) HasNickname() bool { return m.Nickname != "" }

// JoinAttempt rate-limit ledger, one row per join attempt
type JoinAttempt struct {
	ID        uint64    `gorm:"primaryKey"`
	MemberID  string    `gorm:"type:varchar(64);not null;index:idx_join_attempts_member"`
	IP        string    `gorm:"type:varchar(45);index:idx_join_attempts_ip"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName gorm table name
func (JoinAttempt) TableName() string { return "join_attempts" }

// ValidateRoomCode trim and check the 4-digit join code
func ValidateRoomCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if !roomCodePattern.MatchString(code) {
		return "", ErrInvalidRoomCode
	}
	return code, nil
}

// NormalizeNickname trim and check nickname length (1–20)
func NormalizeNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || len([]rune(nickname)) > NicknameMaxLen {
		return "", ErrInvalidNickname
	}
	return nickname, nil
}

// NormalizeContent trim and check message content length (1–500)
func NormalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" || len([]rune(content)) > MessageMaxLen {
		return "", ErrInvalidMessageLength
	}
	return content, nil
}
