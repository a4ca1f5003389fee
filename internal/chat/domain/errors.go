package domain

// ChatError is a caller-caused rejection with a stable wire code.
// The code is surfaced verbatim to the client for translation into
// user-facing text; infra failures never use this type.
type ChatError struct {
	Code string
}

func (e *ChatError) Error() string { return e.Code }

// 驗證 / 政策類錯誤，對應固定的 error code
var (
	// ErrAuthRequired no member identity on the request
	ErrAuthRequired = &ChatError{Code: "AUTH_REQUIRED"}
	// ErrRoomCreateRetryExceeded active-room code space saturated
	ErrRoomCreateRetryExceeded = &ChatError{Code: "ROOM_CREATE_RETRY_EXCEEDED"}
	// ErrInvalidRoomCode join code is not exactly 4 digits
	ErrInvalidRoomCode = &ChatError{Code: "INVALID_ROOM_CODE"}
	// ErrJoinRateLimitUser too many join attempts by this member in the window
	ErrJoinRateLimitUser = &ChatError{Code: "JOIN_RATE_LIMIT_USER"}
	// ErrJoinRateLimitIP too many join attempts from this origin in the window
	ErrJoinRateLimitIP = &ChatError{Code: "JOIN_RATE_LIMIT_IP"}
	// ErrRoomNotFoundOrExpired no active, non-expired room with that code
	ErrRoomNotFoundOrExpired = &ChatError{Code: "ROOM_NOT_FOUND_OR_EXPIRED"}
	// ErrInvalidNickname nickname empty or too long after trimming
	ErrInvalidNickname = &ChatError{Code: "INVALID_NICKNAME"}
	// ErrRoomMemberNotFound membership missing or room no longer usable
	ErrRoomMemberNotFound = &ChatError{Code: "ROOM_MEMBER_NOT_FOUND_OR_EXPIRED"}
	// ErrNicknameRequired member must set a nickname before sending
	ErrNicknameRequired = &ChatError{Code: "NICKNAME_REQUIRED"}
	// ErrInvalidMessageLength content empty or too long after trimming
	ErrInvalidMessageLength = &ChatError{Code: "INVALID_MESSAGE_LENGTH"}
)
