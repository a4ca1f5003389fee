package domain

import "strconv"

// Action websocket response action
type Action string

const (
	// NotifyMessage websocket action new_message (live fan-out)
	NotifyMessage Action = "new_message"
	// HistoryMessages websocket action history (replay after reconnect)
	HistoryMessages Action = "history"
	// NotifyError websocket action error
	NotifyError Action = "error"
)

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// RoomChannel redis pub/sub channel name for a room's new-message events
func RoomChannel(roomID uint64) string {
	return "chat:room:" + strconv.FormatUint(roomID, 10)
}
