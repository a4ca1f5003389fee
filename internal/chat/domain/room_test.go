package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateRoomCode(t *testing.T) {
	t.Run("合法代碼含前導零", func(t *testing.T) {
		for _, in := range []string{"0000", "0042", "9999", " 1234 "} {
			code, err := ValidateRoomCode(in)
			assert.NoError(t, err, in)
			assert.Len(t, code, 4)
		}
	})

	t.Run("格式不符", func(t *testing.T) {
		for _, in := range []string{"", "123", "12345", "abcd", "12a4", "12 4", "１２３４"} {
			_, err := ValidateRoomCode(in)
			assert.ErrorIs(t, err, ErrInvalidRoomCode, in)
		}
	})
}

func TestNormalizeNickname(t *testing.T) {
	t.Run("修剪空白", func(t *testing.T) {
		got, err := NormalizeNickname("  Alice  ")
		assert.NoError(t, err)
		assert.Equal(t, "Alice", got)
	})

	t.Run("長度以 rune 計，中文 20 字合法", func(t *testing.T) {
		got, err := NormalizeNickname(strings.Repeat("字", NicknameMaxLen))
		assert.NoError(t, err)
		assert.Equal(t, NicknameMaxLen, len([]rune(got)))
	})

	t.Run("空白或超長都擋", func(t *testing.T) {
		_, err := NormalizeNickname("   ")
		assert.ErrorIs(t, err, ErrInvalidNickname)
		_, err = NormalizeNickname(strings.Repeat("a", NicknameMaxLen+1))
		assert.ErrorIs(t, err, ErrInvalidNickname)
	})
}

func TestNormalizeContent(t *testing.T) {
	t.Run("邊界 500 字合法 501 不合法", func(t *testing.T) {
		_, err := NormalizeContent(strings.Repeat("a", MessageMaxLen))
		assert.NoError(t, err)
		_, err = NormalizeContent(strings.Repeat("a", MessageMaxLen+1))
		assert.ErrorIs(t, err, ErrInvalidMessageLength)
	})

	t.Run("只有空白不算內容", func(t *testing.T) {
		_, err := NormalizeContent(" \t\n ")
		assert.ErrorIs(t, err, ErrInvalidMessageLength)
	})
}

func TestRoomIsUsable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("active 且未過期才可用", func(t *testing.T) {
		room := &Room{Status: RoomStatusActive, ExpiresAt: now.Add(time.Minute)}
		assert.True(t, room.IsUsable(now))
	})

	t.Run("到期瞬間即不可用", func(t *testing.T) {
		room := &Room{Status: RoomStatusActive, ExpiresAt: now}
		assert.False(t, room.IsUsable(now))
	})

	t.Run("closed 狀態不可用", func(t *testing.T) {
		room := &Room{Status: RoomStatusClosed, ExpiresAt: now.Add(time.Hour)}
		assert.False(t, room.IsUsable(now))
	})
}

func TestRoomChannel(t *testing.T) {
	assert.Equal(t, "chat:room:42", RoomChannel(42))
}
