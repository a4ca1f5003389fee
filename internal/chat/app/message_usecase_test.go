package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"textflow/internal/chat/domain"
	"textflow/internal/chat/repository"
	"textflow/pkg/logger"
)

func newTestMessageUC(roomRepo *MockRoomRepo, msgRepo *MockMessageRepo, pub *MockPublisher) *messageUseCase {
	return &messageUseCase{
		roomRepo: roomRepo,
		msgRepo:  msgRepo,
		pub:      pub,
		now:      func() time.Time { return testNow },
	}
}

func usableRoom() *domain.Room {
	return &domain.Room{ID: 5, Code: "4321", Status: domain.RoomStatusActive, ExpiresAt: testNow.Add(time.Hour)}
}

func TestMessageUseCase_Send(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	t.Run("內容長度 1–500，修剪後驗證", func(t *testing.T) {
		uc := newTestMessageUC(new(MockRoomRepo), new(MockMessageRepo), new(MockPublisher))
		_, err := uc.Send(ctx, "member-1", 5, "   ")
		assert.ErrorIs(t, err, domain.ErrInvalidMessageLength)
		_, err = uc.Send(ctx, "member-1", 5, strings.Repeat("a", 501))
		assert.ErrorIs(t, err, domain.ErrInvalidMessageLength)
	})

	t.Run("剛好 500 字可以發", func(t *testing.T) {
		roomRepo := new(MockRoomRepo)
		msgRepo := new(MockMessageRepo)
		pub := new(MockPublisher)
		uc := newTestMessageUC(roomRepo, msgRepo, pub)

		roomRepo.On("FindUsableByID", ctx, uint64(5), testNow).Return(usableRoom(), nil)
		roomRepo.On("FindMember", ctx, uint64(5), "member-1").
			Return(&domain.RoomMember{RoomID: 5, MemberID: "member-1", Nickname: "Alice"}, nil)
		msgRepo.On("Insert", ctx, mock.AnythingOfType("*domain.ChatMessage")).Return(nil)
		roomRepo.On("TouchMember", ctx, uint64(5), "member-1", testNow).Return(nil)
		pub.On("Publish", ctx, domain.RoomChannel(5), mock.Anything).Return(nil)

		msg, err := uc.Send(ctx, "member-1", 5, strings.Repeat("a", 500))
		assert.NoError(t, err)
		assert.Len(t, msg.Content, 500)
	})

	t.Run("沒設暱稱回 NICKNAME_REQUIRED", func(t *testing.T) {
		roomRepo := new(MockRoomRepo)
		msgRepo := new(MockMessageRepo)
		uc := newTestMessageUC(roomRepo, msgRepo, new(MockPublisher))

		roomRepo.On("FindUsableByID", ctx, uint64(5), testNow).Return(usableRoom(), nil)
		roomRepo.On("FindMember", ctx, uint64(5), "member-1").
			Return(&domain.RoomMember{RoomID: 5, MemberID: "member-1"}, nil)

		_, err := uc.Send(ctx, "member-1", 5, "hello")
		assert.ErrorIs(t, err, domain.ErrNicknameRequired)
		msgRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("不是房間成員回 ROOM_MEMBER_NOT_FOUND_OR_EXPIRED", func(t *testing.T) {
		roomRepo := new(MockRoomRepo)
		uc := newTestMessageUC(roomRepo, new(MockMessageRepo), new(MockPublisher))

		roomRepo.On("FindUsableByID", ctx, uint64(5), testNow).Return(usableRoom(), nil)
		roomRepo.On("FindMember", ctx, uint64(5), "member-1").Return(nil, repository.ErrMemberNotFound)

		_, err := uc.Send(ctx, "member-1", 5, "hello")
		assert.ErrorIs(t, err, domain.ErrRoomMemberNotFound)
	})

	t.Run("房間過期同樣回 ROOM_MEMBER_NOT_FOUND_OR_EXPIRED", func(t *testing.T) {
		roomRepo := new(MockRoomRepo)
		uc := newTestMessageUC(roomRepo, new(MockMessageRepo), new(MockPublisher))

		roomRepo.On("FindUsableByID", ctx, uint64(5), testNow).Return(nil, repository.ErrRoomNotFound)

		_, err := uc.Send(ctx, "member-1", 5, "hello")
		assert.ErrorIs(t, err, domain.ErrRoomMemberNotFound)
	})

	t.Run("訊息帶當下暱稱快照並刷新心跳", func(t *testing.T) {
		roomRepo := new(MockRoomRepo)
		msgRepo := new(MockMessageRepo)
		pub := new(MockPublisher)
		uc := newTestMessageUC(roomRepo, msgRepo, pub)

		roomRepo.On("FindUsableByID", ctx, uint64(5), testNow).Return(usableRoom(), nil)
		roomRepo.On("FindMember", ctx, uint64(5), "member-1").
			Return(&domain.RoomMember{RoomID: 5, MemberID: "member-1", Nickname: "Alice"}, nil)
		msgRepo.On("Insert", ctx, mock.MatchedBy(func(m *domain.ChatMessage) bool {
			return m.Nickname == "Alice" && m.Content == "hello" && m.CreatedAt.Equal(testNow)
		})).Return(nil)
		roomRepo.On("TouchMember", ctx, uint64(5), "member-1", testNow).Return(nil)
		pub.On("Publish", ctx, domain.RoomChannel(5), mock.Anything).Return(nil)

		msg, err := uc.Send(ctx, "member-1", 5, "  hello  ")
		assert.NoError(t, err)
		assert.Equal(t, "Alice", msg.Nickname)
		roomRepo.AssertCalled(t, "TouchMember", ctx, uint64(5), "member-1", testNow)
		pub.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("publish 失敗訊息照樣算送出", func(t *testing.T) {
		roomRepo := new(MockRoomRepo)
		msgRepo := new(MockMessageRepo)
		pub := new(MockPublisher)
		uc := newTestMessageUC(roomRepo, msgRepo, pub)

		roomRepo.On("FindUsableByID", ctx, uint64(5), testNow).Return(usableRoom(), nil)
		roomRepo.On("FindMember", ctx, uint64(5), "member-1").
			Return(&domain.RoomMember{RoomID: 5, MemberID: "member-1", Nickname: "Alice"}, nil)
		msgRepo.On("Insert", ctx, mock.AnythingOfType("*domain.ChatMessage")).Return(nil)
		roomRepo.On("TouchMember", ctx, uint64(5), "member-1", testNow).Return(nil)
		pub.On("Publish", ctx, domain.RoomChannel(5), mock.Anything).Return(assert.AnError)

		msg, err := uc.Send(ctx, "member-1", 5, "hello")
		assert.NoError(t, err)
		assert.NotNil(t, msg)
	})
}

func TestMessageUseCase_ListAfter(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomRepo := new(MockRoomRepo)
	msgRepo := new(MockMessageRepo)
	uc := newTestMessageUC(roomRepo, msgRepo, new(MockPublisher))

	want := []domain.ChatMessage{
		{ID: 11, RoomID: 5, Content: "a"},
		{ID: 12, RoomID: 5, Content: "b"},
	}
	msgRepo.On("ListAfter", ctx, uint64(5), uint64(10), 0).Return(want, nil)

	got, err := uc.ListAfter(ctx, 5, 10)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}
