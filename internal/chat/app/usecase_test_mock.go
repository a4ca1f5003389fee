package app

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"textflow/internal/chat/domain"
)

// MockRoomRepo Mock RoomRepository
type MockRoomRepo struct {
	mock.Mock
}

func (m *MockRoomRepo) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRoomRepo) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepo) CreateRoom(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepo) FindActiveByCode(ctx context.Context, code string, now time.Time) (*domain.Room, error) {
	args := m.Called(ctx, code, now)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRoomRepo) FindUsableByID(ctx context.Context, roomID uint64, now time.Time) (*domain.Room, error) {
	args := m.Called(ctx, roomID, now)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRoomRepo) UpsertMember(ctx context.Context, member *domain.RoomMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockRoomRepo) FindMember(ctx context.Context, roomID uint64, memberID string) (*domain.RoomMember, error) {
	args := m.Called(ctx, roomID, memberID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.RoomMember), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRoomRepo) UpdateNickname(ctx context.Context, roomID uint64, memberID, nickname string, now time.Time) error {
	args := m.Called(ctx, roomID, memberID, nickname, now)
	return args.Error(0)
}

func (m *MockRoomRepo) TouchMember(ctx context.Context, roomID uint64, memberID string, now time.Time) error {
	args := m.Called(ctx, roomID, memberID, now)
	return args.Error(0)
}

func (m *MockRoomRepo) RemoveMember(ctx context.Context, roomID uint64, memberID string) (bool, int64, error) {
	args := m.Called(ctx, roomID, memberID)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockRoomRepo) DeleteIfEmpty(ctx context.Context, roomID uint64) (bool, error) {
	args := m.Called(ctx, roomID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepo) PurgeIdleMembers(ctx context.Context, now, idleCutoff time.Time) (int64, error) {
	args := m.Called(ctx, now, idleCutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepo) PurgeDeadRooms(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockJoinAttemptRepo Mock JoinAttemptRepository
type MockJoinAttemptRepo struct {
	mock.Mock
}

func (m *MockJoinAttemptRepo) Record(ctx context.Context, attempt *domain.JoinAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockJoinAttemptRepo) CountByMemberSince(ctx context.Context, memberID string, since time.Time) (int64, error) {
	args := m.Called(ctx, memberID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJoinAttemptRepo) CountByIPSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	args := m.Called(ctx, ip, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditRepo Mock AuditRepository
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Append(ctx context.Context, event *domain.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockMessageRepo Mock MessageRepository
type MockMessageRepo struct {
	mock.Mock
}

func (m *MockMessageRepo) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepo) ListAfter(ctx context.Context, roomID, afterID uint64, limit int) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, roomID, afterID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPublisher Mock MessagePublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}
