package repository

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"textflow/internal/chat/domain"
	"textflow/pkg/logger"
)

// RedisPubSub definition redis pub/sub
// 一個房間一個 channel，insert 訊息後發布，訂閱端收到即推給前端。
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Publish 將 message 序列化後，發布到指定 channel
func (r *RedisPubSub) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe 訂閱房間 channel，收到訊息後呼叫 handler 處理
// ctx 取消時關閉訂閱並結束 goroutine。
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(msg domain.ChatMessage)) {
	sub := r.client.Subscribe(ctx, channel)
	go func() {
		ch := sub.Channel()
		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg domain.ChatMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					logger.Log.Error("pubsub payload unmarshal failed",
						zap.String("channel", channel), zap.Error(err))
					continue
				}
				handler(msg)
			case <-ctx.Done():
				logger.Log.Info("pubsub subscription closed", zap.String("channel", channel))
				sub.Close()
				return
			}
		}
	}()
}
