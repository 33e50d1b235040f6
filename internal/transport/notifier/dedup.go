package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/go-redis/redis/v8"
)

const noticeKeyPrefix = "billing:rental-notice:"

// RedisDeduplicator хранит в redis маркеры отправленных уведомлений по id транзакции аренды.
// Маркер живет ttl, после чего по той же аренде можно уведомить повторно.
type RedisDeduplicator struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisDeduplicator(client redis.Cmdable, ttl time.Duration) *RedisDeduplicator {
	return &RedisDeduplicator{client: client, ttl: ttl}
}

// NewRedisClient подключается к redis и проверяет соединение.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Pending возвращает аренды, по которым маркера еще нет.
func (d *RedisDeduplicator) Pending(
	ctx context.Context,
	transactions []domain.Transaction,
) ([]domain.Transaction, error) {
	pending := make([]domain.Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		exists, err := d.client.Exists(ctx, noticeKey(transaction.ID)).Result()
		if err != nil {
			return nil, fmt.Errorf("check notice marker for transaction %d: %w", transaction.ID, err)
		}
		if exists == 0 {
			pending = append(pending, transaction)
		}
	}
	return pending, nil
}

func (d *RedisDeduplicator) MarkSent(ctx context.Context, transactions []domain.Transaction) error {
	for _, transaction := range transactions {
		if err := d.client.SetNX(ctx, noticeKey(transaction.ID), 1, d.ttl).Err(); err != nil {
			return fmt.Errorf("set notice marker for transaction %d: %w", transaction.ID, err)
		}
	}
	return nil
}

func noticeKey(transactionID int64) string {
	return fmt.Sprintf("%s%d", noticeKeyPrefix, transactionID)
}

// nopDeduplicator используется, когда redis не настроен: уведомляем всегда.
type nopDeduplicator struct{}

func (nopDeduplicator) Pending(_ context.Context, transactions []domain.Transaction) ([]domain.Transaction, error) {
	return transactions, nil
}

func (nopDeduplicator) MarkSent(context.Context, []domain.Transaction) error {
	return nil
}
