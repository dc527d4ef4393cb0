package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StageLease 项目级阶段租约
// 同一项目同一时刻只允许一个阶段在执行
type StageLease struct {
	client *Client
	ttl    time.Duration
}

// NewStageLease 创建阶段租约管理器
func NewStageLease(client *Client, ttl time.Duration) *StageLease {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StageLease{
		client: client,
		ttl:    ttl,
	}
}

// releaseScript 仅当持有者匹配时删除租约
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Acquire 尝试获取项目租约
// 返回释放用的令牌；租约被占用时 acquired 为 false
func (l *StageLease) Acquire(ctx context.Context, projectID string) (token string, acquired bool, err error) {
	ctx, span := tracer.Start(ctx, "redis.StageLease.Acquire",
		trace.WithAttributes(attribute.String("project_id", projectID)))
	defer span.End()

	key := l.key(projectID)
	token = uuid.New().String()

	ok, err := l.client.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return "", false, fmt.Errorf("failed to acquire stage lease: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release 释放租约，仅持有令牌的一方可释放
func (l *StageLease) Release(ctx context.Context, projectID, token string) error {
	ctx, span := tracer.Start(ctx, "redis.StageLease.Release",
		trace.WithAttributes(attribute.String("project_id", projectID)))
	defer span.End()

	err := l.client.rdb.Eval(ctx, releaseScript, []string{l.key(projectID)}, token).Err()
	if err != nil && !IsNil(err) {
		span.RecordError(err)
		return fmt.Errorf("failed to release stage lease: %w", err)
	}
	return nil
}

// Held 检查项目是否有未释放的租约
func (l *StageLease) Held(ctx context.Context, projectID string) (bool, error) {
	n, err := l.client.rdb.Exists(ctx, l.key(projectID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check stage lease: %w", err)
	}
	return n > 0, nil
}

func (l *StageLease) key(projectID string) string {
	return fmt.Sprintf("stage_lease:%s", projectID)
}
