// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/codes"

	"z-site-gen-api/internal/domain/repository"
)

// TxManager 事务管理器
type TxManager struct {
	client *Client
}

// NewTxManager 创建事务管理器
func NewTxManager(client *Client) *TxManager {
	return &TxManager{client: client}
}

// WithTransaction 在事务中执行操作
// 已在事务中时直接复用，嵌套调用不会二次开启
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := getTxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "postgres.transaction")
	defer span.End()

	tx, err := m.client.db.BeginTx(ctx, nil)
	if err != nil {
		span.SetStatus(codes.Error, "begin failed")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, repository.TxKey{}, tx)
	if err := fn(txCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		span.SetStatus(codes.Error, "commit failed")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// getTxFromContext 从上下文获取事务
func getTxFromContext(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(repository.TxKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// Querier 查询接口（支持普通连接和事务）
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getQuerier 根据上下文获取查询器
func getQuerier(ctx context.Context, db *sql.DB) Querier {
	if tx := getTxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}
