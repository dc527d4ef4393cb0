package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	apperrors "z-site-gen-api/pkg/errors"
	"z-site-gen-api/pkg/logger"
	"z-site-gen-api/pkg/metrics"
)

// CompletionRequest 一次结构化补全请求
type CompletionRequest struct {
	Provider string
	Model    string
	System   string
	User     string
}

// Validator 输出结构的自校验接口
// 实现该接口的目标结构在解码后会额外做一次完整性检查
type Validator interface {
	Validate() error
}

// Completer 结构化补全客户端
// 将模型输出解码为目标结构，格式不合法时在限定次数内重试
type Completer struct {
	factory     *EinoFactory
	maxAttempts int
}

// NewCompleter 创建结构化补全客户端
func NewCompleter(factory *EinoFactory, maxAttempts int) *Completer {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Completer{
		factory:     factory,
		maxAttempts: maxAttempts,
	}
}

// Complete 执行补全并将 JSON 输出解码到 out
// 网络错误与格式校验失败共享同一重试预算，耗尽后返回提供方错误
func (c *Completer) Complete(ctx context.Context, req *CompletionRequest, out any) error {
	if c == nil || c.factory == nil {
		return fmt.Errorf("llm factory not configured")
	}
	if req == nil {
		return fmt.Errorf("request is nil")
	}
	if strings.TrimSpace(req.User) == "" {
		return fmt.Errorf("user prompt is required")
	}

	chatModel, err := c.factory.Get(ctx, req.Provider)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeProviderError, "无法创建模型客户端")
	}

	msgs := make([]*schema.Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, schema.SystemMessage(req.System))
	}
	msgs = append(msgs, schema.UserMessage(req.User))

	var opts []model.Option
	if strings.TrimSpace(req.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(req.Model)))
	}

	provider := req.Provider
	if provider == "" {
		provider = c.factory.config.DefaultProvider
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		outMsg, err := chatModel.Generate(ctx, msgs, opts...)
		metrics.LLMCallDuration.WithLabelValues(provider, req.Model).Observe(time.Since(start).Seconds())

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.LLMCallTotal.WithLabelValues(provider, req.Model, "error").Inc()
			lastErr = err
			logger.Warn(ctx, "模型调用失败",
				"attempt", attempt,
				"max_attempts", c.maxAttempts,
				"error", err,
			)
			continue
		}
		if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
			metrics.LLMCallTotal.WithLabelValues(provider, req.Model, "empty").Inc()
			lastErr = fmt.Errorf("empty llm response")
			continue
		}

		metrics.LLMCallTotal.WithLabelValues(provider, req.Model, "success").Inc()
		if outMsg.ResponseMeta != nil && outMsg.ResponseMeta.Usage != nil {
			metrics.LLMTokensUsed.WithLabelValues(provider, req.Model, "prompt").Add(float64(outMsg.ResponseMeta.Usage.PromptTokens))
			metrics.LLMTokensUsed.WithLabelValues(provider, req.Model, "completion").Add(float64(outMsg.ResponseMeta.Usage.CompletionTokens))
		}

		raw := ExtractJSONValue(outMsg.Content)
		if err := decodeReply(raw, out); err != nil {
			metrics.LLMMalformedReplies.WithLabelValues(provider, req.Model).Inc()
			lastErr = err
			logger.Warn(ctx, "模型输出解码失败",
				"attempt", attempt,
				"max_attempts", c.maxAttempts,
				"error", err,
			)
			continue
		}

		return nil
	}

	return apperrors.Wrap(lastErr, apperrors.CodeProviderError,
		fmt.Sprintf("模型调用在 %d 次尝试后仍未返回合法结构", c.maxAttempts))
}

// decodeReply 将模型输出解码到 out
// 先落到新值，校验通过后才整体覆盖，避免失败尝试的残留字段混入后续结果
func decodeReply(raw string, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer")
	}

	fresh := reflect.New(rv.Type().Elem())
	if err := json.Unmarshal([]byte(raw), fresh.Interface()); err != nil {
		return fmt.Errorf("malformed json reply: %w", err)
	}
	if v, ok := fresh.Interface().(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("reply failed validation: %w", err)
		}
	}

	rv.Elem().Set(fresh.Elem())
	return nil
}
