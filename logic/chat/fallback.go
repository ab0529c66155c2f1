package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrAllProvidersFailed 链上所有 provider 都挂了
var ErrAllProvidersFailed = errors.New("chat: all llm providers failed")

// 每个 provider 最多试两次
const maxAttempts = 2

// 这些关键词说明是限流/配额问题，立刻换下一家
var rateLimitKeywords = []string{
	"rate limit", "quota", "limit exceeded", "429", "too many requests", "usage limit",
}

// Provider 链上的一个 LLM，Model 为 nil 表示未配置
// Local 为 true 表示本地模型，失败时原地退避重试；
// 远端模型失败直接跳下一家（重试远端大概率还是限流）
type Provider struct {
	Name  string
	Model model.ToolCallingChatModel
	Local bool
}

// Fallback 按顺序尝试多个 LLM：Gemini -> OpenAI -> Ollama
type Fallback struct {
	providers []Provider
}

func NewFallback(providers ...Provider) *Fallback {
	for _, p := range providers {
		if p.Model == nil {
			fmt.Printf(">>> [LLM] %s 未配置\n", p.Name)
		}
	}
	return &Fallback{providers: providers}
}

// Invoke 走一遍调用链，拿到第一个成功的回复
func (f *Fallback) Invoke(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for _, p := range f.providers {
		if p.Model == nil {
			continue
		}
		for attempt := 0; attempt < maxAttempts; attempt++ {
			resp, err := p.Model.Generate(ctx, []*schema.Message{
				schema.UserMessage(prompt),
			})
			if err == nil {
				fmt.Printf(">>> [LLM] %s 应答成功\n", p.Name)
				return resp.Content, nil
			}
			lastErr = err
			fmt.Printf(">>> [LLM] %s 调用失败: %v\n", p.Name, err)

			// 限流或远端 API 错误：换下一家
			if isRateLimitError(err) || !p.Local {
				break
			}

			// 本地模型：指数退避后原地重试
			if attempt < maxAttempts-1 {
				backoff := time.Duration(1<<attempt) * time.Second
				fmt.Printf(">>> [LLM] %s %v 后重试\n", p.Name, backoff)
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}
		}
	}
	if lastErr == nil {
		return "", ErrAllProvidersFailed
	}
	return "", fmt.Errorf("%w: last error: %v", ErrAllProvidersFailed, lastErr)
}

// Status 用 "Hello" 逐个探活，/chat/status 接口用
func (f *Fallback) Status(ctx context.Context) map[string]string {
	status := make(map[string]string, len(f.providers))
	for _, p := range f.providers {
		if p.Model == nil {
			status[p.Name] = "Not configured"
			continue
		}
		_, err := p.Model.Generate(ctx, []*schema.Message{schema.UserMessage("Hello")})
		if err != nil {
			msg := err.Error()
			if len(msg) > 50 {
				msg = msg[:50] + "..."
			}
			status[p.Name] = "Unavailable: " + msg
		} else {
			status[p.Name] = "Available"
		}
	}
	return status
}

func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, kw := range rateLimitKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
