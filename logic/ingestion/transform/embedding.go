package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/ollama"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/angelogustilo19/rag-debt-navigator/vars"
)

// NewEmbedder 创建知识库使用的向量化组件 (Ollama + nomic)
// 返回的 embedder 已经包了一层 NaN/Inf 清理
func NewEmbedder(ctx context.Context) (embedding.Embedder, error) {
	inner, err := ollama.NewEmbedder(ctx, &ollama.EmbeddingConfig{
		BaseURL: vars.OLLAMA_PATH,
		Model:   vars.NOMIC,
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 ollama embedder 失败: %w", err)
	}

	// 探活: embedding 服务不通的话尽早暴露
	if _, err := inner.EmbedStrings(ctx, []string{"ping"}); err != nil {
		return nil, fmt.Errorf("embedding 服务不可用: %w", err)
	}

	return NewCleanEmbedder(inner), nil
}
