package transform

import (
	"context"
	"fmt"
	"math"

	"github.com/cloudwego/eino/components/embedding"
)

// CleanEmbedder 包装原始 embedder，处理 NaN/Inf 值
// nomic 偶尔会对纯数字文本吐出 NaN 维度，Milvus 会直接拒绝
type CleanEmbedder struct {
	inner embedding.Embedder
}

func NewCleanEmbedder(inner embedding.Embedder) *CleanEmbedder {
	return &CleanEmbedder{inner: inner}
}

// EmbedStrings 调用内层 embedder 并把 NaN/Inf 维度置 0
func (e *CleanEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	vectors, err := e.inner.EmbedStrings(ctx, texts, opts...)
	if err != nil {
		return nil, err
	}

	cleanedCount := 0
	for _, vec := range vectors {
		for j, val := range vec {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				vec[j] = 0.0
				cleanedCount++
			}
		}
	}
	if cleanedCount > 0 {
		fmt.Printf(">>> [Ingest] 检测到 NaN/Inf 值，已清理 %d 个维度\n", cleanedCount)
	}

	return vectors, nil
}
