package milvus

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino-ext/components/retriever/milvus"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/angelogustilo19/rag-debt-navigator/vars"
)

// Retriever 执行向量检索（接收外部创建的 Client）
// query: 用户问题原文
func Retriever(ctx context.Context, cli client.Client, query string, emb embedding.Embedder) ([]*schema.Document, error) {

	// 自定义 DocumentConverter，带上分数和 chunk 元数据
	customConverter := func(ctx context.Context, result client.SearchResult) ([]*schema.Document, error) {
		docs := make([]*schema.Document, result.IDs.Len())
		for i := 0; i < result.IDs.Len(); i++ {
			id, err := result.IDs.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("failed to get id: %w", err)
			}

			doc := &schema.Document{
				ID:       id,
				MetaData: make(map[string]any),
			}
			// result.Scores 是 []float32，需要转为 float64
			if result.Scores != nil && len(result.Scores) > i {
				doc = doc.WithScore(float64(result.Scores[i]))
			}

			for _, field := range result.Fields {
				fieldName := field.Name()
				switch fieldName {
				case "content":
					if v, err := field.GetAsString(i); err == nil {
						doc.Content = v
					}
				case "source", "dataset", "doc_id":
					if v, err := field.GetAsString(i); err == nil {
						doc.MetaData[fieldName] = v
					} else {
						log.Printf(">>> [Warning] 字段 %s 获取失败 (索引 %d): %v", fieldName, i, err)
					}
				case "row_start":
					if v, err := field.GetAsInt64(i); err == nil {
						doc.MetaData[fieldName] = v
					} else {
						log.Printf(">>> [Warning] 字段 %s 获取失败 (索引 %d): %v", fieldName, i, err)
					}
				default:
					continue
				}
			}
			docs[i] = doc
		}
		return docs, nil
	}

	retr, err := milvus.NewRetriever(ctx, &milvus.RetrieverConfig{
		Client:            cli,
		Collection:        vars.COLLECTION,
		VectorField:       "vector",
		OutputFields:      []string{"content", "doc_id", "source", "dataset", "row_start"},
		DocumentConverter: customConverter,
		MetricType:        entity.L2,
		TopK:              vars.TOPK,
		Embedding:         emb,
	})
	if err != nil {
		return nil, fmt.Errorf("init retriever failed: %v", err)
	}

	// 确保 Collection 已加载到内存
	loadStart := time.Now()
	if err := cli.LoadCollection(ctx, vars.COLLECTION, false); err != nil {
		log.Printf(">>> [Milvus] LoadCollection warning: %v", err)
		// 不中断，继续尝试查询
	} else {
		// 等待加载完成（最多 5 秒）
		loadDeadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(loadDeadline) {
			loadState, _ := cli.GetLoadState(ctx, vars.COLLECTION, []string{})
			// 3 = LoadStateLoaded
			if loadState == 3 {
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
		log.Printf(">>> [Milvus] Collection 加载耗时: %v", time.Since(loadStart))
	}

	docs, err := retr.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("milvus retrieve failed: %v", err)
	}

	fmt.Printf(">>> [Milvus] 语义检索找到 %d 个结果\n", len(docs))
	for i, doc := range docs {
		fmt.Printf("Rank %d | Score: %.4f | ID: %s | %s\n",
			i+1, doc.Score(), doc.ID, truncateString(doc.Content, 120))
	}

	return docs, nil
}

// truncateString 截断字符串用于显示
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
