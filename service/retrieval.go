package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/milvus-io/milvus-sdk-go/v2/client"

	"github.com/angelogustilo19/rag-debt-navigator/logic/ingestion/transform/score"
	"github.com/angelogustilo19/rag-debt-navigator/storage/es"
	"github.com/angelogustilo19/rag-debt-navigator/storage/milvus"
	"github.com/angelogustilo19/rag-debt-navigator/vars"
)

// RetrievalService 混合检索：Milvus 向量 + ES BM25，加权融合后拼上下文
type RetrievalService struct {
	embedder     embedding.Embedder
	milvusClient client.Client
	esClient     *elasticsearch.Client
}

func NewRetrievalService(embedder embedding.Embedder, milvusClient client.Client, esClient *elasticsearch.Client) *RetrievalService {
	return &RetrievalService{
		embedder:     embedder,
		milvusClient: milvusClient,
		esClient:     esClient,
	}
}

// Context 为通用问答拼检索上下文
// 知识库没起来或两路都失败时返回空串，问答降级为无上下文
func (s *RetrievalService) Context(ctx context.Context, question string) string {
	if s == nil {
		return ""
	}
	searchStart := time.Now()

	// 1. Milvus 向量检索（尽力而为）
	var milvusDocs []*schema.Document
	if s.milvusClient != nil && s.embedder != nil {
		milvusStart := time.Now()
		docs, err := milvus.Retriever(ctx, s.milvusClient, question, s.embedder)
		if err != nil {
			fmt.Printf(">>> [Hybrid] Milvus 检索失败，忽略: %v\n", err)
		} else {
			milvusDocs = docs
		}
		fmt.Printf(">>> [性能] Milvus 检索耗时: %v\n", time.Since(milvusStart))
	}

	// 2. ES 关键词检索（尽力而为）
	var esDocs []*schema.Document
	if s.esClient != nil {
		esStart := time.Now()
		docs, err := es.Retriever(ctx, s.esClient, vars.ESINDEX, question,
			&es.Filter{Dataset: vars.DATASET}, vars.TOPK)
		if err != nil {
			fmt.Printf(">>> [Hybrid] ES 检索失败，忽略: %v\n", err)
		} else {
			esDocs = docs
		}
		fmt.Printf(">>> [性能] ES 检索耗时: %v\n", time.Since(esStart))
	}

	if len(milvusDocs) == 0 && len(esDocs) == 0 {
		return ""
	}

	// 3. 归一化、去重、加权融合
	reranked := score.HybridReranker(milvusDocs, esDocs, nil)
	score.PrintRerankedResults(reranked)
	fmt.Printf(">>> [性能总览] 混合检索总耗时: %v\n", time.Since(searchStart))

	var parts []string
	for _, doc := range reranked {
		if doc.Content != "" {
			parts = append(parts, doc.Content)
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}
