package es

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Filter ES 检索的过滤条件
type Filter struct {
	Dataset string   // 数据集过滤
	Source  string   // 来源文件过滤
	DocIDs  []string // 文档 ID 列表（用于混合检索时限定范围）
}

// Retriever 执行 ES 检索
// query: 关键词查询语句（用于 BM25）
// filters: 可选的过滤条件（nil 表示无过滤）
// topK: 返回结果数量
func Retriever(ctx context.Context, client *elasticsearch.Client, index string, query string, filters *Filter, topK int) ([]*schema.Document, error) {

	// 1. 构建查询语句
	esQuery := buildESQuery(query, filters, topK)

	// 2. 序列化查询
	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("error encoding query: %s", err)
	}

	log.Printf(">>> [ES] Query: %s", buf.String())

	// 3. 执行搜索
	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(buf.String()),
	}

	res, err := req.Do(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("error getting response: %s", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error response: %s", res.String())
	}

	// 4. 解析结果
	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error parsing response body: %s", err)
	}

	// 5. 提取 hits
	hits, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid response format")
	}

	hitsList, ok := hits["hits"].([]interface{})
	if !ok {
		return []*schema.Document{}, nil // 无结果
	}

	// 6. 转换为 []*schema.Document
	docs := make([]*schema.Document, 0, len(hitsList))
	for _, hit := range hitsList {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		id, _ := hitMap["_id"].(string)
		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}

		var score float64
		if scoreVal, ok := hitMap["_score"].(float64); ok {
			score = scoreVal
		}

		doc := &schema.Document{
			ID:       id,
			Content:  toString(source["content"]),
			MetaData: make(map[string]any),
		}
		doc = doc.WithScore(score)

		if val, ok := source["doc_id"]; ok {
			doc.MetaData["doc_id"] = val
		}
		if val, ok := source["chunk_id"]; ok {
			doc.MetaData["chunk_id"] = val
		}
		if val, ok := source["source"]; ok {
			doc.MetaData["source"] = val
		}
		if val, ok := source["dataset"]; ok {
			doc.MetaData["dataset"] = val
		}
		if val, ok := source["row_start"]; ok {
			doc.MetaData["row_start"] = val
		}

		docs = append(docs, doc)
	}

	log.Printf(">>> [ES] Retrieved %d results", len(docs))
	for i, doc := range docs {
		log.Printf("Rank %d | Score: %.4f | ID: %s\n", i+1, doc.Score(), doc.ID)
	}

	return docs, nil
}

// buildESQuery 构建 ES 查询语句（BM25 + 过滤）
func buildESQuery(query string, filters *Filter, topK int) map[string]interface{} {
	// 1. 构建必须的查询条件（bool.must）
	mustQueries := []map[string]interface{}{
		{
			"match": map[string]interface{}{
				"content": map[string]interface{}{
					"query": query,
				},
			},
		},
	}

	// 2. 构建过滤条件（bool.filter）
	filterQueries := buildFilterQueries(filters)

	// 3. 组合查询
	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustQueries,
				"filter": filterQueries,
			},
		},
		"size": topK,
	}

	return esQuery
}

// buildFilterQueries 构建过滤条件列表
func buildFilterQueries(filters *Filter) []map[string]interface{} {
	if filters == nil {
		return nil
	}

	var filterQueries []map[string]interface{}

	if filters.Dataset != "" {
		filterQueries = append(filterQueries, map[string]interface{}{
			"term": map[string]interface{}{
				"dataset": filters.Dataset,
			},
		})
	}
	if filters.Source != "" {
		filterQueries = append(filterQueries, map[string]interface{}{
			"term": map[string]interface{}{
				"source": filters.Source,
			},
		})
	}

	// doc_id 列表过滤（用于混合检索）
	if len(filters.DocIDs) > 0 {
		filterQueries = append(filterQueries, map[string]interface{}{
			"terms": map[string]interface{}{
				"doc_id": filters.DocIDs,
			},
		})
	}

	return filterQueries
}

// toString 安全地将任意类型转为 string
func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", v)
}
