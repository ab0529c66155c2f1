package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/indexer/milvus"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

func NewMilvusIndexer(ctx context.Context, embedder embedding.Embedder, milvusAddr string, collectionName string) (indexer.Indexer, error) {
	fmt.Printf(">>> [Milvus] 正在连接: %s ...\n", milvusAddr)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cli, err := client.NewClient(connectCtx, client.Config{
		Address: milvusAddr,
	})
	if err != nil {
		return nil, fmt.Errorf("连接milvus失败: %v", err)
	}
	fmt.Println(">>> [Milvus] 连接成功")
	return NewMilvusIndexerWithClient(ctx, cli, embedder, collectionName)
}

// NewMilvusIndexerWithClient 使用外部创建的 Client（复用连接）
func NewMilvusIndexerWithClient(ctx context.Context, cli client.Client, embedder embedding.Embedder, collectionName string) (indexer.Indexer, error) {
	// 维度跟着 embedding 模型走，不能写死
	vecs, err := embedder.EmbedStrings(ctx, []string{"test"})
	if err != nil {
		return nil, fmt.Errorf("embedder 不可用: %v", err)
	}
	dim := len(vecs[0])
	fmt.Printf(">>> [Milvus] 向量维度: %d\n", dim)

	// 定义 Schema
	// 字段名必须与 DocumentConverter 构造的行一致
	fields := []*entity.Field{
		{
			Name:       "id", // 主键，chunk 级 UUID
			DataType:   entity.FieldTypeVarChar,
			PrimaryKey: true,
			AutoID:     false,
			TypeParams: map[string]string{"max_length": "64"},
		},
		{
			Name:       "doc_id", // 文件级 id，重新入库时按它删旧数据
			DataType:   entity.FieldTypeVarChar,
			AutoID:     false,
			TypeParams: map[string]string{"max_length": "64"},
		},
		{
			Name:       "vector", // 向量字段
			DataType:   entity.FieldTypeFloatVector,
			TypeParams: map[string]string{"dim": fmt.Sprintf("%d", dim)},
		},
		{
			Name:       "content", // chunk 文本
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "65535"},
		},
		{
			Name: "source", DataType: entity.FieldTypeVarChar, // 来源文件名
			TypeParams: map[string]string{"max_length": "255"},
		},
		{
			Name: "dataset", DataType: entity.FieldTypeVarChar, // 数据集标记
			TypeParams: map[string]string{"max_length": "64"},
		},
		{
			Name: "row_start", DataType: entity.FieldTypeInt64, // CSV chunk 的起始行号
		},
		{
			Name:     "metadata", // 其余元数据原样存 JSON
			DataType: entity.FieldTypeJSON,
		},
	}

	converter := func(ctx context.Context, docs []*schema.Document, vectors [][]float64) ([]interface{}, error) {
		rows := make([]interface{}, len(docs))

		for i, doc := range docs {
			// 1. 处理向量: float64 -> float32
			vec32 := make([]float32, len(vectors[i]))
			for j, v := range vectors[i] {
				vec32[j] = float32(v)
			}

			// 2. 从 Metadata 里摘出结构化字段
			var docId, source, dataset string
			var rowStart int64
			if doc.MetaData != nil {
				if val, ok := doc.MetaData["doc_id"]; ok {
					if vStr, ok := val.(string); ok {
						docId = vStr
					}
				}
				if val, ok := doc.MetaData["source"]; ok {
					if vStr, ok := val.(string); ok {
						source = vStr
					}
				}
				if val, ok := doc.MetaData["dataset"]; ok {
					if vStr, ok := val.(string); ok {
						dataset = vStr
					}
				}
				if val, ok := doc.MetaData["chunk_start_row"]; ok {
					// 兼容 int 和 int64
					if vInt64, ok := val.(int64); ok {
						rowStart = vInt64
					} else if vInt, ok := val.(int); ok {
						rowStart = int64(vInt)
					}
				}
			}
			if doc.MetaData == nil {
				doc.MetaData = make(map[string]interface{})
			}
			metaBytes, err := json.Marshal(doc.MetaData)
			if err != nil {
				metaBytes = []byte("{}")
			}

			// 3. 构造行对象 (Map)
			row := map[string]interface{}{
				"id":        doc.ID,
				"doc_id":    docId,
				"vector":    vec32,
				"content":   doc.Content,
				"source":    source,
				"dataset":   dataset,
				"row_start": rowStart,
				"metadata":  metaBytes,
			}
			rows[i] = row
		}
		return rows, nil
	}

	idx, err := milvus.NewIndexer(ctx, &milvus.IndexerConfig{
		Client:            cli,
		Collection:        collectionName,
		Embedding:         embedder,
		Fields:            fields,
		DocumentConverter: converter,
		MetricType:        milvus.L2,
	})
	if err != nil {
		return nil, fmt.Errorf("[NewIndexer] 建表失败: %v", err)
	}

	// 先 Release 才能操作索引
	_ = cli.ReleaseCollection(ctx, collectionName)

	// 删除默认索引，换成 HNSW
	if err := cli.DropIndex(ctx, collectionName, "vector"); err != nil {
		fmt.Printf(">>> [Milvus] DropIndex 提示: %v\n", err)
	}

	hnswIdx, _ := entity.NewIndexHNSW(entity.L2, 16, 200)
	if err := cli.CreateIndex(ctx, collectionName, "vector", hnswIdx, false); err != nil {
		return nil, fmt.Errorf("创建 HNSW 向量索引失败: %v", err)
	}

	fmt.Println(">>> [Milvus] 正在为标量字段创建索引...")

	for _, field := range []string{"doc_id", "source", "dataset", "row_start"} {
		if err := cli.CreateIndex(ctx, collectionName, field, entity.NewScalarIndex(), false); err != nil {
			return nil, fmt.Errorf("创建 %s 索引失败: %v", field, err)
		}
	}

	fmt.Println(">>> [Milvus] 正在 Load Collection...")
	if err := cli.LoadCollection(ctx, collectionName, false); err != nil {
		return nil, fmt.Errorf("Load Collection 失败: %v", err)
	}

	fmt.Println(">>> [Milvus] 集合就绪")
	return idx, nil
}

// DeleteByDocID 按文件级 id 删除旧 chunk，供重新入库时使用
func DeleteByDocID(ctx context.Context, cli client.Client, collectionName, docID string) error {
	expr := fmt.Sprintf(`doc_id == "%s"`, docID)
	if err := cli.Delete(ctx, collectionName, "", expr); err != nil {
		return fmt.Errorf("milvus delete failed: %w", err)
	}
	return nil
}
