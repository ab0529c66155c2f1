package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/semantic"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"

	"github.com/angelogustilo19/rag-debt-navigator/logic/ingestion/chunk"
	"github.com/angelogustilo19/rag-debt-navigator/logic/ingestion/processors"
	"github.com/angelogustilo19/rag-debt-navigator/storage/es"
	"github.com/angelogustilo19/rag-debt-navigator/storage/milvus"
	"github.com/angelogustilo19/rag-debt-navigator/vars"
)

// KnowledgeService 知识库入库：CSV 按行切块，PDF 走语义切分，
// 然后同时写进 ES (BM25) 和 Milvus (向量)
type KnowledgeService struct {
	embedder     embedding.Embedder
	indexer      indexer.Indexer
	esIndexer    *es.ESIndexer
	milvusClient client.Client

	mu           sync.Mutex
	lastIngested map[string]time.Time // path -> 上次入库时的 mtime
}

func NewKnowledgeService(embedder embedding.Embedder, idx indexer.Indexer, esIndexer *es.ESIndexer, milvusClient client.Client) *KnowledgeService {
	return &KnowledgeService{
		embedder:     embedder,
		indexer:      idx,
		esIndexer:    esIndexer,
		milvusClient: milvusClient,
		lastIngested: make(map[string]time.Time),
	}
}

// docIDForSource 按来源文件名生成稳定的文档 id，重新入库时能定位旧数据
func docIDForSource(source string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(source)).String()
}

// IngestFile 按扩展名入库本地文件
func (s *KnowledgeService) IngestFile(ctx context.Context, path string) (string, int, error) {
	startTime := time.Now()
	source := filepath.Base(path)

	var chunks []*schema.Document
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return "", 0, fmt.Errorf("read csv failed: %w", readErr)
		}
		chunks, err = chunk.ChunkRows(source, string(raw), vars.CSVCHUNKROWS)
		if err != nil {
			return "", 0, fmt.Errorf("chunk csv failed: %w", err)
		}
	case ".pdf":
		chunks, err = s.loadPDF(ctx, path)
		if err != nil {
			return "", 0, err
		}
	default:
		return "", 0, fmt.Errorf("unsupported file type: %s", source)
	}
	fmt.Printf(">>> [性能] 文件解析耗时: %v, 切出 %d 个 chunk\n", time.Since(startTime), len(chunks))

	docID, err := s.indexChunks(ctx, source, chunks)
	if err != nil {
		return "", 0, err
	}

	// 记录 mtime，给定时任务判断是否需要重新入库
	if info, statErr := os.Stat(path); statErr == nil {
		s.mu.Lock()
		s.lastIngested[path] = info.ModTime()
		s.mu.Unlock()
	}

	fmt.Printf(">>> [性能总览] %s 入库完成, 总耗时: %v\n", source, time.Since(startTime))
	return docID, len(chunks), nil
}

// UploadAndProcess 处理 multipart 上传的知识文件
func (s *KnowledgeService) UploadAndProcess(ctx context.Context, fileHeader *multipart.FileHeader) (string, int, error) {
	startTime := time.Now()
	source := filepath.Base(fileHeader.Filename)

	srcFile, err := fileHeader.Open()
	if err != nil {
		return "", 0, err
	}
	defer srcFile.Close()

	var chunks []*schema.Document

	switch strings.ToLower(filepath.Ext(source)) {
	case ".csv":
		raw, readErr := io.ReadAll(srcFile)
		if readErr != nil {
			return "", 0, fmt.Errorf("read upload failed: %w", readErr)
		}
		chunks, err = chunk.ChunkRows(source, string(raw), vars.CSVCHUNKROWS)
		if err != nil {
			return "", 0, fmt.Errorf("chunk csv failed: %w", err)
		}
	case ".pdf":
		p, pErr := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
		if pErr != nil {
			return "", 0, pErr
		}
		docs, parseErr := p.Parse(ctx, srcFile, parser.WithURI(source))
		if parseErr != nil {
			return "", 0, fmt.Errorf("parse pdf failed: %v", parseErr)
		}
		chunks, err = s.splitDocs(ctx, source, docs)
		if err != nil {
			return "", 0, err
		}
	default:
		return "", 0, fmt.Errorf("unsupported file type: %s", source)
	}
	fmt.Printf(">>> [性能] 上传解析耗时: %v, 切出 %d 个 chunk\n", time.Since(startTime), len(chunks))

	docID, err := s.indexChunks(ctx, source, chunks)
	if err != nil {
		return "", 0, err
	}
	return docID, len(chunks), nil
}

// RefreshIfChanged 统计文件 mtime 变了才重新入库，给 cron 用
func (s *KnowledgeService) RefreshIfChanged(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s failed: %w", path, err)
	}

	s.mu.Lock()
	last, seen := s.lastIngested[path]
	s.mu.Unlock()
	if seen && !info.ModTime().After(last) {
		fmt.Printf(">>> [Cron] %s 未变化，跳过\n", filepath.Base(path))
		return nil
	}

	_, n, err := s.IngestFile(ctx, path)
	if err != nil {
		return err
	}
	fmt.Printf(">>> [Cron] %s 重新入库完成, %d 个 chunk\n", filepath.Base(path), n)
	return nil
}

// loadPDF 文件加载器 + PDF 解析 + 语义切分
func (s *KnowledgeService) loadPDF(ctx context.Context, path string) ([]*schema.Document, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, err
	}
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      p,
	})
	if err != nil {
		return nil, err
	}
	docs, err := loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return nil, fmt.Errorf("load pdf failed: %v", err)
	}
	return s.splitDocs(ctx, filepath.Base(path), docs)
}

func (s *KnowledgeService) splitDocs(ctx context.Context, source string, docs []*schema.Document) ([]*schema.Document, error) {
	splitter, err := semantic.NewSplitter(ctx, &semantic.Config{
		Embedding:    s.embedder,
		BufferSize:   5,
		MinChunkSize: 200,
		Separators:   []string{"\n\n", "\n", ". ", "? ", "! "},
		LenFunc: func(s string) int {
			return len([]rune(s))
		},
		Percentile: 0.85,
	})
	if err != nil {
		return nil, err
	}

	splitStart := time.Now()
	chunks, err := splitter.Transform(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("split failed: %v", err)
	}
	fmt.Printf(">>> [性能] 语义切分耗时: %v\n", time.Since(splitStart))

	for _, c := range chunks {
		if c.MetaData == nil {
			c.MetaData = make(map[string]any)
		}
		c.MetaData["source"] = source
	}
	return chunks, nil
}

// indexChunks 清洗、打元数据、删旧数据、双写 ES + Milvus
// Milvus 失败时回滚本次写入的 ES 数据
func (s *KnowledgeService) indexChunks(ctx context.Context, source string, chunks []*schema.Document) (string, error) {
	cleanChunks, err := processors.Processor(ctx, chunks)
	if err != nil {
		return "", err
	}
	if len(cleanChunks) == 0 {
		return "", fmt.Errorf("no usable content in %s", source)
	}

	docID := docIDForSource(source)
	for _, c := range cleanChunks {
		c.ID = uuid.New().String()
		if c.MetaData == nil {
			c.MetaData = make(map[string]any)
		}
		c.MetaData["doc_id"] = docID
		c.MetaData["source"] = source
		c.MetaData["dataset"] = vars.DATASET
	}

	// 同名文件重新入库前先清掉旧 chunk
	if err := s.esIndexer.DeleteByDocID(ctx, docID); err != nil {
		fmt.Printf(">>> [Ingest] 清理旧 ES 数据提示: %v\n", err)
	}
	if s.milvusClient != nil {
		if err := milvus.DeleteByDocID(ctx, s.milvusClient, vars.COLLECTION, docID); err != nil {
			fmt.Printf(">>> [Ingest] 清理旧 Milvus 数据提示: %v\n", err)
		}
	}

	esStart := time.Now()
	if err := s.esIndexer.Store(ctx, docID, cleanChunks); err != nil {
		return "", fmt.Errorf("es store failed: %w", err)
	}
	fmt.Printf(">>> [性能] ES 存储耗时: %v\n", time.Since(esStart))

	milvusStart := time.Now()
	if _, err := s.indexer.Store(ctx, cleanChunks); err != nil {
		_ = s.esIndexer.DeleteByDocID(ctx, docID)
		return "", fmt.Errorf("milvus store failed, es rolled back: %w", err)
	}
	fmt.Printf(">>> [性能] Milvus 存储耗时: %v\n", time.Since(milvusStart))

	return docID, nil
}
