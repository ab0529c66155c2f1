package processors

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
)

// Processor 入库前的清洗：去掉坏字符和空块，否则 Embedding 会报错
func Processor(ctx context.Context, src []*schema.Document) ([]*schema.Document, error) {
	var cleanDocs []*schema.Document
	for _, doc := range src {
		// 移除 Null 字节 (常见 PDF 解析错误)
		content := strings.ReplaceAll(doc.Content, "\x00", "")

		// 移除无效的 UTF-8 字符
		if !utf8.ValidString(content) {
			v := make([]rune, 0, len(content))
			for i, r := range content {
				if r == utf8.RuneError {
					_, size := utf8.DecodeRuneInString(content[i:])
					if size == 1 {
						continue
					}
				}
				v = append(v, r)
			}
			content = string(v)
		}

		content = strings.TrimSpace(content)

		// 空块直接丢弃
		if content == "" {
			fmt.Println(">>> [Ingest] 跳过空 chunk")
			continue
		}

		doc.Content = content
		cleanDocs = append(cleanDocs, doc)
	}
	return cleanDocs, nil
}
