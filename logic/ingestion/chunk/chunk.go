package chunk

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// ChunkRows 把 CSV 文本按行分块，每块带表头
// 默认 12 行一块，正好把一年的月度统计放在一起，语义上是完整的
func ChunkRows(source, content string, chunkSize int) ([]*schema.Document, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1 // 统计数据偶尔缺列，放过
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s failed: %w", source, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv %s has no data rows", source)
	}

	header := records[0]
	rows := records[1:]

	var docs []*schema.Document
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		var b strings.Builder
		b.WriteString("Financial data from a CSV:\n")
		b.WriteString(strings.Join(header, " "))
		b.WriteByte('\n')
		for _, row := range rows[start:end] {
			b.WriteString(strings.Join(row, " "))
			b.WriteByte('\n')
		}

		docs = append(docs, &schema.Document{
			Content: b.String(),
			MetaData: map[string]any{
				"source":          source,
				"chunk_start_row": start,
			},
		})
	}
	return docs, nil
}
