package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCSV(rows int) string {
	var b strings.Builder
	b.WriteString("DATE,TOTALSL\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "2006-%02d-01,%d.%d\n", i%12+1, 400+i, i)
	}
	return b.String()
}

func TestChunkRows(t *testing.T) {
	docs, err := ChunkRows("TOTALSL.csv", sampleCSV(30), 12)
	require.NoError(t, err)
	require.Len(t, docs, 3) // 12 + 12 + 6

	// 每块都重复表头，块内上下文自洽
	for _, doc := range docs {
		assert.True(t, strings.HasPrefix(doc.Content, "Financial data from a CSV:\n"))
		assert.Contains(t, doc.Content, "DATE TOTALSL")
		assert.Equal(t, "TOTALSL.csv", doc.MetaData["source"])
	}

	assert.Equal(t, 0, docs[0].MetaData["chunk_start_row"])
	assert.Equal(t, 12, docs[1].MetaData["chunk_start_row"])
	assert.Equal(t, 24, docs[2].MetaData["chunk_start_row"])

	// 最后一块只有 6 行数据 + 标题行 + 表头行
	lines := strings.Split(strings.TrimRight(docs[2].Content, "\n"), "\n")
	assert.Len(t, lines, 8)
}

func TestChunkRows_Errors(t *testing.T) {
	_, err := ChunkRows("x.csv", sampleCSV(5), 0)
	assert.Error(t, err)

	_, err = ChunkRows("x.csv", "DATE,TOTALSL\n", 12)
	assert.Error(t, err)

	_, err = ChunkRows("x.csv", "", 12)
	assert.Error(t, err)
}
