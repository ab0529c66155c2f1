package score

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(id string, content string, s float64) *schema.Document {
	d := &schema.Document{ID: id, Content: content}
	return d.WithScore(s)
}

func TestHybridReranker_WeightedFusion(t *testing.T) {
	// 只出现在单一来源的 chunk，归一化后按权重打分
	milvus := []*schema.Document{
		doc("a", "chunk a", 0.9),
		doc("b", "chunk b", 0.1),
	}
	es := []*schema.Document{
		doc("c", "chunk c", 5.0),
		doc("d", "chunk d", 1.0),
	}

	results := HybridReranker(milvus, es, nil)
	require.Len(t, results, 4)

	byID := map[string]*RerankedDocument{}
	for _, r := range results {
		byID[r.ID] = r
	}

	// 各来源内部 Min-Max 归一化: 最高分 → 1.0, 最低分 → 0.0
	assert.InDelta(t, 0.6, byID["a"].FinalScore, 1e-9)
	assert.InDelta(t, 0.0, byID["b"].FinalScore, 1e-9)
	assert.InDelta(t, 0.4, byID["c"].FinalScore, 1e-9)
	assert.InDelta(t, 0.0, byID["d"].FinalScore, 1e-9)

	assert.Equal(t, []string{"milvus"}, byID["a"].Sources)
	assert.Equal(t, []string{"es"}, byID["c"].Sources)

	// 降序: a 必须排在 c 前面
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
}

func TestHybridReranker_DedupAccumulates(t *testing.T) {
	// 同一 chunk 两边都命中时去重并累加分数
	milvus := []*schema.Document{
		doc("x", "shared chunk", 1.0),
		doc("y", "milvus only", 0.0),
	}
	es := []*schema.Document{
		doc("x", "shared chunk", 2.0),
		doc("z", "es only", 1.0),
	}

	results := HybridReranker(milvus, es, nil)
	require.Len(t, results, 3)

	assert.Equal(t, "x", results[0].ID)
	// 0.6*1.0 + 0.4*1.0 = 1.0
	assert.InDelta(t, 1.0, results[0].FinalScore, 1e-9)
	assert.ElementsMatch(t, []string{"milvus", "es"}, results[0].Sources)
}

func TestHybridReranker_TopKCutoff(t *testing.T) {
	var milvus []*schema.Document
	for i := 0; i < 5; i++ {
		milvus = append(milvus, doc(string(rune('a'+i)), "c", float64(i)))
	}

	cfg := &HybridRerankerConfig{MilvusWeight: 0.6, ESWeight: 0.4, TopK: 2}
	results := HybridReranker(milvus, nil, cfg)
	require.Len(t, results, 2)
	assert.Equal(t, "e", results[0].ID)
	assert.Equal(t, "d", results[1].ID)
}

func TestHybridReranker_UniformScores(t *testing.T) {
	// 所有分数相同时归一化不能除零，全部视为满分
	es := []*schema.Document{
		doc("a", "c", 3.0),
		doc("b", "c", 3.0),
	}
	results := HybridReranker(nil, es, nil)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.InDelta(t, 0.4, r.FinalScore, 1e-9)
	}
}

func TestHybridReranker_NilAndEmptyInputs(t *testing.T) {
	assert.Empty(t, HybridReranker(nil, nil, nil))

	// nil 元素不能打断归一化和融合
	milvus := []*schema.Document{nil, doc("a", "c", 1.0)}
	results := HybridReranker(milvus, nil, nil)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)

	// 两路都带 nil，且分数不等走归一化分支
	milvus = []*schema.Document{doc("a", "c", 2.0), nil, doc("b", "c", 1.0)}
	es := []*schema.Document{nil, doc("b", "c", 3.0), nil}
	results = HybridReranker(milvus, es, nil)
	require.Len(t, results, 2)

	// 全 nil 等价于空输入
	assert.Empty(t, HybridReranker([]*schema.Document{nil, nil}, []*schema.Document{nil}, nil))
}
