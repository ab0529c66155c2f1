package vars

import (
	"os"
	"time"
)

// GetEnv 获取环境变量，如果不存在则返回默认值
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

const (
	// 模型名称
	GEMINIFLASH = "gemini-2.5-flash"
	GPT35TURBO  = "gpt-3.5-turbo"
	LLAMA31     = "llama3.1:8b"
	NOMIC       = "nomic-embed-text"

	// Gemini 的 OpenAI 兼容接入点
	GEMINIBASEURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

	// Milvus Collection / ES Index 名称
	COLLECTION = "loan_stats_collection_v1"
	ESINDEX    = "loan_stats_chunks_v1"

	// 知识库数据集标识
	DATASET = "student_loan_stats"

	// CSV 按行切块大小（12 行 = 一年的月度数据放一起）
	CSVCHUNKROWS = 12

	// 混合检索返回条数
	TOPK = 10
)

var (
	// LLM 调用超时，超时后 composer 降级为模板回复
	LLMTimeout = 30 * time.Second

	// 通用问答的缓存时间
	CacheTTL = time.Hour
)

// 环境变量配置（支持 Docker 部署）
var (
	// OLLAMA
	OLLAMA_PATH  = GetEnv("OLLAMA_BASE_URL", "http://localhost:11434")
	OLLAMA_MODEL = GetEnv("OLLAMA_MODEL", LLAMA31)

	// 远端 LLM，key 为空时对应 provider 不启用
	GEMINI_API_KEY = GetEnv("GEMINI_API_KEY", "")
	OPENAI_API_KEY = GetEnv("OPENAI_API_KEY", "")

	// PG
	PGUSER = GetEnv("PGUSER", "root")
	PGPWD  = GetEnv("PGPWD", "root")
	PGDB   = GetEnv("PGDB", "momentumDB")
	PGHOST = GetEnv("PGHOST", "localhost")
	PGPORT = GetEnv("PGPORT", "5432")

	// Milvus
	MILVUSADDR = GetEnv("MILVUSADDR", "127.0.0.1:19530")

	// ES
	ESADDR = GetEnv("ESADDR", "http://localhost:9200")

	// Redis
	REDISADDR = GetEnv("REDISADDR", "localhost:6379")

	// CORS
	CORS_ORIGINS = GetEnv("CORS_ORIGINS", "http://localhost,http://localhost:3000")

	// 启动时自动导入的学生贷款统计数据
	STATS_FILE = GetEnv("STATS_FILE", "data/TOTALSL.csv")
)

// 提示词
const (
	// 通用问答 Prompt，{{.Context}} 为检索到的知识库内容（可为空）
	GENERALPROMPT = `You are Momentum AI, a helpful and friendly assistant.
Your goal is to provide accurate, conversational, and engaging answers to a wide range of questions.
If a question is unclear, ask for clarification.
If you don't know the answer to a question, say so honestly.
If it is helpful, you are encouraged to suggest reputable websites where the user can find more information.
{{.Context}}
Question: {{.Question}}
Answer:`

	// 财务结果解释 Prompt：只允许解释数字，不允许重新计算
	EXPLAINPROMPT = `You are a helpful and friendly financial assistant.
A user asked the following question: '{{.Question}}'

Based on their numbers, I have performed the following calculation:
{{.Facts}}

Now, please present this information back to the user in a comprehensive, conversational, and easy-to-understand way.
Do not recompute or change any of the numbers above.
Be encouraging and offer one or two general tips for paying off debt faster (like making extra payments or looking for a lower interest rate).
Explain what the numbers mean in a clear and helpful manner.`
)
