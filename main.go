package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/milvus-io/milvus-sdk-go/v2/client"

	"github.com/angelogustilo19/rag-debt-navigator/api/handler"
	"github.com/angelogustilo19/rag-debt-navigator/api/middleware"
	"github.com/angelogustilo19/rag-debt-navigator/api/router"
	"github.com/angelogustilo19/rag-debt-navigator/job"
	"github.com/angelogustilo19/rag-debt-navigator/logic/chat"
	"github.com/angelogustilo19/rag-debt-navigator/logic/compose"
	"github.com/angelogustilo19/rag-debt-navigator/logic/ingestion/transform"
	"github.com/angelogustilo19/rag-debt-navigator/service"
	"github.com/angelogustilo19/rag-debt-navigator/storage/es"
	"github.com/angelogustilo19/rag-debt-navigator/storage/milvus"
	"github.com/angelogustilo19/rag-debt-navigator/storage/postgres"
	"github.com/angelogustilo19/rag-debt-navigator/storage/redis"
	"github.com/angelogustilo19/rag-debt-navigator/vars"
)

func main() {
	ctx := context.Background()

	// .env 不存在也没关系，环境变量照常生效
	_ = godotenv.Load()

	// 1. 初始化 DB（关系库是硬依赖，起不来直接退出）
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		vars.PGHOST, vars.PGUSER, vars.PGPWD, vars.PGDB, vars.PGPORT)
	db, err := postgres.InitDB(dsn)
	if err != nil {
		panic(err)
	}
	userRepo := postgres.NewUserRepo(db)
	debtRepo := postgres.NewDebtRepo(db)

	// 2. LLM 链：Gemini -> OpenAI -> Ollama，key 没配就留空位
	llm := buildProviderChain(ctx)
	composer := compose.New(llm)

	// 3. 知识库 (Milvus + ES + Embedder + Redis)，任一组件挂了就降级
	knowledgeSvc, retrievalSvc := buildKnowledgeStack(ctx)

	cache, err := redis.NewAnswerCache(ctx, vars.REDISADDR)
	if err != nil {
		log.Printf(">>> [启动] Redis 不可用，问答缓存关闭: %v", err)
		cache = nil
	}

	// 4. 业务层
	accountSvc := service.NewAccountService(userRepo, debtRepo)
	querySvc := service.NewQueryService(composer, debtRepo, retrievalSvc, cache)

	// 5. 启动时导入学生贷款统计数据
	if knowledgeSvc != nil {
		if _, statErr := os.Stat(vars.STATS_FILE); statErr == nil {
			go func() {
				if _, n, ingestErr := knowledgeSvc.IngestFile(context.Background(), vars.STATS_FILE); ingestErr != nil {
					log.Printf(">>> [启动] 统计数据导入失败: %v", ingestErr)
				} else {
					log.Printf(">>> [启动] 统计数据导入完成, %d 个 chunk", n)
				}
			}()
		} else {
			log.Printf(">>> [启动] 未找到统计文件 %s，跳过导入", vars.STATS_FILE)
		}
		job.StartCronJob(knowledgeSvc, vars.STATS_FILE)
	}

	// 6. Web Server
	h := handler.NewHandler(accountSvc, querySvc, knowledgeSvc, llm)
	limiter := middleware.NewRateLimiter(60, time.Minute)
	origins := strings.Split(vars.CORS_ORIGINS, ",")

	r := gin.Default()
	router.RegisterRoutes(r, h, limiter, origins)

	log.Println("Server running on :8000")
	if err := r.Run(":8000"); err != nil {
		panic(err)
	}
}

// buildProviderChain 远端模型缺 key 时留在链里报 "Not configured"，
// 本地 Ollama 永远在最后兜底
func buildProviderChain(ctx context.Context) *chat.Fallback {
	gemini := chat.Provider{Name: "gemini"}
	if vars.GEMINI_API_KEY != "" {
		m, err := chat.CreateOpenAIChatModel(ctx, vars.GEMINIBASEURL, vars.GEMINI_API_KEY, vars.GEMINIFLASH)
		if err != nil {
			log.Printf(">>> [启动] Gemini 初始化失败: %v", err)
		} else {
			gemini.Model = m
		}
	}

	openai := chat.Provider{Name: "openai"}
	if vars.OPENAI_API_KEY != "" {
		m, err := chat.CreateOpenAIChatModel(ctx, "", vars.OPENAI_API_KEY, vars.GPT35TURBO)
		if err != nil {
			log.Printf(">>> [启动] OpenAI 初始化失败: %v", err)
		} else {
			openai.Model = m
		}
	}

	ollama := chat.Provider{
		Name:  "ollama",
		Model: chat.CreateOllamaChatModel(ctx, vars.OLLAMA_PATH, vars.OLLAMA_MODEL),
		Local: true,
	}

	return chat.NewFallback(gemini, openai, ollama)
}

// buildKnowledgeStack 组装检索栈，失败返回 (nil, nil)，通用问答降级为无上下文
func buildKnowledgeStack(ctx context.Context) (*service.KnowledgeService, *service.RetrievalService) {
	embedder, err := transform.NewEmbedder(ctx)
	if err != nil {
		log.Printf(">>> [启动] Embedder 不可用，知识库关闭: %v", err)
		return nil, nil
	}

	milvusClient, err := client.NewClient(ctx, client.Config{Address: vars.MILVUSADDR})
	if err != nil {
		log.Printf(">>> [启动] Milvus 连接失败，知识库关闭: %v", err)
		return nil, nil
	}
	log.Println(">>> [启动] Milvus 全局连接已创建")

	idx, err := milvus.NewMilvusIndexerWithClient(ctx, milvusClient, embedder, vars.COLLECTION)
	if err != nil {
		log.Printf(">>> [启动] Milvus 初始化失败，知识库关闭: %v", err)
		return nil, nil
	}

	esIndexer, err := es.NewESIndexer([]string{vars.ESADDR}, vars.ESINDEX)
	if err != nil {
		log.Printf(">>> [启动] ES 初始化失败，知识库关闭: %v", err)
		return nil, nil
	}

	knowledgeSvc := service.NewKnowledgeService(embedder, idx, esIndexer, milvusClient)
	retrievalSvc := service.NewRetrievalService(embedder, milvusClient, esIndexer.GetClient())
	return knowledgeSvc, retrievalSvc
}
