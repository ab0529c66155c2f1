package redis

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cespare/xxhash/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelogustilo19/rag-debt-navigator/vars"
)

// AnswerCache 缓存通用问答的回复，避免同一个问题反复打 LLM
// 只用于 general 类问题，带用户债务上下文的回答不能缓存
type AnswerCache struct {
	client *goredis.Client
}

// NewAnswerCache 连接 Redis，ping 不通返回错误由调用方决定是否降级
func NewAnswerCache(ctx context.Context, addr string) (*AnswerCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	log.Println("Redis connected successfully")
	return &AnswerCache{client: client}, nil
}

// cacheKey 问题归一化（小写 + 压缩空白）后取 xxhash，保证同义大小写命中同一条
func cacheKey(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	return fmt.Sprintf("answer:%x", xxhash.Sum64String(normalized))
}

// Get 命中返回 (answer, true)，未命中或 Redis 出错都当 miss 处理
func (c *AnswerCache) Get(ctx context.Context, question string) (string, bool) {
	val, err := c.client.Get(ctx, cacheKey(question)).Result()
	if err != nil {
		if err != goredis.Nil {
			fmt.Printf(">>> [Cache] redis get 失败: %v\n", err)
		}
		return "", false
	}
	return val, true
}

// Set 写入失败只打日志，不阻塞回答
func (c *AnswerCache) Set(ctx context.Context, question, answer string) {
	if err := c.client.Set(ctx, cacheKey(question), answer, vars.CacheTTL).Err(); err != nil {
		fmt.Printf(">>> [Cache] redis set 失败: %v\n", err)
	}
}
