package chat

import (
	"context"
	"log"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
)

// CreateOllamaChatModel 本地兜底模型，Ollama 起不来直接 Fatal
func CreateOllamaChatModel(ctx context.Context, url string, modelName string) model.ToolCallingChatModel {
	chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: url,       // Ollama 服务地址
		Model:   modelName, // 模型名称
	})
	if err != nil {
		log.Fatalf("create ollama chat model failed: %v", err)
	}
	return chatModel
}
