package chat

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/angelogustilo19/rag-debt-navigator/vars"
)

// CreateOpenAIChatModel OpenAI 协议的远端模型
// Gemini 也走这里：baseURL 换成它的 OpenAI 兼容接入点即可，不用多引一个 SDK
func CreateOpenAIChatModel(ctx context.Context, baseURL, apiKey, modelName string) (model.ToolCallingChatModel, error) {
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
		Timeout: vars.LLMTimeout,
	})
}
