package generator

import (
	"context"

	"github.com/cockroachdb/errors"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// NewLLM picks the client implementation for settings.Provider.
func NewLLM(ctx context.Context, settings *LLMSettings) (LLMClient, error) {
	if settings == nil || settings.Provider == "" {
		return nil, errors.New("llm config missing; please set llm.provider/model/api_key in config")
	}
	switch settings.Provider {
	case "openai":
		return NewOpenAILLMFromConfig(settings)
	case "openrouter":
		s := *settings
		if s.BaseURL == "" {
			s.BaseURL = openRouterBaseURL
		}
		return NewOpenAILLMFromConfig(&s)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if settings.BaseURL == "" {
			return nil, errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return NewOpenAILLMFromConfig(settings)
	case "gemini":
		return NewGeminiLLMFromConfig(ctx, settings)
	case "mock":
		return MockLLM{}, nil
	default:
		return nil, errors.Newf("llm provider %s not supported", settings.Provider)
	}
}
