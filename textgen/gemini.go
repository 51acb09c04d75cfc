package textgen

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultModel 是默认的 Gemini 模型。
const DefaultModel = "gemini-2.5-flash"

// Gemini 通过 google.golang.org/genai 调用 Gemini API。
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Generator = (*Gemini)(nil)

// NewGemini 创建 Gemini 后端。
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("缺少 API Key")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Generate 以纯文本提示词请求一次生成。
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// FromEnv 从环境变量读取凭据创建 Client。凭据缺失或后端创建失败时，
// 返回的 Client 对所有请求给出 MsgMissingKey，与未配置密钥时的界面行为一致。
func FromEnv(ctx context.Context, envVar, model string, opts Options) *Client {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if envVar == "" {
		envVar = "API_KEY"
	}
	key := os.Getenv(envVar)
	if key == "" {
		log.Warn().Str("env", envVar).Msg("未找到 API Key 环境变量")
		return New(nil, opts)
	}
	gen, err := NewGemini(ctx, key, model)
	if err != nil {
		log.Error().Err(err).Msg("Gemini 后端不可用")
		return New(nil, opts)
	}
	return New(gen, opts)
}
