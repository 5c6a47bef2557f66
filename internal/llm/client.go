package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fachebot/discord-digest-bot/internal/config"
	"github.com/sashabaranov/go-openai"
)

// openAIClientInterface 定义 OpenAI 客户端接口，便于测试
type openAIClientInterface interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	config       *config.LLM
	openaiClient openAIClientInterface
}

// NewClient 创建指向本地 llama-server OpenAI 兼容端点的客户端
func NewClient(cfg *config.LLM) *Client {
	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	openaiConfig.BaseURL = cfg.BaseURL

	return &Client{
		config:       cfg,
		openaiClient: openai.NewClientWithConfig(openaiConfig),
	}
}

// EstimateTokens 估算文本的 token 数量
// 简单估算：CJK 约 1.5 token/字，其余按词 1.3 token/词，下限为字符数的 1/4
func EstimateTokens(text string) int {
	cjkChars := 0
	for _, r := range text {
		if (r >= 0x3040 && r <= 0x30ff) || (r >= 0x4e00 && r <= 0x9fff) {
			cjkChars++
		}
	}

	words := strings.Fields(text)

	tokens := int(float64(cjkChars)*1.5 + float64(len(words))*1.3)
	if tokens < len(text)/4 {
		tokens = len(text) / 4
	}
	return tokens
}

// Summarize 对给定提示词生成一段摘要文本
// maxTokens 为输出 token 预算；摘要内容不保证确定性，调用方只应依赖其非空
func (c *Client) Summarize(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   maxTokens,
	}

	resp, err := c.openaiClient.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("调用 LLM API 失败: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM API 返回空结果")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("LLM API 返回空内容")
	}
	return content, nil
}
