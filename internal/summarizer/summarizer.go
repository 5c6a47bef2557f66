package summarizer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fachebot/discord-digest-bot/internal/config"
	"github.com/fachebot/discord-digest-bot/internal/llm"
	"github.com/fachebot/discord-digest-bot/internal/logger"
	"github.com/fachebot/discord-digest-bot/internal/report"
)

// promptTemplate 固定的摘要指令模板
const promptTemplate = `次の会話を要約してください（日本語）:

%s

要約:
`

// promptReserveTokens 模板本身与格式开销的 token 预留
const promptReserveTokens = 128

// textSummarizer 调用 LLM 生成摘要（便于测试注入 mock）
type textSummarizer interface {
	Summarize(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type Summarizer struct {
	llmClient      textSummarizer
	promptFile     string
	maxInputTokens int
	maxOutput      int
}

func NewSummarizer(llmClient *llm.Client, reportsCfg *config.Reports, llmCfg *config.LLM, summaryCfg *config.Summary) *Summarizer {
	return &Summarizer{
		llmClient:      llmClient,
		promptFile:     reportsCfg.PromptFile,
		maxInputTokens: llmCfg.ContextTokens - summaryCfg.MaxOutputTokens - promptReserveTokens,
		maxOutput:      summaryCfg.MaxOutputTokens,
	}
}

// FormatConversation 将消息格式化为对话文本，每条消息一行 "author: content"
func FormatConversation(messages []report.Message) string {
	lines := make([]string, len(messages))
	for i, msg := range messages {
		lines[i] = fmt.Sprintf("%s: %s", msg.Author, msg.Content)
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt 用固定模板包装对话文本
func BuildPrompt(conversation string) string {
	return fmt.Sprintf(promptTemplate, conversation)
}

// BoundMessages 将消息裁剪到 token 预算内，超出预算时优先丢弃最早的消息
// 至少保留一条消息
func BoundMessages(messages []report.Message, maxTokens int) []report.Message {
	total := 0
	start := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		line := fmt.Sprintf("%s: %s", messages[i].Author, messages[i].Content)
		tokens := llm.EstimateTokens(line)
		if total+tokens > maxTokens && start < len(messages) {
			break
		}
		total += tokens
		start = i
	}
	return messages[start:]
}

// FormatDigest 组装频道摘要的投递文本
func FormatDigest(channel, summary string) string {
	return fmt.Sprintf("📊 **#%s**\n%s", channel, summary)
}

// FormatNoActivity 组装无消息频道的投递文本
func FormatNoActivity(channel string) string {
	return fmt.Sprintf("💤 **#%s** 本日はメッセージがありませんでした", channel)
}

// SummarizeChannel 生成单个频道的摘要
// 频道无消息时不调用模型，返回无消息提示
func (s *Summarizer) SummarizeChannel(ctx context.Context, channel string, messages []report.Message) (*ChannelDigest, error) {
	if len(messages) == 0 {
		logger.Infof("[Summarizer] 频道 #%s 无消息，跳过模型调用", channel)
		return &ChannelDigest{
			Channel:    channel,
			Text:       FormatNoActivity(channel),
			NoActivity: true,
		}, nil
	}

	bounded := BoundMessages(messages, s.maxInputTokens)
	if len(bounded) < len(messages) {
		logger.Warnf("[Summarizer] 频道 #%s 消息超出上下文预算，截断 %d/%d 条早期消息",
			channel, len(messages)-len(bounded), len(messages))
	}

	prompt := BuildPrompt(FormatConversation(bounded))
	s.dumpPrompt(prompt)

	summary, err := s.llmClient.Summarize(ctx, prompt, s.maxOutput)
	if err != nil {
		return nil, fmt.Errorf("频道 #%s 摘要生成失败: %w", channel, err)
	}

	return &ChannelDigest{
		Channel:      channel,
		MessageCount: len(messages),
		Text:         FormatDigest(channel, summary),
	}, nil
}

// dumpPrompt 将提示词写入调试文件，失败只记录日志
func (s *Summarizer) dumpPrompt(prompt string) {
	if s.promptFile == "" {
		return
	}
	if err := os.WriteFile(s.promptFile, []byte(prompt), 0644); err != nil {
		logger.Warnf("[Summarizer] 写入提示词文件失败: %v", err)
		return
	}
	logger.Debugf("[Summarizer] 提示词已写入 %s", s.promptFile)
}
