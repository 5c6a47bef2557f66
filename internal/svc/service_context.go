package svc

import (
	"github.com/fachebot/discord-digest-bot/internal/config"
	"github.com/fachebot/discord-digest-bot/internal/llm"
	"github.com/fachebot/discord-digest-bot/internal/logger"
	"github.com/fachebot/discord-digest-bot/internal/notify"
	"github.com/fachebot/discord-digest-bot/internal/summarizer"
)

type ServiceContext struct {
	Config     *config.Config
	LLMClient  *llm.Client
	Summarizer *summarizer.Summarizer
	Notifier   *notify.Notifier
}

func NewServiceContext(c *config.Config) *ServiceContext {
	llmClient := llm.NewClient(&c.LLM)

	notifier, err := notify.NewNotifier(&c.Webhook, &c.Sock5Proxy)
	if err != nil {
		logger.Fatalf("创建Webhook通知器失败, %v", err)
	}

	return &ServiceContext{
		Config:     c,
		LLMClient:  llmClient,
		Summarizer: summarizer.NewSummarizer(llmClient, &c.Reports, &c.LLM, &c.Summary),
		Notifier:   notifier,
	}
}
