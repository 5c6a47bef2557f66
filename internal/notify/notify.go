package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fachebot/discord-digest-bot/internal/config"
	"github.com/fachebot/discord-digest-bot/internal/logger"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/proxy"
)

const (
	MaxMessageLength = 2000 // Webhook 单条消息最大长度
)

// webhookPayload Webhook 请求体
type webhookPayload struct {
	Content string `json:"content"`
}

type Notifier struct {
	client *resty.Client
	url    string
}

// NewNotifier 创建 Webhook 通知器
// 启用 SOCKS5 代理时所有请求经代理发出
func NewNotifier(cfg *config.Webhook, proxyCfg *config.Sock5Proxy) (*Notifier, error) {
	client := resty.New()
	client.SetTimeout(1 * time.Minute)

	if proxyCfg != nil && proxyCfg.Enable {
		addr := fmt.Sprintf("%s:%d", proxyCfg.Host, proxyCfg.Port)
		dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("创建SOCKS5代理失败: %w", err)
		}
		client.SetTransport(&http.Transport{Dial: dialer.Dial})
	}

	return &Notifier{
		client: client,
		url:    cfg.URL,
	}, nil
}

// Deliver 投递频道摘要，长消息拆分为多条发送
// 任何一条投递失败即返回错误
func (n *Notifier) Deliver(ctx context.Context, channel, content string) error {
	if content == "" {
		return nil
	}

	messages := splitMessage(content)
	for i, msg := range messages {
		if err := n.post(ctx, msg); err != nil {
			return fmt.Errorf("投递频道 #%s 第 %d/%d 条消息失败: %w", channel, i+1, len(messages), err)
		}
	}

	logger.Infof("[Notify] 频道 #%s 投递完成，共 %d 条消息", channel, len(messages))
	return nil
}

// post 发送单条 Webhook 消息，仅 204 视为成功
func (n *Notifier) post(ctx context.Context, content string) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(webhookPayload{Content: content}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("发送Webhook请求失败: %w", err)
	}

	if resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("Webhook返回非预期状态码: %d", resp.StatusCode())
	}
	return nil
}

// splitMessage 将消息按长度拆分为多条，优先按段落、换行边界切分
func splitMessage(content string) []string {
	if len(content) <= MaxMessageLength {
		return []string{content}
	}

	// 按段落拆分
	paragraphs := strings.Split(content, "\n\n")
	if len(paragraphs) == 1 {
		// 如果没有段落分隔，按换行拆分
		paragraphs = strings.Split(content, "\n")
	}

	messages := make([]string, 0)
	currentMsg := ""

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		testMsg := currentMsg
		if testMsg != "" {
			testMsg += "\n\n"
		}
		testMsg += para

		if len(testMsg) <= MaxMessageLength {
			currentMsg = testMsg
			continue
		}

		// 当前消息已满，保存并开始新消息
		if currentMsg != "" {
			messages = append(messages, currentMsg)
			currentMsg = ""
		}

		// 单个段落仍超长时按字节上限硬切，注意不要切断 UTF-8 字符
		for len(para) > MaxMessageLength {
			cut := MaxMessageLength
			for cut > 0 && !isRuneStart(para[cut]) {
				cut--
			}
			if cut == 0 {
				cut = MaxMessageLength
			}
			messages = append(messages, para[:cut])
			para = para[cut:]
		}
		currentMsg = para
	}

	if currentMsg != "" {
		messages = append(messages, currentMsg)
	}

	return messages
}

// isRuneStart 判断字节是否为 UTF-8 字符首字节
func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
