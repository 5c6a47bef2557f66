package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WebhookURLEnv Webhook URL 的环境变量名，配置文件中 Webhook.URL 为空时读取
const WebhookURLEnv = "WEBHOOK_URL"

type Sock5Proxy struct {
	Host   string `yaml:"Host"`
	Port   int32  `yaml:"Port"`
	Enable bool   `yaml:"Enable"`
}

type Reports struct {
	Dir        string `yaml:"Dir"`        // 报告根目录，每个子目录为一次采集
	PromptFile string `yaml:"PromptFile"` // 可选，提示词调试输出文件路径
}

type LLM struct {
	BaseURL       string `yaml:"BaseURL"`       // 本地 llama-server 的 OpenAI 兼容端点
	APIKey        string `yaml:"APIKey"`        // 本地服务一般填任意值，但不能为空
	Model         string `yaml:"Model"`         // 服务端暴露的模型名
	ContextTokens int    `yaml:"ContextTokens"` // 模型上下文窗口大小 (n_ctx)
}

type Webhook struct {
	URL string `yaml:"URL"` // 为空时回退读取 WEBHOOK_URL 环境变量
}

type Summary struct {
	MaxOutputTokens int    `yaml:"MaxOutputTokens"` // 摘要输出 token 预算
	Cron            string `yaml:"Cron"`            // cron 表达式，为空表示单次运行
}

type Config struct {
	Reports    Reports    `yaml:"Reports"`
	LLM        LLM        `yaml:"LLM"`
	Webhook    Webhook    `yaml:"Webhook"`
	Sock5Proxy Sock5Proxy `yaml:"Sock5Proxy"`
	Summary    Summary    `yaml:"Summary"`
}

func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var c Config
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return nil, err
	}

	// Webhook URL 允许通过环境变量提供
	if c.Webhook.URL == "" {
		c.Webhook.URL = os.Getenv(WebhookURLEnv)
	}

	// 验证配置
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	// 验证 Reports
	if c.Reports.Dir == "" {
		return fmt.Errorf("Reports.Dir 不能为空")
	}

	// 验证 LLM
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("LLM.BaseURL 不能为空")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM.APIKey 不能为空")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM.Model 不能为空")
	}
	if c.LLM.ContextTokens <= 0 {
		return fmt.Errorf("LLM.ContextTokens 必须大于 0")
	}

	// 验证 Webhook
	if c.Webhook.URL == "" {
		return fmt.Errorf("Webhook.URL 不能为空（可通过 %s 环境变量提供）", WebhookURLEnv)
	}

	// 验证 Summary
	if c.Summary.MaxOutputTokens <= 0 {
		return fmt.Errorf("Summary.MaxOutputTokens 必须大于 0")
	}
	if c.Summary.MaxOutputTokens >= c.LLM.ContextTokens {
		return fmt.Errorf("Summary.MaxOutputTokens 必须小于 LLM.ContextTokens")
	}

	return nil
}
