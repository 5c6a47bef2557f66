package summarizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fachebot/discord-digest-bot/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTextSummarizer 用于测试的 textSummarizer mock
type mockTextSummarizer struct {
	summary string
	err     error
	calls   int
	prompts []string
}

func (m *mockTextSummarizer) Summarize(ctx context.Context, prompt string, maxTokens int) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.summary, nil
}

func newTestSummarizer(mock textSummarizer, promptFile string) *Summarizer {
	return &Summarizer{
		llmClient:      mock,
		promptFile:     promptFile,
		maxInputTokens: 2048 - 500 - promptReserveTokens,
		maxOutput:      500,
	}
}

func TestFormatConversation(t *testing.T) {
	tests := []struct {
		name     string
		messages []report.Message
		want     string
	}{
		{"空消息", nil, ""},
		{
			"单条消息",
			[]report.Message{{Author: "alice", Content: "hello"}},
			"alice: hello",
		},
		{
			"多条消息保持顺序",
			[]report.Message{
				{Author: "alice", Content: "おはよう"},
				{Author: "bob", Content: "hi"},
				{Author: "alice", Content: "進捗どう？"},
			},
			"alice: おはよう\nbob: hi\nalice: 進捗どう？",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatConversation(tt.messages))
		})
	}
}

func TestFormatConversation_OneLinePerMessage(t *testing.T) {
	messages := make([]report.Message, 10)
	for i := range messages {
		messages[i] = report.Message{Author: "u", Content: fmt.Sprintf("msg-%d", i)}
	}
	got := FormatConversation(messages)
	assert.Len(t, strings.Split(got, "\n"), 10)
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("alice: hello")
	assert.Contains(t, got, "次の会話を要約してください")
	assert.Contains(t, got, "alice: hello")
	assert.Contains(t, got, "要約:")
}

func TestBoundMessages(t *testing.T) {
	messages := make([]report.Message, 50)
	for i := range messages {
		messages[i] = report.Message{Author: "user", Content: "これはそれなりに長いテスト用のメッセージです"}
	}

	t.Run("预算充足时全部保留", func(t *testing.T) {
		got := BoundMessages(messages, 1000000)
		assert.Len(t, got, 50)
	})

	t.Run("超出预算时丢弃最早的消息", func(t *testing.T) {
		got := BoundMessages(messages, 100)
		assert.NotEmpty(t, got)
		assert.Less(t, len(got), 50)
		// 保留的是末尾的后缀
		assert.Equal(t, messages[50-len(got):], got)
	})

	t.Run("预算极小时至少保留一条", func(t *testing.T) {
		got := BoundMessages(messages, 1)
		assert.Len(t, got, 1)
		assert.Equal(t, messages[49], got[0])
	})
}

func TestSummarizeChannel_Empty(t *testing.T) {
	mock := &mockTextSummarizer{summary: "should not be used"}
	s := newTestSummarizer(mock, "")

	digest, err := s.SummarizeChannel(context.Background(), "general", nil)
	require.NoError(t, err)
	assert.True(t, digest.NoActivity)
	assert.Contains(t, digest.Text, "#general")
	assert.Contains(t, digest.Text, "メッセージがありませんでした")
	// 空频道不应调用模型
	assert.Zero(t, mock.calls)
}

func TestSummarizeChannel_Success(t *testing.T) {
	mock := &mockTextSummarizer{summary: "技術的な話題が中心でした。"}
	s := newTestSummarizer(mock, "")

	messages := []report.Message{
		{Author: "alice", Content: "デプロイ完了"},
		{Author: "bob", Content: "お疲れ様"},
	}
	digest, err := s.SummarizeChannel(context.Background(), "dev", messages)
	require.NoError(t, err)
	assert.False(t, digest.NoActivity)
	assert.Equal(t, 2, digest.MessageCount)
	assert.Contains(t, digest.Text, "#dev")
	assert.Contains(t, digest.Text, "技術的な話題が中心でした。")
	assert.Equal(t, 1, mock.calls)
	// 提示词应逐行包含对话内容
	assert.Contains(t, mock.prompts[0], "alice: デプロイ完了\nbob: お疲れ様")
}

func TestSummarizeChannel_LLMError(t *testing.T) {
	mock := &mockTextSummarizer{err: errors.New("model not loaded")}
	s := newTestSummarizer(mock, "")

	messages := []report.Message{{Author: "alice", Content: "hi"}}
	_, err := s.SummarizeChannel(context.Background(), "dev", messages)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "摘要生成失败")
}

func TestSummarizeChannel_DumpsPromptFile(t *testing.T) {
	promptFile := filepath.Join(t.TempDir(), "prompt.txt")
	mock := &mockTextSummarizer{summary: "ok"}
	s := newTestSummarizer(mock, promptFile)

	messages := []report.Message{{Author: "alice", Content: "hello"}}
	_, err := s.SummarizeChannel(context.Background(), "general", messages)
	require.NoError(t, err)

	data, err := os.ReadFile(promptFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "alice: hello")
	assert.Contains(t, string(data), "次の会話を要約してください")
}
