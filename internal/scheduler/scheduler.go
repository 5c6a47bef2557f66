package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fachebot/discord-digest-bot/internal/config"
	"github.com/fachebot/discord-digest-bot/internal/logger"
	"github.com/fachebot/discord-digest-bot/internal/notify"
	"github.com/fachebot/discord-digest-bot/internal/report"
	"github.com/fachebot/discord-digest-bot/internal/summarizer"
	"github.com/robfig/cron/v3"
)

// channelSummarizer 生成单频道摘要（便于测试注入 mock）
type channelSummarizer interface {
	SummarizeChannel(ctx context.Context, channel string, messages []report.Message) (*summarizer.ChannelDigest, error)
}

// deliverer 投递摘要（便于测试注入 mock）
type deliverer interface {
	Deliver(ctx context.Context, channel, content string) error
}

// ChannelResult 单个频道的运行结果
type ChannelResult struct {
	Channel      string
	MessageCount int
	NoActivity   bool
	Err          error
}

// RunReport 单次运行的汇总结果
type RunReport struct {
	Folder  string
	Results []ChannelResult
}

// Failed 返回处理失败的频道数
func (r *RunReport) Failed() int {
	count := 0
	for _, result := range r.Results {
		if result.Err != nil {
			count++
		}
	}
	return count
}

type Scheduler struct {
	cron       *cron.Cron
	summarizer channelSummarizer
	notifier   deliverer
	config     *config.Config
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.Mutex
}

// locUTC UTC 标准时间（UTC）
var locUTC = time.UTC

func NewScheduler(s *summarizer.Summarizer, notifier *notify.Notifier, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(locUTC)),
		summarizer: s,
		notifier:   notifier,
		config:     cfg,
	}
}

// RunOnce 执行一次完整的摘要投递流程
// 定位最新报告目录失败为致命错误；单个频道的失败记录后继续处理后续频道
func (s *Scheduler) RunOnce(ctx context.Context) (*RunReport, error) {
	folder, err := report.LatestFolder(s.config.Reports.Dir)
	if err != nil {
		return nil, fmt.Errorf("定位最新报告目录失败: %w", err)
	}
	logger.Infof("[Scheduler] 最新报告目录: %s (mtime=%s)", folder.Path, folder.ModTime.Format("2006-01-02 15:04:05"))

	files, err := folder.ChannelFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("报告目录中没有频道文件: %s", folder.Path)
	}
	logger.Infof("[Scheduler] 找到 %d 个频道文件", len(files))

	runReport := &RunReport{Folder: folder.Path}
	for _, file := range files {
		select {
		case <-ctx.Done():
			return runReport, fmt.Errorf("任务已取消")
		default:
		}
		runReport.Results = append(runReport.Results, s.processChannel(ctx, file))
	}

	s.logReport(runReport)
	return runReport, nil
}

// processChannel 处理单个频道：读取、摘要（或跳过）、投递
func (s *Scheduler) processChannel(ctx context.Context, file string) ChannelResult {
	channel := report.ChannelName(file)
	result := ChannelResult{Channel: channel}

	messages, err := report.LoadMessages(file)
	if err != nil {
		logger.Errorf("[Scheduler] 频道 #%s 读取消息失败: %v", channel, err)
		result.Err = err
		return result
	}
	result.MessageCount = len(messages)

	digest, err := s.summarizer.SummarizeChannel(ctx, channel, messages)
	if err != nil {
		// 单个频道的模型失败不中断整批处理
		logger.Errorf("[Scheduler] 频道 #%s 摘要失败，跳过: %v", channel, err)
		result.Err = err
		return result
	}
	result.NoActivity = digest.NoActivity

	if err := s.notifier.Deliver(ctx, channel, digest.Text); err != nil {
		logger.Errorf("[Scheduler] 频道 #%s 投递失败: %v", channel, err)
		result.Err = err
		return result
	}

	if digest.NoActivity {
		logger.Infof("[Scheduler] ✅ 频道 #%s: 无消息提示已投递", channel)
	} else {
		logger.Infof("[Scheduler] ✅ 频道 #%s: 摘要已投递 (%d 条消息)", channel, result.MessageCount)
	}
	return result
}

// logReport 输出运行汇总
func (s *Scheduler) logReport(r *RunReport) {
	failed := r.Failed()
	if failed == 0 {
		logger.Infof("[Scheduler] 运行完成: %d 个频道全部成功", len(r.Results))
		return
	}
	logger.Warnf("[Scheduler] ⚠️ 运行完成: 成功 %d 个，失败 %d 个", len(r.Results)-failed, failed)
	for _, result := range r.Results {
		if result.Err != nil {
			logger.Warnf("[Scheduler] ⚠️ 频道 #%s 失败: %v", result.Channel, result.Err)
		}
	}
}

// Start 启动定时模式，按 Summary.Cron 周期执行
func (s *Scheduler) Start() error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	_, err := s.cron.AddFunc(s.config.Summary.Cron, s.runScheduled)
	if err != nil {
		return fmt.Errorf("注册定时摘要任务失败: %w", err)
	}

	s.cron.Start()
	logger.Infof("[Scheduler] 调度器已启动，定时摘要任务: %s", s.config.Summary.Cron)
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Infof("[Scheduler] 调度器已停止")
}

// runScheduled 定时任务入口（cron 触发）
func (s *Scheduler) runScheduled() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		logger.Infof("[Scheduler] 任务已取消，退出")
		return
	default:
	}

	if _, err := s.RunOnce(ctx); err != nil {
		logger.Errorf("[Scheduler] 定时摘要执行失败: %v", err)
	}
}
