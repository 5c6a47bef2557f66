package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/fachebot/discord-digest-bot/internal/config"
	"github.com/fachebot/discord-digest-bot/internal/logger"
	"github.com/fachebot/discord-digest-bot/internal/scheduler"
	"github.com/fachebot/discord-digest-bot/internal/svc"
)

var configFile = flag.String("f", "etc/config.yaml", "the config file")

func main() {
	flag.Parse()

	// 读取配置文件
	c, err := config.LoadFromFile(*configFile)
	if err != nil {
		logger.Fatalf("读取配置文件失败, %s", err)
	}

	// 创建服务上下文
	svcCtx := svc.NewServiceContext(c)

	// 创建调度器
	schedulerInstance := scheduler.NewScheduler(svcCtx.Summarizer, svcCtx.Notifier, c)

	// 未配置 Cron 时单次运行
	if c.Summary.Cron == "" {
		runReport, err := schedulerInstance.RunOnce(context.Background())
		if err != nil {
			logger.Fatalf("运行失败: %s", err)
		}
		if runReport.Failed() > 0 {
			logger.Warnf("部分频道处理失败，详见上方日志")
		}
		return
	}

	// 定时模式
	if err := schedulerInstance.Start(); err != nil {
		logger.Fatalf("[Scheduler] 启动调度器失败: %s", err)
	}

	// 等待程序退出
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	// 优雅关闭
	logger.Infof("正在关闭服务...")
	schedulerInstance.Stop()
	logger.Infof("服务已停止")
}
