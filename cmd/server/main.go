package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collectmarket/internal/config"
	"collectmarket/internal/handler"
	"collectmarket/internal/infrastructure/cache"
	"collectmarket/internal/infrastructure/database"
	"collectmarket/internal/infrastructure/mq"
	"collectmarket/internal/job"
	"collectmarket/pkg/idgen"
)

func main() {
	// 加载配置（支持热更新，业务参数改动无需重启）
	cfg := config.Load("config/config.yaml")

	// 初始化 ID 生成器
	idgen.Init(1)

	// 初始化 MySQL
	db := database.InitMySQL(&cfg.Get().MySQL)

	// 初始化 Redis
	redisClient := cache.InitRedis(&cfg.Get().Redis)

	// 初始化 Kafka
	mq.InitKafka(&cfg.Get().Kafka)
	defer mq.CloseKafka()

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动后台任务
	outboxSender := job.NewOutboxSender(db, cfg)
	go outboxSender.Start(ctx)

	expireJob := job.NewConsignExpireJob(db, redisClient, cfg)
	go expireJob.Start(ctx)

	// 设置路由
	router := handler.SetupRouter(db, redisClient, cfg)

	// 启动 HTTP 服务
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Get().Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("服务启动，监听端口: %d", cfg.Get().Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 取消上下文，停止后台任务
	cancel()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("服务关闭异常: %v", err)
	}

	log.Println("服务已关闭")
}
