package job

import (
	"context"
	"log"
	"time"

	"collectmarket/internal/config"
	"collectmarket/internal/service"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ConsignExpireJob 定期捞取到期未售出的在架寄售单并流拍下架。
// 单行事务逐条处理，单条失败不影响其余；状态守卫保证与并发购买不冲突。
type ConsignExpireJob struct {
	db         *gorm.DB
	consignSvc *service.ConsignService
	cfg        *config.Manager
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
}

func NewConsignExpireJob(db *gorm.DB, redisClient *redis.Client, cfg *config.Manager) *ConsignExpireJob {
	return &ConsignExpireJob{
		db:         db,
		consignSvc: service.NewConsignService(db, redisClient, cfg),
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		interval:   10 * time.Second,
		batchSize:  100,
	}
}

func (j *ConsignExpireJob) Start(ctx context.Context) {
	log.Println("[ConsignExpireJob] 寄售流拍任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[ConsignExpireJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[ConsignExpireJob] 任务停止")
			return
		case <-ticker.C:
			j.expireListings(ctx)
		}
	}
}

func (j *ConsignExpireJob) Stop() {
	close(j.stopCh)
}

func (j *ConsignExpireJob) expireListings(ctx context.Context) {
	listings, err := j.consignSvc.ListExpired(ctx, j.batchSize)
	if err != nil {
		log.Printf("[ConsignExpireJob] 查询到期寄售单失败: %v", err)
		return
	}

	if len(listings) == 0 {
		return
	}

	log.Printf("[ConsignExpireJob] 发现 %d 个到期寄售单", len(listings))

	expiredCount := 0
	for _, csg := range listings {
		if err := j.consignSvc.Expire(ctx, csg.ID); err != nil {
			log.Printf("[ConsignExpireJob] 流拍下架失败: consignNo=%s, err=%v", csg.ConsignNo, err)
			continue
		}
		expiredCount++
		log.Printf("[ConsignExpireJob] 寄售单已流拍下架: consignNo=%s, sellerID=%d, price=%d",
			csg.ConsignNo, csg.SellerID, csg.ListPrice)
	}

	log.Printf("[ConsignExpireJob] 本次流拍下架 %d 个寄售单", expiredCount)
}
