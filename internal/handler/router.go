package handler

import (
	"collectmarket/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Manager) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := NewHandler(db, rdb, cfg)

	api := r.Group("/api/v1")
	{
		// 账户相关
		account := api.Group("/account")
		{
			account.GET("/balance", h.GetBalance)
			account.POST("/recharge", h.Recharge)
			account.POST("/activate", h.Activate)
			account.GET("/flows", h.ListFlows)
		}

		// 预约相关
		reserve := api.Group("/reserve")
		{
			reserve.POST("/create", h.CreateReservation)
			reserve.GET("/detail", h.GetReservation)
			reserve.GET("/list", h.ListReservations)
			reserve.POST("/cancel", h.CancelReservation)
			reserve.POST("/match", h.MatchReservation)
			reserve.POST("/refund", h.RefundReservation)
		}

		// 寄售与交易
		consign := api.Group("/consign")
		{
			consign.POST("/create", h.CreateConsignment)
			consign.GET("/detail", h.GetConsignment)
			consign.GET("/list", h.ListConsignments)
			consign.POST("/buy", h.PurchaseConsignment)
			consign.POST("/cancel", h.CancelConsignment)
		}

		// 价格专区
		zone := api.Group("/zone")
		{
			zone.GET("/classify", h.ClassifyPrice)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
