package handler

import (
	"onlinebank/internal/config"
	"onlinebank/internal/infrastructure/lock"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, locker lock.AccountLocker, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := NewHandler(db, locker, cfg)

	api := r.Group("/api/v1")
	{
		// 无需认证
		api.POST("/auth", h.Auth)
		api.POST("/users", h.Register)

		// 需要令牌认证
		authed := api.Group("")
		authed.Use(AuthMiddleware(h.userService))
		{
			authed.GET("/users/:id", h.GetUser)
			authed.DELETE("/users/:id", h.DeactivateUser)

			account := authed.Group("/account")
			{
				account.GET("", h.ListAccounts)
				account.GET("/:id", h.GetAccount)
				account.POST("", h.OpenAccount)
			}

			action := authed.Group("/action")
			{
				action.GET("", h.ListActions)
				action.POST("", h.CreateAction)
			}

			transaction := authed.Group("/transaction")
			{
				transaction.GET("", h.ListTransactions)
				transaction.POST("", h.CreateTransaction)
			}

			transfer := authed.Group("/transfer")
			{
				transfer.GET("", h.ListTransfers)
				transfer.POST("", h.CreateTransfer)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
