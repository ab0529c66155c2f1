package router

import (
	"github.com/gin-gonic/gin"

	"github.com/angelogustilo19/rag-debt-navigator/api/handler"
	"github.com/angelogustilo19/rag-debt-navigator/api/middleware"
)

func RegisterRoutes(r *gin.Engine, h *handler.Handler, limiter *middleware.RateLimiter, corsOrigins []string) {
	r.Use(middleware.CORS(corsOrigins))

	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
		}

		debt := api.Group("/debt")
		{
			debt.POST("", h.CreateDebt)
			debt.GET("/list/:user_id", h.ListDebts)
		}

		api.DELETE("/user/:user_id", h.DeleteUser)

		// 问答和计算接口走限流，CRUD 不用
		chat := api.Group("/chat", middleware.RateLimit(limiter))
		{
			chat.POST("/ask", h.Ask)
			chat.GET("/status", h.LLMStatus)
		}

		calc := api.Group("/calc", middleware.RateLimit(limiter))
		{
			calc.POST("/payoff_time", h.PayoffTime)
			calc.POST("/monthly_payment", h.MonthlyPayment)
			calc.POST("/repayment_plan", h.RepaymentPlan)
		}

		knowledge := api.Group("/knowledge")
		{
			knowledge.POST("/upload", h.UploadKnowledge)
		}
	}
}
