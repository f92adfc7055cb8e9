package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/myrizq/rizq/internal/buildinfo"
	"github.com/myrizq/rizq/internal/service"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(svc *service.LedgerService, logger *slog.Logger) *gin.Engine {
	h := NewHandler(svc, logger)

	r := gin.New()
	r.Use(requestLogger(h.logger), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok", "build": buildinfo.Get()}) })
	r.GET("/metrics", gin.WrapH(svc.Metrics().Handler()))

	v1 := r.Group("/api/v1", withSession())
	{
		v1.GET("/summary", h.summary)
		v1.GET("/activity", h.activity)
		v1.GET("/export", h.export)
		v1.POST("/import", h.importStatement)
		v1.POST("/import/journal", h.importJournal)

		accounts := v1.Group("/accounts")
		accounts.GET("", h.listAccounts)
		accounts.POST("", h.createAccount)
		accounts.GET("/:id", h.getAccount)
		accounts.PATCH("/:id", h.updateAccount)

		txns := v1.Group("/transactions")
		txns.GET("", h.listTransactions)
		txns.POST("", h.recordTransaction)

		cats := v1.Group("/categories")
		cats.GET("", h.listCategories)
		cats.POST("", h.createCategory)

		budgets := v1.Group("/budgets")
		budgets.GET("", h.listBudgets)
		budgets.POST("", h.createBudget)
		budgets.GET("/:id", h.getBudget)
		budgets.PATCH("/:id", h.updateBudget)
		budgets.POST("/:id/cancel", cancelWith(h, svc.CancelBudget))

		goals := v1.Group("/goals")
		goals.GET("", h.listGoals)
		goals.POST("", h.createGoal)
		goals.GET("/:id", h.getGoal)
		goals.PATCH("/:id", h.updateGoal)
		goals.POST("/:id/cancel", cancelWith(h, svc.CancelGoal))

		loans := v1.Group("/loans")
		loans.GET("", h.listLoans)
		loans.POST("", h.createLoan)
		loans.GET("/:id", h.getLoan)
		loans.PATCH("/:id", h.updateLoan)
		loans.POST("/:id/cancel", cancelWith(h, svc.CancelLoan))
	}
	return r
}
