// cmd/api/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"pennywise/internal/ai"
	"pennywise/internal/auth"
	"pennywise/internal/categorize"
	"pennywise/internal/config"
	"pennywise/internal/handler"
	"pennywise/internal/middleware"
	"pennywise/internal/plaid"
	"pennywise/internal/report"
	"pennywise/internal/storage/postgres"
	syncengine "pennywise/internal/sync"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DBConn)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	store := postgres.NewStorage(pool)

	plaidClient := plaid.NewClient(cfg)
	suggester, err := ai.NewGeminiSuggester(ctx, cfg.GeminiModel)
	if err != nil {
		slog.Error("failed to initialize suggester", "error", err)
		os.Exit(1)
	}

	engine := syncengine.NewEngine(plaidClient, store)
	reconciler := categorize.NewReconciler(store, suggester)
	reportSvc := report.NewService(store)

	tokenService := auth.NewTokenService(cfg)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/api/v1/login", func(c *gin.Context) {
		var req struct {
			UserID int64 `json:"user_id" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
			return
		}
		token, err := tokenService.GenerateToken(req.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	accountHandler := handler.NewAccountHandler(store, plaidClient)
	transactionHandler := handler.NewTransactionHandler(store, engine, reconciler)
	categoryHandler := handler.NewCategoryHandler(store)
	budgetHandler := handler.NewBudgetHandler(store, reportSvc)
	summaryHandler := handler.NewSummaryHandler(reportSvc)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.RequireAuth())
	{
		v1.GET("/link/token", accountHandler.CreateLinkToken)
		v1.POST("/accounts", accountHandler.Link)
		v1.GET("/accounts", accountHandler.List)
		v1.DELETE("/accounts/:id", accountHandler.Unlink)

		v1.POST("/transactions", transactionHandler.Create)
		v1.GET("/transactions", transactionHandler.List)
		v1.POST("/transactions/sync", transactionHandler.Sync)
		v1.PATCH("/transactions/categories", transactionHandler.SetCategories)
		v1.POST("/transactions/categorize", transactionHandler.Categorize)
		v1.GET("/transactions/export", transactionHandler.Export)

		v1.GET("/categories", categoryHandler.List)
		v1.POST("/categories", categoryHandler.Create)
		v1.DELETE("/categories/:id", categoryHandler.Delete)

		v1.GET("/budgets", budgetHandler.List)
		v1.POST("/budgets", budgetHandler.Create)
		v1.PATCH("/budgets/:id", budgetHandler.Update)
		v1.DELETE("/budgets/:id", budgetHandler.Delete)

		v1.GET("/summary", summaryHandler.Get)
	}

	slog.Info("server listening", "port", cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}
