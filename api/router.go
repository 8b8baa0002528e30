package api

import (
	"net/http"

	"api_transactions/internal/transactions"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitRoutes registers the dashboard endpoints on the given Gin engine.
// The service and its storage are built by the caller, which owns their lifecycle.
func InitRoutes(e *gin.Engine, service *transactions.Service, logger *zap.Logger, allowOrigins []string) {
	e.Use(requestLogger(logger))
	e.Use(cors.New(corsConfig(allowOrigins)))

	h := NewTransactionsHandler(service, logger)

	e.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the transactions dashboard API"})
	})
	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	g := e.Group("/api")
	g.POST("/initialize", h.handleInitialize)
	g.GET("/initialize", h.handleInitialize)
	g.GET("/transactions", h.handleListTransactions)
	g.GET("/transactions/:id", h.handleGetTransaction)
	g.GET("/statistics", h.handleStatistics)
	g.GET("/bar-chart", h.handleBarChart)
	g.GET("/pie-chart", h.handlePieChart)
	g.GET("/combined", h.handleCombined)
}

func corsConfig(allowOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
	}
	for _, o := range allowOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(allowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowOrigins
	return cfg
}
