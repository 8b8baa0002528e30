package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"api_transactions/internal/transactions"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// transactionsHandler holds the transactions service and implements the dashboard HTTP handlers.
type transactionsHandler struct {
	service *transactions.Service
	logger  *zap.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(service *transactions.Service, logger *zap.Logger) *transactionsHandler {
	return &transactionsHandler{
		service: service,
		logger:  logger,
	}
}

// handleInitialize handles POST /api/initialize.
func (h *transactionsHandler) handleInitialize(ctx *gin.Context) {
	n, err := h.service.Initialize(ctx.Request.Context())
	if err != nil {
		h.logger.Error("failed to initialize database", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Error initializing database",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Database initialized successfully", "count": n})
}

// handleListTransactions handles GET /api/transactions.
func (h *transactionsHandler) handleListTransactions(ctx *gin.Context) {
	month := queryInt(ctx, "month", 0)
	search := ctx.Query("search")
	page := queryInt(ctx, "page", transactions.DefaultPage)
	perPage := queryInt(ctx, "perPage", transactions.DefaultPerPage)

	result, err := h.service.List(ctx.Request.Context(), month, search, page, perPage)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// handleGetTransaction handles GET /api/transactions/:id.
func (h *transactionsHandler) handleGetTransaction(ctx *gin.Context) {
	t, err := h.service.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *transactionsHandler) handleStatistics(ctx *gin.Context) {
	stats, err := h.service.Statistics(ctx.Request.Context(), queryInt(ctx, "month", 0))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

func (h *transactionsHandler) handleBarChart(ctx *gin.Context) {
	bars, err := h.service.BarChart(ctx.Request.Context(), queryInt(ctx, "month", 0))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, bars)
}

func (h *transactionsHandler) handlePieChart(ctx *gin.Context) {
	slices, err := h.service.PieChart(ctx.Request.Context(), queryInt(ctx, "month", 0))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, slices)
}

// handleCombined handles GET /api/combined. A missing or non-numeric month is rejected with 400.
func (h *transactionsHandler) handleCombined(ctx *gin.Context) {
	combined, err := h.service.Combined(ctx.Request.Context(), queryInt(ctx, "month", 0))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, combined)
}

// respondError maps service errors onto the JSON error envelope.
func (h *transactionsHandler) respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, transactions.ErrInvalidMonth):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month. Please provide a month between 1 and 12"})
	case errors.Is(err, transactions.ErrNotFound), errors.Is(err, transactions.ErrEmptyID):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
	default:
		h.logger.Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.String("query", ctx.Request.URL.RawQuery),
			zap.Error(err),
		)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": err.Error(),
		})
	}
}

// queryInt reads the leading integer of a query parameter, so "5", "5.0" and
// "5abc" all read as 5. It returns def when no digits lead the value or the
// number does not fit in an int.
func queryInt(ctx *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(ctx.Query(key))

	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}

	v, err := strconv.Atoi(raw[:end])
	if err != nil {
		return def
	}
	return v
}
