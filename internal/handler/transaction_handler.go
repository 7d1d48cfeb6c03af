// internal/handler/transaction_handler.go
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/service"
	"pos-service/internal/utils"
)

// TransactionHandler handles checkout and sales history requests
type TransactionHandler struct {
	checkoutService *service.CheckoutService
	receipts        *ReceiptHandler
	logger          *utils.ServiceLogger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(checkoutService *service.CheckoutService, receipts *ReceiptHandler, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		checkoutService: checkoutService,
		receipts:        receipts,
		logger:          utils.NewServiceLogger(logger, "transaction-handler"),
	}
}

// RegisterRoutes registers transaction routes
func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	transactions := router.Group("/transactions")
	{
		transactions.POST("", h.Checkout)
		transactions.GET("", h.ListTransactions)
		transactions.GET("/stats", h.GetStats)

		transactionRoutes := transactions.Group("/:id")
		{
			transactionRoutes.GET("", h.GetTransaction)
			transactionRoutes.POST("/reprint", h.Reprint)
			transactionRoutes.GET("/receipt.html", h.ReceiptHTML)
		}
	}
}

// Checkout records a sale and prints its receipt
// @Summary Checkout
// @Description Store the sale, then print when the printer is connected. Print failures return printed=false with a fallback_url.
// @Tags Transactions
// @Accept json
// @Produce json
// @Param request body CheckoutPayload true "Cart"
// @Success 201 {object} utils.APIResponse{data=service.CheckoutResult} "Transaction recorded"
// @Failure 400 {object} utils.APIResponse "Invalid transaction"
// @Router /transactions [post]
func (h *TransactionHandler) Checkout(c *gin.Context) {
	var payload CheckoutPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req, err := payload.ToRequest()
	if err != nil {
		serviceErrorResponse(c, "Invalid transaction", err)
		return
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), req)
	if err != nil {
		serviceErrorResponse(c, "Checkout failed", err)
		return
	}

	message := "Transaction recorded and printed"
	if !result.Printed {
		message = "Transaction recorded, receipt not printed"
	}
	utils.SuccessResponse(c, http.StatusCreated, message, result)
}

// ListTransactions lists sales newest first
// @Summary List transactions
// @Tags Transactions
// @Produce json
// @Param period query string false "Period" Enums(all, today, week, month) default(all)
// @Param limit query int false "Maximum rows"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} utils.APIResponse{data=[]model.Transaction} "Transactions retrieved"
// @Failure 400 {object} utils.APIResponse "Unknown period"
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	period, ok := parsePeriod(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	transactions, err := h.checkoutService.ListTransactions(c.Request.Context(), period, limit, offset)
	if err != nil {
		serviceErrorResponse(c, "Failed to list transactions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Transactions retrieved", transactions)
}

// GetStats returns sales totals for a period
// @Summary Transaction stats
// @Tags Transactions
// @Produce json
// @Param period query string false "Period" Enums(all, today, week, month) default(all)
// @Success 200 {object} utils.APIResponse{data=model.TransactionStats} "Stats retrieved"
// @Failure 400 {object} utils.APIResponse "Unknown period"
// @Router /transactions/stats [get]
func (h *TransactionHandler) GetStats(c *gin.Context) {
	period, ok := parsePeriod(c)
	if !ok {
		return
	}

	stats, err := h.checkoutService.Stats(c.Request.Context(), period)
	if err != nil {
		serviceErrorResponse(c, "Failed to compute transaction stats", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Transaction stats retrieved", stats)
}

// GetTransaction returns one sale with its items
// @Summary Get transaction
// @Tags Transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} utils.APIResponse{data=model.Transaction} "Transaction retrieved"
// @Failure 404 {object} utils.APIResponse "Transaction not found"
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, ok := parseID(c, "transaction")
	if !ok {
		return
	}

	trx, err := h.checkoutService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		serviceErrorResponse(c, "Failed to get transaction", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Transaction retrieved", trx)
}

// Reprint prints a stored sale again
// @Summary Reprint receipt
// @Tags Transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} utils.APIResponse{data=service.PrintOutcome} "Reprint attempted"
// @Failure 404 {object} utils.APIResponse "Transaction not found"
// @Router /transactions/{id}/reprint [post]
func (h *TransactionHandler) Reprint(c *gin.Context) {
	id, ok := parseID(c, "transaction")
	if !ok {
		return
	}

	outcome, err := h.checkoutService.Reprint(c.Request.Context(), id)
	if err != nil {
		serviceErrorResponse(c, "Failed to reprint receipt", err)
		return
	}

	message := "Receipt reprinted"
	if !outcome.Printed {
		message = "Receipt not printed"
	}
	utils.SuccessResponse(c, http.StatusOK, message, outcome)
}

// ReceiptHTML renders a stored sale for the browser print dialog
// @Summary Transaction receipt page
// @Tags Transactions
// @Produce html
// @Param id path string true "Transaction ID"
// @Success 200 {string} string "HTML document"
// @Failure 404 {object} utils.APIResponse "Transaction not found"
// @Router /transactions/{id}/receipt.html [get]
func (h *TransactionHandler) ReceiptHTML(c *gin.Context) {
	id, ok := parseID(c, "transaction")
	if !ok {
		return
	}

	trx, err := h.checkoutService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		serviceErrorResponse(c, "Failed to get transaction", err)
		return
	}

	h.receipts.render(c, trx.ToReceipt(), trx.CreatedAt)
}

func parsePeriod(c *gin.Context) (model.TransactionPeriod, bool) {
	period, err := model.ParseTransactionPeriod(c.Query("period"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid period", err)
		return "", false
	}
	return period, true
}
