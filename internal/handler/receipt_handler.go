// internal/handler/receipt_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/receipt"
	"pos-service/internal/utils"
)

// ReceiptHandler serves the browser print fallback
type ReceiptHandler struct {
	renderer *receipt.HTMLRenderer
	store    model.StoreProfile
	clock    func() time.Time
	logger   *utils.ServiceLogger
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(renderer *receipt.HTMLRenderer, store model.StoreProfile, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		renderer: renderer,
		store:    store,
		clock:    time.Now,
		logger:   utils.NewServiceLogger(logger, "receipt-handler"),
	}
}

// RegisterRoutes registers receipt routes
func (h *ReceiptHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/receipts/html", h.RenderHTML)
}

// RenderHTML renders a receipt as a printable HTML page
// @Summary Render HTML receipt
// @Description Render the receipt for the browser print dialog
// @Tags Receipts
// @Accept json
// @Produce html
// @Param request body ReceiptPayload true "Receipt"
// @Success 200 {string} string "HTML document"
// @Failure 400 {object} utils.APIResponse "Invalid receipt"
// @Router /receipts/html [post]
func (h *ReceiptHandler) RenderHTML(c *gin.Context) {
	var payload ReceiptPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	r, err := payload.ToReceipt()
	if err == nil {
		err = r.Validate()
	}
	if err != nil {
		serviceErrorResponse(c, "Invalid receipt", err)
		return
	}

	h.render(c, r, h.clock())
}

func (h *ReceiptHandler) render(c *gin.Context, r *model.Receipt, at time.Time) {
	page, err := h.renderer.Render(r, h.store, at)
	if err != nil {
		h.logger.Error("Failed to render receipt", zap.Error(err), zap.String("transaction_number", r.TransactionNumber))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to render receipt", err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
