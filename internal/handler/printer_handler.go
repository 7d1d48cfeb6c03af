// internal/handler/printer_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/service"
	"pos-service/internal/utils"
)

// PrinterHandler handles printer lifecycle and print requests
type PrinterHandler struct {
	printerService   *service.PrinterService
	discoveryService *service.DiscoveryService
	logger           *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printerService *service.PrinterService, discoveryService *service.DiscoveryService, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		printerService:   printerService,
		discoveryService: discoveryService,
		logger:           utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	printer := router.Group("/printer")
	{
		printer.GET("/status", h.GetStatus)
		printer.GET("/supported", h.GetSupported)
		printer.GET("/scan", h.Scan)
		printer.POST("/connect", h.Connect)
		printer.POST("/auto-connect", h.AutoConnect)
		printer.POST("/disconnect", h.Disconnect)
		printer.DELETE("/paired", h.ForgetDevice)
		printer.POST("/print", h.Print)
		printer.POST("/preview", h.Preview)
	}
}

// GetStatus returns the printer session status
// @Summary Printer status
// @Description Get connection state, last used device and link health
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.PrinterStatus} "Printer status"
// @Router /printer/status [get]
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Printer status retrieved", h.printerService.Status(c.Request.Context()))
}

// GetSupported reports whether the host has a usable radio
// @Summary Printer support
// @Description Check whether the host can reach a wireless printer at all
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{supported=bool}} "Support flag"
// @Router /printer/supported [get]
func (h *PrinterHandler) GetSupported(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Printer support checked", gin.H{
		"supported": h.printerService.IsSupported(),
	})
}

// Scan discovers nearby printers
// @Summary Scan for printers
// @Description Scan every available link type, or one when type is given
// @Tags Printer
// @Produce json
// @Param type query string false "Connection type" Enums(BLUETOOTH, SERIAL, USB)
// @Success 200 {object} utils.APIResponse{data=service.ScanResult} "Scan finished"
// @Failure 400 {object} utils.APIResponse "Unknown connection type"
// @Router /printer/scan [get]
func (h *PrinterHandler) Scan(c *gin.Context) {
	result, err := h.discoveryService.Scan(c.Request.Context(), c.Query("type"))
	if err != nil {
		h.logger.Warn("Printer scan failed", zap.Error(err))
		utils.ErrorResponse(c, http.StatusBadRequest, "Printer scan failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer scan completed", result)
}

// ConnectRequest selects a printer to connect
type ConnectRequest struct {
	DeviceID string `json:"device_id"`
}

// Connect connects to a printer
// @Summary Connect printer
// @Description Connect to device_id, or let the host pick one when omitted
// @Tags Printer
// @Accept json
// @Produce json
// @Param request body ConnectRequest false "Device to connect"
// @Success 200 {object} utils.APIResponse{data=service.PrinterStatus} "Printer connected"
// @Failure 502 {object} utils.APIResponse "Connection failed"
// @Failure 503 {object} utils.APIResponse "Printing not supported"
// @Router /printer/connect [post]
func (h *PrinterHandler) Connect(c *gin.Context) {
	var req ConnectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	ctx := c.Request.Context()
	if err := h.printerService.ConnectDevice(ctx, req.DeviceID); err != nil {
		serviceErrorResponse(c, "Failed to connect printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer connected", h.printerService.Status(ctx))
}

// AutoConnect reconnects to the last used printer
// @Summary Auto-connect printer
// @Description Reconnect to the last used printer without prompting
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.PrinterStatus} "Printer connected"
// @Failure 502 {object} utils.APIResponse "Connection failed"
// @Router /printer/auto-connect [post]
func (h *PrinterHandler) AutoConnect(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.printerService.Reconnect(ctx); err != nil {
		serviceErrorResponse(c, "Failed to reconnect printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer reconnected", h.printerService.Status(ctx))
}

// Disconnect closes the printer link
// @Summary Disconnect printer
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.PrinterStatus} "Printer disconnected"
// @Router /printer/disconnect [post]
func (h *PrinterHandler) Disconnect(c *gin.Context) {
	ctx := c.Request.Context()
	h.printerService.Disconnect(ctx)
	utils.SuccessResponse(c, http.StatusOK, "Printer disconnected", h.printerService.Status(ctx))
}

// ForgetDevice clears the last used printer
// @Summary Forget paired printer
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse "Paired printer forgotten"
// @Router /printer/paired [delete]
func (h *PrinterHandler) ForgetDevice(c *gin.Context) {
	if err := h.printerService.ForgetDevice(c.Request.Context()); err != nil {
		serviceErrorResponse(c, "Failed to forget printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Paired printer forgotten", nil)
}

// Print prints a receipt
// @Summary Print receipt
// @Description Compose the receipt as ESC/POS and send it to the connected printer
// @Tags Printer
// @Accept json
// @Produce json
// @Param request body ReceiptPayload true "Receipt"
// @Success 200 {object} utils.APIResponse{data=service.PrintResult} "Receipt printed"
// @Failure 400 {object} utils.APIResponse "Invalid receipt"
// @Failure 409 {object} utils.APIResponse "Printer busy"
// @Failure 502 {object} utils.APIResponse "Send failed"
// @Failure 503 {object} utils.APIResponse "Printer not connected"
// @Router /printer/print [post]
func (h *PrinterHandler) Print(c *gin.Context) {
	r, ok := h.bindReceipt(c)
	if !ok {
		return
	}

	result, err := h.printerService.Print(c.Request.Context(), r, model.PrintJobSourceAPI)
	if err != nil {
		serviceErrorResponse(c, "Failed to print receipt", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Receipt printed", result)
}

// Preview composes a receipt without printing
// @Summary Preview receipt
// @Description Return the hex dump and text lines of the composed ESC/POS buffer
// @Tags Printer
// @Accept json
// @Produce json
// @Param request body ReceiptPayload true "Receipt"
// @Success 200 {object} utils.APIResponse{data=service.PreviewResult} "Receipt composed"
// @Failure 400 {object} utils.APIResponse "Invalid receipt"
// @Router /printer/preview [post]
func (h *PrinterHandler) Preview(c *gin.Context) {
	r, ok := h.bindReceipt(c)
	if !ok {
		return
	}

	preview, err := h.printerService.Preview(r)
	if err != nil {
		serviceErrorResponse(c, "Failed to compose receipt", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Receipt composed", preview)
}

func (h *PrinterHandler) bindReceipt(c *gin.Context) (*model.Receipt, bool) {
	var payload ReceiptPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}

	r, err := payload.ToReceipt()
	if err != nil {
		serviceErrorResponse(c, "Invalid receipt", err)
		return nil, false
	}
	return r, true
}
