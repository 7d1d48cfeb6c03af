// internal/handler/errors.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/internal/service"
	"pos-service/internal/utils"
)

// Error codes for printer failures
const (
	CodePrinterNotConnected    = "PRINTER_NOT_CONNECTED"
	CodePrinterNotSupported    = "PRINTER_NOT_SUPPORTED"
	CodePrinterBusy            = "PRINTER_BUSY"
	CodePrinterSendFailed      = "PRINTER_SEND_FAILED"
	CodePrinterConnectFailed   = "PRINTER_CONNECTION_FAILED"
	CodeInvalidReceipt         = "INVALID_RECEIPT"
	CodeInvalidTransaction     = "INVALID_TRANSACTION"
	CodeInvalidProduct         = "INVALID_PRODUCT"
	CodeRecordNotFound         = "NOT_FOUND"
	CodeInternalServerError    = "INTERNAL_SERVER_ERROR"
	CodeInvalidRequestArgument = "BAD_REQUEST"
)

// classifyError maps a service error to an HTTP status and error code
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotConnected):
		return http.StatusServiceUnavailable, CodePrinterNotConnected
	case errors.Is(err, service.ErrNotSupported):
		return http.StatusServiceUnavailable, CodePrinterNotSupported
	case errors.Is(err, service.ErrBusy):
		return http.StatusConflict, CodePrinterBusy
	case errors.Is(err, service.ErrSendFailed):
		return http.StatusBadGateway, CodePrinterSendFailed
	case errors.Is(err, service.ErrConnectionFailed):
		return http.StatusBadGateway, CodePrinterConnectFailed
	case errors.Is(err, model.ErrInvalidReceipt):
		return http.StatusBadRequest, CodeInvalidReceipt
	case errors.Is(err, model.ErrInvalidTransaction):
		return http.StatusBadRequest, CodeInvalidTransaction
	case errors.Is(err, model.ErrInvalidProduct):
		return http.StatusBadRequest, CodeInvalidProduct
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, CodeRecordNotFound
	default:
		return http.StatusInternalServerError, CodeInternalServerError
	}
}

// serviceErrorResponse writes err with its classified status
func serviceErrorResponse(c *gin.Context, message string, err error) {
	status, code := classifyError(err)
	utils.ErrorResponseWithCode(c, status, code, message, err)
}
