package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/feeledger/internal/payment/domain"
)

type recordPaymentRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Method string `json:"method" binding:"required"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	voucherID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_body", "invalid request body"))
		return
	}

	payment, err := s.paymentSvc.Record(c.Request.Context(), paymentdomain.RecordRequest{
		VoucherID: voucherID,
		Amount:    req.Amount,
		Method:    paymentdomain.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method))),
		Actor:     actorFrom(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": payment})
}

func (s *Server) ListVoucherPayments(c *gin.Context) {
	voucherID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	payments, err := s.paymentSvc.ListByVoucher(c.Request.Context(), voucherID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}
