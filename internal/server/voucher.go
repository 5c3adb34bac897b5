package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	voucherdomain "github.com/smallbiznis/feeledger/internal/voucher/domain"
)

type issueVoucherRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Month     int    `json:"month" binding:"required"`
	Year      int    `json:"year" binding:"required"`
	Items     []struct {
		FeeType     string `json:"fee_type"`
		Description string `json:"description"`
		Amount      int64  `json:"amount"`
	} `json:"items"`
	DueDate string `json:"due_date"`
}

func (s *Server) IssueVoucher(c *gin.Context) {
	var req issueVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_body", "invalid request body"))
		return
	}

	studentID, err := snowflake.ParseString(strings.TrimSpace(req.StudentID))
	if err != nil {
		AbortWithError(c, newValidationError("student_id", "invalid_student_id", "invalid student_id"))
		return
	}

	issue := voucherdomain.IssueRequest{
		StudentID: studentID,
		Month:     req.Month,
		Year:      req.Year,
		Actor:     actorFrom(c),
	}

	for _, item := range req.Items {
		issue.Items = append(issue.Items, voucherdomain.LineItem{
			FeeType:     voucherdomain.FeeType(strings.TrimSpace(item.FeeType)),
			Description: strings.TrimSpace(item.Description),
			Amount:      item.Amount,
		})
	}

	if due := strings.TrimSpace(req.DueDate); due != "" {
		parsed, err := time.Parse("2006-01-02", due)
		if err != nil {
			AbortWithError(c, newValidationError("due_date", "invalid_due_date", "due_date must be YYYY-MM-DD"))
			return
		}
		issue.DueDate = &parsed
	}

	result, err := s.voucherSvc.Issue(c.Request.Context(), issue)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Outcome == voucherdomain.OutcomeExists {
		status = http.StatusOK
	}

	c.JSON(status, gin.H{
		"data":    result.Voucher,
		"items":   result.Items,
		"outcome": result.Outcome,
	})
}

type generateVouchersRequest struct {
	Month      int      `json:"month" binding:"required"`
	Year       int      `json:"year" binding:"required"`
	Class      string   `json:"class"`
	StudentIDs []string `json:"student_ids"`
}

func (s *Server) GenerateVouchers(c *gin.Context) {
	var req generateVouchersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_body", "invalid request body"))
		return
	}

	batch := voucherdomain.BatchRequest{
		Class: strings.TrimSpace(req.Class),
		Month: req.Month,
		Year:  req.Year,
		Actor: actorFrom(c),
	}

	for _, raw := range req.StudentIDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			AbortWithError(c, newValidationError("student_ids", "invalid_student_id", "invalid student id"))
			return
		}
		batch.StudentIDs = append(batch.StudentIDs, id)
	}

	result, err := s.voucherSvc.IssueBatch(c.Request.Context(), batch)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":  result.Summary,
		"outcomes": result.Outcomes,
	})
}

func (s *Server) GetVoucherByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	voucher, items, err := s.voucherSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": voucher, "items": items})
}

func (s *Server) ListStudentVouchers(c *gin.Context) {
	studentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	vouchers, err := s.voucherSvc.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vouchers})
}

type voucherTransitionRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CancelVoucher(c *gin.Context) {
	s.transitionVoucher(c, s.voucherSvc.Cancel)
}

func (s *Server) WaiveVoucher(c *gin.Context) {
	s.transitionVoucher(c, s.voucherSvc.Waive)
}

func (s *Server) transitionVoucher(c *gin.Context, apply func(ctx context.Context, id snowflake.ID, actor, reason string) error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req voucherTransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, newValidationError("body", "invalid_body", "invalid request body"))
			return
		}
	}

	if err := apply(c.Request.Context(), id, actorFrom(c), strings.TrimSpace(req.Reason)); err != nil {
		AbortWithError(c, err)
		return
	}

	voucher, items, err := s.voucherSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": voucher, "items": items})
}
