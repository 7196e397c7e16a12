package circulation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apperr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// loans
	r.POST("/loans", h.Borrow)
	r.POST("/loans/:loan_id/return", h.Return)
	r.GET("/loans", h.ListLoans)
	r.GET("/loans/:loan_id", h.GetLoan)

	// "overdue" would collide with the :loan_id wildcard, so it lives at
	// the top level
	r.GET("/overdue", h.ListOverdue)

	// copy-first lookup (barcode scan at the desk)
	r.GET("/copies/:copy_id/active-loan", h.GetActiveLoan)
}

func (h *Handler) Borrow(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Borrow(c.Request.Context(), req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.Header("Location", "/loans/"+strconv.FormatInt(res.LoanID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Return(c *gin.Context) {
	loanID, err := strconv.ParseInt(c.Param("loan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "loan_id must be an integer"))
		return
	}
	res, err := h.svc.Return(c.Request.Context(), loanID)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetLoan(c *gin.Context) {
	loanID, err := strconv.ParseInt(c.Param("loan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "loan_id must be an integer"))
		return
	}
	res, err := h.svc.GetLoan(c.Request.Context(), loanID)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetActiveLoan(c *gin.Context) {
	res, err := h.svc.FindOpenLoanForCopy(c.Request.Context(), c.Param("copy_id"))
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListLoans(c *gin.Context) {
	f := LoanFilter{}
	if v := c.Query("card_no"); v != "" {
		f.CardNo = &v
	}
	if v := c.Query("copy_id"); v != "" {
		f.CopyID = &v
	}
	if v := c.Query("open"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Open = &b
		}
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.To = &t
		}
	}
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}
	res, err := h.svc.ListLoans(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListOverdue(c *gin.Context) {
	res, err := h.svc.ListOverdue(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
