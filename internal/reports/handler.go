package reports

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apperr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/reports/overdue", h.Overdue)
	r.GET("/reports/history", h.History)
	r.GET("/reports/ranks/readers", h.ReaderRanks)
	r.GET("/reports/ranks/titles", h.TitleRanks)
	r.GET("/reports/stats", h.BorrowStats)
	r.GET("/reports/summary", h.Summary)
}

func (h *Handler) Overdue(c *gin.Context) {
	res, err := h.svc.Overdue(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) History(c *gin.Context) {
	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "invalid from date, expected YYYY-MM-DD"))
			return
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "invalid to date, expected YYYY-MM-DD"))
			return
		}
		to = &t
	}
	res, err := h.svc.History(c.Request.Context(), c.Query("card_no"), from, to)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ReaderRanks(c *gin.Context) {
	res, err := h.svc.ReaderRanks(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) TitleRanks(c *gin.Context) {
	res, err := h.svc.TitleRanks(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) BorrowStats(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "from is required, expected YYYY-MM-DD"))
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "to is required, expected YYYY-MM-DD"))
		return
	}
	res, err := h.svc.BorrowStats(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Summary(c *gin.Context) {
	res, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
