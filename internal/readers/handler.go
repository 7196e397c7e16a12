package readers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apperr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/readers", h.CreateReader)
	r.GET("/readers", h.FindReaders)
	r.GET("/readers/:card_no", h.GetReader)
	r.PUT("/readers/:card_no", h.UpdateReader)
}

func (h *Handler) CreateReader(c *gin.Context) {
	var req CreateReaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.CreateReader(c.Request.Context(), req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.Header("Location", "/readers/"+res.CardNo)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetReader(c *gin.Context) {
	res, err := h.svc.GetReader(c.Request.Context(), c.Param("card_no"))
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateReader(c *gin.Context) {
	var req UpdateReaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "invalid json"))
		return
	}
	res, err := h.svc.UpdateReader(c.Request.Context(), c.Param("card_no"), req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) FindReaders(c *gin.Context) {
	f := ReaderFilter{}
	if v := c.Query("card_no"); v != "" {
		f.CardNo = &v
	}
	if v := c.Query("name"); v != "" {
		f.Name = &v
	}
	if v := c.Query("department"); v != "" {
		f.Department = &v
	}
	res, err := h.svc.FindReaders(c.Request.Context(), f)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
