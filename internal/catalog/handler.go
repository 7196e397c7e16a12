package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apperr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// titles
	r.POST("/titles", h.CreateTitle)
	r.GET("/titles", h.FindTitles)
	r.GET("/titles/:isbn", h.GetTitle)
	r.GET("/titles/:isbn/copies", h.ListCopies)

	// copies
	r.POST("/copies", h.CreateCopy)
	r.PUT("/copies/:copy_id/condition", h.SetCopyCondition)
}

func (h *Handler) CreateTitle(c *gin.Context) {
	var req CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.CreateTitle(c.Request.Context(), req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.Header("Location", "/titles/"+res.ISBN)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetTitle(c *gin.Context) {
	res, err := h.svc.GetTitle(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) FindTitles(c *gin.Context) {
	f := TitleFilter{}
	if v := c.Query("isbn"); v != "" {
		f.ISBN = &v
	}
	if v := c.Query("name"); v != "" {
		f.Name = &v
	}
	if v := c.Query("author"); v != "" {
		f.Author = &v
	}
	if v := c.Query("category"); v != "" {
		f.Category = &v
	}
	res, err := h.svc.FindTitles(c.Request.Context(), f)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListCopies(c *gin.Context) {
	res, err := h.svc.ListCopies(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) CreateCopy(c *gin.Context) {
	var req CreateCopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.CreateCopy(c.Request.Context(), req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.Header("Location", "/copies/"+res.CopyID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) SetCopyCondition(c *gin.Context) {
	var req SetCopyConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "", "invalid json"))
		return
	}
	res, err := h.svc.SetCopyCondition(c.Request.Context(), c.Param("copy_id"), req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.FromError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
