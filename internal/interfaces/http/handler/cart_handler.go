package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/cart"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/interfaces/http/middleware"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

type CartHandler struct {
	svc *app.Service
	log logger.Logger
}

func NewCartHandler(svc *app.Service, log logger.Logger) *CartHandler {
	return &CartHandler{svc: svc, log: log}
}

type setItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.svc.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// SetItem: quantity 0 xoá sản phẩm khỏi giỏ.
func (h *CartHandler) SetItem(c *gin.Context) {
	var req setItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		badRequestBody(c)
		return
	}

	cart, err := h.svc.SetItem(c.Request.Context(), middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context(), middleware.UserID(c)); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
