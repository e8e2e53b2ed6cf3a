package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	app "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/pricing"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/interfaces/http/middleware"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrderHandler struct {
	svc *app.Service
	log logger.Logger
}

func NewOrderHandler(svc *app.Service, log logger.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

type createOrderRequest struct {
	Items         []pricing.LineRequest `json:"items"`
	ShippingInfo  order.ShippingInfo    `json:"shippingInfo"`
	PaymentMethod string                `json:"paymentMethod"`
	PromoCode     string                `json:"promoCode"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// CreateOrder trả 201 cho đơn mới, 200 khi Idempotency-Key đã hoàn tất trước đó.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	o, reused, err := h.svc.CreateOrder(c.Request.Context(), app.CreateOrderCommand{
		UserID:         middleware.UserID(c),
		Items:          req.Items,
		Shipping:       req.ShippingInfo,
		PaymentMethod:  order.PaymentMethod(req.PaymentMethod),
		PromoCode:      req.PromoCode,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	status := http.StatusCreated
	if reused {
		status = http.StatusOK
	}
	c.JSON(status, o)
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.UserID(c), pageQuery(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) ListAll(c *gin.Context) {
	var filter order.Filter
	if s := c.Query("status"); s != "" {
		st, err := order.ParseStatus(s)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		filter.Status = st
	}
	if s := c.Query("paymentStatus"); s != "" {
		ps, err := order.ParsePaymentStatus(s)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		filter.PaymentStatus = ps
	}

	list, err := h.svc.ListAll(c.Request.Context(), filter, pageQuery(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) GetByCode(c *gin.Context) {
	o, err := h.svc.GetByCode(c.Request.Context(), c.Param("code"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}
	to, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	// cùng vị trí segment với :code nên gin bắt buộc chung tên param; giá trị ở đây là order id
	o, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("code"), to)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	o, err := h.svc.CancelByCustomer(c.Request.Context(), c.Param("code"), middleware.UserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// pageQuery bỏ qua giá trị không phải số; Normalize sẽ đặt mặc định.
func pageQuery(c *gin.Context) app.PageQuery {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return app.PageQuery{Page: page, Limit: limit}
}
