package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/interfaces/http/handler"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/interfaces/http/middleware"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/metrics"
)

type Handlers struct {
	Orders  *handler.OrderHandler
	Payment *handler.PaymentHandler
	Cart    *handler.CartHandler
	Health  *handler.HealthHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers, m *metrics.Metrics, gatherer prometheus.Gatherer, log logger.Logger) {
	r.Use(middleware.RequestID(), m.GinMiddleware(), middleware.AccessLog(log))

	r.GET("/health", h.Health.Health)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))
	}

	api := r.Group("/api")

	// VNPAY gọi trực tiếp, chữ ký là cơ chế xác thực
	api.GET("/payment/vnpay_ipn", h.Payment.IPN)
	api.GET("/payment/vnpay_return", h.Payment.Return)

	authed := api.Group("", middleware.Authenticate())
	admin := authed.Group("", middleware.RequireAdmin())
	{
		authed.POST("/orders", h.Orders.CreateOrder)
		authed.GET("/orders/mine", h.Orders.ListMine)
		authed.GET("/orders/:code", h.Orders.GetByCode)
		authed.POST("/orders/:code/cancel", h.Orders.Cancel)

		admin.GET("/orders", h.Orders.ListAll)
		admin.PUT("/orders/:code/status", h.Orders.UpdateStatus)
	}
	{
		authed.POST("/payment/create_payment_url", h.Payment.CreatePaymentURL)
		admin.GET("/payment/:code/query", h.Payment.Query)
	}
	{
		authed.GET("/cart", h.Cart.Get)
		authed.PUT("/cart/items", h.Cart.SetItem)
		authed.DELETE("/cart", h.Cart.Clear)
	}
}
