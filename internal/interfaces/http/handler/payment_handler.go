package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	app "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/payment"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/payment"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/interfaces/http/middleware"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

// Mã phản hồi IPN theo quy ước của VNPAY.
const (
	ipnConfirmed       = "00"
	ipnOrderNotFound   = "01"
	ipnInvalidAmount   = "04"
	ipnInvalidChecksum = "97"
	ipnUnknownError    = "99"
)

type PaymentHandler struct {
	svc       *app.Service
	resultURL string
	log       logger.Logger
}

// NewPaymentHandler nhận resultURL là trang kết quả của frontend mà vnpay_return redirect tới.
func NewPaymentHandler(svc *app.Service, resultURL string, log logger.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, resultURL: resultURL, log: log}
}

type createPaymentURLRequest struct {
	OrderCode string `json:"orderCode"`
	BankCode  string `json:"bankCode"`
	Locale    string `json:"locale"`
}

func (h *PaymentHandler) CreatePaymentURL(c *gin.Context) {
	var req createPaymentURLRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderCode == "" {
		badRequestBody(c)
		return
	}

	paymentURL, err := h.svc.CreatePaymentURL(c.Request.Context(), app.CreateURLCommand{
		OrderCode: req.OrderCode,
		UserID:    middleware.UserID(c),
		BankCode:  req.BankCode,
		Locale:    req.Locale,
		ClientIP:  c.ClientIP(),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paymentUrl": paymentURL})
}

// IPN luôn trả HTTP 200; kết quả nằm trong RspCode. "00" cả khi thanh toán thất bại
// để VNPAY ngừng gửi lại.
func (h *PaymentHandler) IPN(c *gin.Context) {
	_, err := h.svc.HandleCallback(c.Request.Context(), app.SourceIPN, c.Request.URL.Query())

	code, msg := ipnConfirmed, "Confirm Success"
	switch {
	case err == nil:
	case errors.Is(err, payment.ErrChecksumFailed):
		code, msg = ipnInvalidChecksum, "Invalid signature"
	case errors.Is(err, order.ErrOrderNotFound):
		code, msg = ipnOrderNotFound, "Order not found"
	case errors.Is(err, payment.ErrAmountMismatch):
		code, msg = ipnInvalidAmount, "Invalid amount"
	default:
		code, msg = ipnUnknownError, "Unknown error"
	}
	c.JSON(http.StatusOK, gin.H{"RspCode": code, "Message": msg})
}

// Return xử lý redirect trình duyệt từ VNPAY rồi chuyển tiếp tới trang kết quả của frontend.
func (h *PaymentHandler) Return(c *gin.Context) {
	params := c.Request.URL.Query()
	res, err := h.svc.HandleCallback(c.Request.Context(), app.SourceReturn, params)

	q := url.Values{}
	q.Set("orderCode", params.Get("vnp_TxnRef"))
	switch {
	case err == nil && res.Outcome == payment.OutcomeSuccess:
		q.Set("status", "success")
		q.Set("reason", "paid")
	case err == nil:
		q.Set("status", "fail")
		q.Set("reason", string(res.Outcome))
	default:
		q.Set("status", "fail")
		q.Set("reason", returnReason(err))
	}

	c.Redirect(http.StatusFound, h.resultURL+"?"+q.Encode())
}

func (h *PaymentHandler) Query(c *gin.Context) {
	res, err := h.svc.QueryAndReconcile(c.Request.Context(), c.Param("code"), c.ClientIP())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func returnReason(err error) string {
	switch {
	case errors.Is(err, payment.ErrChecksumFailed):
		return "checksum_error"
	case errors.Is(err, order.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, payment.ErrAmountMismatch):
		return "amount_mismatch"
	default:
		return "error"
	}
}
