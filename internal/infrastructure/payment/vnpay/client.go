package vnpay

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/config"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/payment"
)

const (
	Version     = "2.1.0"
	CommandPay  = "pay"
	CurrencyVND = "VND"
	OrderType   = "other"
	DefaultLang = "vn"

	dateLayout = "20060102150405"

	ResponseSuccess = "00"
	ResponseExpired = "11"
)

// VNPAY đọc và ghi thời gian theo GMT+7.
var vietnam = time.FixedZone("ICT", 7*60*60)

type Client struct {
	cfg    config.VNPayConfig
	signer *Signer
	now    func() time.Time
}

func NewClient(cfg config.VNPayConfig) *Client {
	return &Client{cfg: cfg, signer: NewSigner(cfg.HashSecret), now: time.Now}
}

// BuildPaymentURL returns PayURL with the canonical query and vnp_SecureHash appended.
func (c *Client) BuildPaymentURL(req payment.URLRequest) (string, error) {
	if req.OrderCode == "" {
		return "", errors.New("order code is required")
	}
	if req.Amount <= 0 {
		return "", fmt.Errorf("invalid amount %d", req.Amount)
	}

	locale := req.Locale
	if locale == "" {
		locale = c.cfg.Locale
	}
	if locale == "" {
		locale = DefaultLang
	}
	created := req.CreatedAt
	if created.IsZero() {
		created = c.now()
	}
	expireMinutes := c.cfg.ExpireMinutes
	if expireMinutes <= 0 {
		expireMinutes = 15
	}

	params := url.Values{}
	params.Set("vnp_Version", Version)
	params.Set("vnp_Command", CommandPay)
	params.Set("vnp_TmnCode", c.cfg.TmnCode)
	params.Set("vnp_Locale", locale)
	params.Set("vnp_CurrCode", CurrencyVND)
	params.Set("vnp_TxnRef", req.OrderCode)
	params.Set("vnp_OrderInfo", req.Description)
	params.Set("vnp_OrderType", OrderType)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Set("vnp_ReturnUrl", c.cfg.ReturnURL)
	params.Set("vnp_IpAddr", req.ClientIP)
	params.Set("vnp_CreateDate", FormatTime(created))
	params.Set("vnp_ExpireDate", FormatTime(c.now().Add(time.Duration(expireMinutes)*time.Minute)))
	if req.BankCode != "" {
		params.Set("vnp_BankCode", req.BankCode)
	}

	query := CanonicalQuery(params)
	return c.cfg.PayURL + "?" + query + "&" + paramSecureHash + "=" + c.signer.Sign(query), nil
}

// VerifyCallback kiểm tra chữ ký của tham số IPN/return và chuẩn hoá kết quả.
// params không bị thay đổi.
func (c *Client) VerifyCallback(params url.Values) (*payment.Notification, error) {
	provided := params.Get(paramSecureHash)
	if provided == "" {
		return nil, payment.ErrChecksumFailed
	}

	signed := make(url.Values, len(params))
	for k, v := range params {
		if k == paramSecureHash || k == paramSecureHashType {
			continue
		}
		signed[k] = v
	}
	if !c.signer.Verify(CanonicalQuery(signed), provided) {
		return nil, payment.ErrChecksumFailed
	}

	amount, err := parseAmount(params.Get("vnp_Amount"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrAmountMismatch, err)
	}

	code := params.Get("vnp_ResponseCode")
	return &payment.Notification{
		OrderCode:     params.Get("vnp_TxnRef"),
		Amount:        amount,
		ResponseCode:  code,
		TransactionNo: params.Get("vnp_TransactionNo"),
		BankCode:      params.Get("vnp_BankCode"),
		PayDate:       params.Get("vnp_PayDate"),
		Outcome:       outcomeFromResponse(code),
	}, nil
}

func outcomeFromResponse(code string) payment.Outcome {
	switch code {
	case ResponseSuccess:
		return payment.OutcomeSuccess
	case ResponseExpired:
		return payment.OutcomeExpired
	default:
		return payment.OutcomeFailed
	}
}

// parseAmount chuyển vnp_Amount (đã nhân 100) về VND.
func parseAmount(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse vnp_Amount %q: %w", raw, err)
	}
	if v < 0 || v%100 != 0 {
		return 0, fmt.Errorf("vnp_Amount %d is not a whole VND amount", v)
	}
	return v / 100, nil
}

func FormatTime(t time.Time) string {
	return t.In(vietnam).Format(dateLayout)
}
