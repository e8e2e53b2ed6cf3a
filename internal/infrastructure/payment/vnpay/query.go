package vnpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/config"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/payment"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

const CommandQuery = "querydr"

type queryRequest struct {
	RequestID       string `json:"vnp_RequestId"`
	Version         string `json:"vnp_Version"`
	Command         string `json:"vnp_Command"`
	TmnCode         string `json:"vnp_TmnCode"`
	TxnRef          string `json:"vnp_TxnRef"`
	OrderInfo       string `json:"vnp_OrderInfo"`
	TransactionDate string `json:"vnp_TransactionDate"`
	CreateDate      string `json:"vnp_CreateDate"`
	IPAddr          string `json:"vnp_IpAddr"`
	SecureHash      string `json:"vnp_SecureHash"`
}

// VNPAY trả mọi giá trị dạng chuỗi, kể cả vnp_Amount.
type queryResponse struct {
	ResponseID        string `json:"vnp_ResponseId"`
	Command           string `json:"vnp_Command"`
	ResponseCode      string `json:"vnp_ResponseCode"`
	Message           string `json:"vnp_Message"`
	TmnCode           string `json:"vnp_TmnCode"`
	TxnRef            string `json:"vnp_TxnRef"`
	Amount            string `json:"vnp_Amount"`
	BankCode          string `json:"vnp_BankCode"`
	PayDate           string `json:"vnp_PayDate"`
	TransactionNo     string `json:"vnp_TransactionNo"`
	TransactionType   string `json:"vnp_TransactionType"`
	TransactionStatus string `json:"vnp_TransactionStatus"`
	OrderInfo         string `json:"vnp_OrderInfo"`
	PromotionCode     string `json:"vnp_PromotionCode"`
	PromotionAmount   string `json:"vnp_PromotionAmount"`
	SecureHash        string `json:"vnp_SecureHash"`
}

func (r *queryResponse) checksumData() string {
	return strings.Join([]string{
		r.ResponseID, r.Command, r.ResponseCode, r.Message, r.TmnCode, r.TxnRef,
		r.Amount, r.BankCode, r.PayDate, r.TransactionNo, r.TransactionType,
		r.TransactionStatus, r.OrderInfo, r.PromotionCode, r.PromotionAmount,
	}, "|")
}

// retryableError marks failures worth another attempt (network, 5xx).
type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

// QueryClient gọi API querydr của VNPAY, có retry và circuit breaker.
type QueryClient struct {
	cfg        config.VNPayConfig
	signer     *Signer
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*payment.Notification]
	log        logger.Logger
	now        func() time.Time
}

func NewQueryClient(cfg config.VNPayConfig, log logger.Logger) *QueryClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}

	c := &QueryClient{
		cfg:    cfg,
		signer: NewSigner(cfg.HashSecret),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
			},
		},
		log: log,
		now: time.Now,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*payment.Notification](gobreaker.Settings{
		Name:        "vnpay-querydr",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var re retryableError
			return err == nil || !errors.As(err, &re)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return c
}

// QueryTransaction trả về trạng thái giao dịch theo mã đơn. Breaker mở → ErrGatewayUnavailable.
func (c *QueryClient) QueryTransaction(ctx context.Context, req payment.QueryRequest) (*payment.Notification, error) {
	n, err := c.breaker.Execute(func() (*payment.Notification, error) {
		return c.queryWithRetry(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	var re retryableError
	if errors.As(err, &re) {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, re.err)
	}
	return n, err
}

func (c *QueryClient) queryWithRetry(ctx context.Context, req payment.QueryRequest) (*payment.Notification, error) {
	attempts := c.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		n, err := c.query(ctx, req)
		if err == nil {
			return n, nil
		}
		var re retryableError
		if !errors.As(err, &re) {
			return nil, err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		c.log.Warn("querydr attempt failed",
			logger.String("order_code", req.OrderCode),
			logger.Int("attempt", attempt),
			logger.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * c.cfg.RetryBackoff):
		}
	}
	return nil, lastErr
}

func (c *QueryClient) query(ctx context.Context, req payment.QueryRequest) (*payment.Notification, error) {
	body := queryRequest{
		RequestID:       strings.ReplaceAll(uuid.NewString(), "-", ""),
		Version:         Version,
		Command:         CommandQuery,
		TmnCode:         c.cfg.TmnCode,
		TxnRef:          req.OrderCode,
		OrderInfo:       req.Description,
		TransactionDate: FormatTime(req.TransactionDate),
		CreateDate:      FormatTime(c.now()),
		IPAddr:          req.ClientIP,
	}
	body.SecureHash = c.signer.Sign(strings.Join([]string{
		body.RequestID, body.Version, body.Command, body.TmnCode, body.TxnRef,
		body.TransactionDate, body.CreateDate, body.IPAddr, body.OrderInfo,
	}, "|"))

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode querydr request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, retryableError{fmt.Errorf("call vnpay querydr: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, retryableError{fmt.Errorf("vnpay querydr status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http status %d", payment.ErrGatewayRejected, resp.StatusCode)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode querydr response: %w", err)
	}
	if !c.signer.Verify(out.checksumData(), out.SecureHash) {
		return nil, payment.ErrChecksumFailed
	}
	if out.ResponseCode != ResponseSuccess {
		return nil, fmt.Errorf("%w: code %s %s", payment.ErrGatewayRejected, out.ResponseCode, out.Message)
	}

	amount, err := parseAmount(out.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrAmountMismatch, err)
	}
	return &payment.Notification{
		OrderCode:     out.TxnRef,
		Amount:        amount,
		ResponseCode:  out.TransactionStatus,
		TransactionNo: out.TransactionNo,
		BankCode:      out.BankCode,
		PayDate:       out.PayDate,
		Outcome:       outcomeFromTransactionStatus(out.TransactionStatus),
	}, nil
}

// vnp_TransactionStatus: 00 thành công, 01 chưa hoàn tất, còn lại là lỗi.
func outcomeFromTransactionStatus(status string) payment.Outcome {
	switch status {
	case "00":
		return payment.OutcomeSuccess
	case "01":
		return payment.OutcomePending
	default:
		return payment.OutcomeFailed
	}
}
