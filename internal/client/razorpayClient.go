package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"storefront/internal/config"
	"storefront/internal/model"
	"time"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrNoResponse means the gateway could not be reached or the call timed out.
	ErrNoResponse = errors.New("gateway did not respond")
	// ErrMalformedResponse means the gateway answered 2xx with an unusable body.
	ErrMalformedResponse = errors.New("gateway response is malformed")
)

// GatewayError is an explicit failure response from the gateway.
type GatewayError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("razorpay error %d %s: %s", e.StatusCode, e.Code, e.Description)
}

type RazorpayClient interface {
	CreateOrder(ctx context.Context, req *model.RazorpayOrderRequest) (*model.RazorpayOrder, error)
}

type razorpayClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	keyID      string
	keySecret  string
	breaker    *gobreaker.CircuitBreaker[*model.RazorpayOrder]
}

func NewRazorpayClient(cfg *config.Razorpay) RazorpayClient {
	return &razorpayClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		breaker: gobreaker.NewCircuitBreaker[*model.RazorpayOrder](gobreaker.Settings{
			Name:        "razorpay-orders",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// a 4xx is the gateway working correctly and rejecting our input
			IsSuccessful: func(err error) bool {
				var gwErr *GatewayError
				if errors.As(err, &gwErr) {
					return gwErr.StatusCode < 500
				}
				return err == nil
			},
		}),
	}
}

func (c *razorpayClientImpl) CreateOrder(ctx context.Context, req *model.RazorpayOrderRequest) (*model.RazorpayOrder, error) {
	order, err := c.breaker.Execute(func() (*model.RazorpayOrder, error) {
		return c.createOrder(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrNoResponse, err)
	}
	return order, err
}

func (c *razorpayClientImpl) createOrder(ctx context.Context, payload *model.RazorpayOrderRequest) (*model.RazorpayOrder, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/orders",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNoResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		var errBody model.RazorpayErrorBody
		if json.Unmarshal(respBody, &errBody) == nil {
			gwErr.Code = errBody.Error.Code
			gwErr.Description = errBody.Error.Description
		}
		if gwErr.Description == "" {
			gwErr.Description = http.StatusText(resp.StatusCode)
		}
		return nil, gwErr
	}

	var result model.RazorpayOrder
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrMalformedResponse, err)
	}
	if result.ID == "" || result.Amount <= 0 {
		return nil, fmt.Errorf("%w: missing id or amount", ErrMalformedResponse)
	}

	return &result, nil
}
