// internal/domain/payment/flutterwave.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/your-org/storefront-backend/internal/config"
)

// ErrGatewayUnavailable indicates the gateway answered with a non-success
// HTTP status. The caller must abort the checkout; no retry is attempted here.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// StatusSuccessful is the gateway's terminal status for a paid transaction
const StatusSuccessful = "successful"

// Service is a thin client for the Flutterwave payment API. It wraps exactly
// two remote calls: creating a payable session and verifying a transaction by
// reference. Credentials and endpoints come from the injected configuration.
type Service struct {
	secretKey   string
	baseURL     string
	redirectURL string
	httpClient  *http.Client
}

// NewService creates a new Flutterwave client
func NewService(cfg *config.Config) *Service {
	return &Service{
		secretKey:   cfg.Flutterwave.SecretKey,
		baseURL:     cfg.Flutterwave.BaseURL,
		redirectURL: cfg.Flutterwave.RedirectURL,
		httpClient: &http.Client{
			Timeout: cfg.Flutterwave.Timeout,
		},
	}
}

// Customer identifies the paying customer on the hosted payment page
type Customer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber"`
	Name        string `json:"name"`
}

// Customizations control the title/description shown on the payment page
type Customizations struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SessionRequest is the create-payment payload
type SessionRequest struct {
	TxRef          string         `json:"tx_ref"`
	Amount         int64          `json:"amount"`
	Currency       string         `json:"currency"`
	RedirectURL    string         `json:"redirect_url"`
	PaymentOptions string         `json:"payment_options"`
	Customer       Customer       `json:"customer"`
	Customizations Customizations `json:"customizations"`
}

// Session is the gateway's answer to a successful create-payment call
type Session struct {
	Link string `json:"link"`
}

// VerifyResult carries the gateway-reported transaction status
type VerifyResult struct {
	Status string `json:"status"`
}

// Successful reports whether the gateway confirmed the payment
func (v *VerifyResult) Successful() bool {
	return v.Status == StatusSuccessful
}

// gatewayResponse is the common envelope of Flutterwave responses
type gatewayResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// RedirectURL returns the configured post-payment redirect target
func (s *Service) RedirectURL() string {
	return s.redirectURL
}

// CreateSession creates a payment session for the given reference and amount.
// The call is not retried: a duplicate create under the same reference would
// be rejected by the gateway, so retrying is the caller's decision.
func (s *Service) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	if req.RedirectURL == "" {
		req.RedirectURL = s.redirectURL
	}
	if req.PaymentOptions == "" {
		req.PaymentOptions = "card,banktransfer"
	}

	body, err := s.call(ctx, http.MethodPost, "/payments", req)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(body.Data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse payment session response: %w", err)
	}
	if session.Link == "" {
		return nil, fmt.Errorf("payment session response missing redirect link")
	}

	return &session, nil
}

// VerifyTransaction asks the gateway for the status of the transaction
// correlated with the given reference.
func (s *Service) VerifyTransaction(ctx context.Context, txRef string) (*VerifyResult, error) {
	endpoint := "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)

	body, err := s.call(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var result VerifyResult
	if err := json.Unmarshal(body.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse verification response: %w", err)
	}

	return &result, nil
}

// call performs one HTTP round trip against the gateway
func (s *Service) call(ctx context.Context, method, endpoint string, payload interface{}) (*gatewayResponse, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrGatewayUnavailable, resp.StatusCode, string(respBody))
	}

	var envelope gatewayResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}

	return &envelope, nil
}
