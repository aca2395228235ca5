// internal/domain/payment/flutterwave_test.go
package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
)

func newTestService(baseURL string) *Service {
	cfg := &config.Config{
		Flutterwave: config.FlutterwaveConfig{
			SecretKey:   "FLWSECK_TEST-secret",
			BaseURL:     baseURL,
			RedirectURL: "http://localhost:3000/payment-callback",
			Timeout:     5 * time.Second,
		},
	}
	return NewService(cfg)
}

func TestCreateSession(t *testing.T) {
	var captured SessionRequest
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payments", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "success",
			"message": "Hosted Link",
			"data":    map[string]string{"link": "https://checkout.flutterwave.com/v3/hosted/pay/xyz"},
		})
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	session, err := svc.CreateSession(context.Background(), &SessionRequest{
		TxRef:    "order_20240101000000_abc",
		Amount:   24000,
		Currency: "NGN",
		Customer: Customer{
			Email:       "ada@example.com",
			PhoneNumber: "08012345678",
			Name:        "Ada Obi",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.flutterwave.com/v3/hosted/pay/xyz", session.Link)

	assert.Equal(t, "Bearer FLWSECK_TEST-secret", authHeader)
	assert.Equal(t, "order_20240101000000_abc", captured.TxRef)
	assert.Equal(t, int64(24000), captured.Amount)
	// Defaults are filled in before the request leaves
	assert.Equal(t, "http://localhost:3000/payment-callback", captured.RedirectURL)
	assert.Equal(t, "card,banktransfer", captured.PaymentOptions)
}

func TestCreateSession_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"error","message":"maintenance"}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	_, err := svc.CreateSession(context.Background(), &SessionRequest{
		TxRef: "order_x", Amount: 1000, Currency: "NGN",
	})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestCreateSession_MissingLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"ok","data":{}}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	_, err := svc.CreateSession(context.Background(), &SessionRequest{
		TxRef: "order_x", Amount: 1000, Currency: "NGN",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing redirect link")
}

func TestVerifyTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/transactions/verify_by_reference", r.URL.Path)
		require.Equal(t, "order_20240101000000_abc", r.URL.Query().Get("tx_ref"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"found","data":{"status":"successful"}}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	result, err := svc.VerifyTransaction(context.Background(), "order_20240101000000_abc")
	require.NoError(t, err)
	assert.True(t, result.Successful())
}

func TestVerifyTransaction_NotSuccessful(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"found","data":{"status":"failed"}}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	result, err := svc.VerifyTransaction(context.Background(), "order_x")
	require.NoError(t, err)
	assert.False(t, result.Successful())
}

func TestVerifyTransaction_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	svc := newTestService(server.URL)
	_, err := svc.VerifyTransaction(context.Background(), "order_x")
	assert.Error(t, err)
}
