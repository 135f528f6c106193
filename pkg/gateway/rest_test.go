package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launderly/launderly/pkg/gateway"
)

type providerStub struct {
	t *testing.T

	authCalls int32
	linkCalls int32

	// per-call hooks; nil means the default happy path
	onAuth func(w http.ResponseWriter, r *http.Request)
	onLink func(w http.ResponseWriter, r *http.Request)
}

func (p *providerStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&p.authCalls, 1)
		if p.onAuth != nil {
			p.onAuth(w, r)
			return
		}
		var body struct {
			APIKey    string `json:"api_key"`
			APISecret string `json:"api_secret"`
		}
		require.NoError(p.t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(p.t, "key", body.APIKey)
		assert.Equal(p.t, "secret", body.APISecret)
		writeJSON(w, http.StatusOK, map[string]any{"token": "tok-1", "expires_in": 3600})
	})
	mux.HandleFunc("/v1/payment-links", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&p.linkCalls, 1)
		if p.onLink != nil {
			p.onLink(w, r)
			return
		}
		assert.Equal(p.t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusCreated, map[string]any{"link": "https://pay.example/abc"})
	})
	mux.HandleFunc("/v1/transactions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasSuffix(r.URL.Path, "/status") {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestGateway(t *testing.T, stub *providerStub) gateway.PaymentGateway {
	t.Helper()

	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	gw, err := gateway.NewRESTGateway(gateway.Config{
		BaseURL:       srv.URL,
		APIKey:        "key",
		APISecret:     "secret",
		Timeout:       2 * time.Second,
		RetryAttempts: 3,
	}, gateway.NewMemoryTokenCache())
	require.NoError(t, err)
	return gw
}

func testLinkRequest() gateway.LinkRequest {
	return gateway.LinkRequest{
		Amount:        15000,
		Currency:      "XAF",
		CountryCode:   "CM",
		TransactionID: "reg_123",
		RedirectURL:   "https://app.example/verify",
		PayerEmail:    "owner@example.com",
	}
}

func TestRESTGateway_CreatePaymentLink(t *testing.T) {
	t.Parallel()

	stub := &providerStub{t: t}
	gw := newTestGateway(t, stub)

	link, err := gw.CreatePaymentLink(context.Background(), testLinkRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", link.URL)
	assert.EqualValues(t, 1, atomic.LoadInt32(&stub.authCalls))
}

func TestRESTGateway_TokenReusedAcrossCalls(t *testing.T) {
	t.Parallel()

	stub := &providerStub{t: t}
	gw := newTestGateway(t, stub)

	for i := 0; i < 3; i++ {
		_, err := gw.CreatePaymentLink(context.Background(), testLinkRequest())
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&stub.authCalls), "token should be cached between calls")
	assert.EqualValues(t, 3, atomic.LoadInt32(&stub.linkCalls))
}

func TestRESTGateway_ReauthOn401(t *testing.T) {
	t.Parallel()

	stub := &providerStub{t: t}
	stub.onLink = func(w http.ResponseWriter, r *http.Request) {
		// first bearer token is treated as revoked
		if r.Header.Get("Authorization") == "Bearer tok-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "token expired"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"link": "https://pay.example/abc"})
	}
	stub.onAuth = func(w http.ResponseWriter, r *http.Request) {
		token := "tok-1"
		if atomic.LoadInt32(&stub.authCalls) > 1 {
			token = "tok-2"
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": token, "expires_in": 3600})
	}
	gw := newTestGateway(t, stub)

	link, err := gw.CreatePaymentLink(context.Background(), testLinkRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", link.URL)
	assert.EqualValues(t, 2, atomic.LoadInt32(&stub.authCalls), "401 should trigger exactly one re-auth")
}

func TestRESTGateway_RejectionNotRetried(t *testing.T) {
	t.Parallel()

	stub := &providerStub{t: t}
	stub.onLink = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "unsupported currency"})
	}
	gw := newTestGateway(t, stub)

	_, err := gw.CreatePaymentLink(context.Background(), testLinkRequest())
	require.ErrorIs(t, err, gateway.ErrRejected)
	assert.EqualValues(t, 1, atomic.LoadInt32(&stub.linkCalls), "4xx must not be retried")
}

func TestRESTGateway_ServerErrorsRetriedThenUnavailable(t *testing.T) {
	t.Parallel()

	stub := &providerStub{t: t}
	stub.onLink = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "upstream down"})
	}
	gw := newTestGateway(t, stub)

	_, err := gw.CreatePaymentLink(context.Background(), testLinkRequest())
	require.ErrorIs(t, err, gateway.ErrUnavailable)
	assert.EqualValues(t, 3, atomic.LoadInt32(&stub.linkCalls), "5xx should exhaust all retry attempts")
}

func TestRESTGateway_ServerErrorRecoversOnRetry(t *testing.T) {
	t.Parallel()

	stub := &providerStub{t: t}
	stub.onLink = func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&stub.linkCalls) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "maintenance"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"link": "https://pay.example/abc"})
	}
	gw := newTestGateway(t, stub)

	link, err := gw.CreatePaymentLink(context.Background(), testLinkRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", link.URL)
	assert.EqualValues(t, 2, atomic.LoadInt32(&stub.linkCalls))
}

func TestRESTGateway_AuthFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	stub := &providerStub{t: t}
	stub.onAuth = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "bad credentials"})
	}
	gw := newTestGateway(t, stub)

	_, err := gw.CreatePaymentLink(context.Background(), testLinkRequest())
	require.ErrorIs(t, err, gateway.ErrUnavailable)
	assert.EqualValues(t, 0, atomic.LoadInt32(&stub.linkCalls))
}

func TestRESTGateway_TransactionStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		provider string
		want     gateway.TxStatus
	}{
		{"success", gateway.TxSuccess},
		{"completed", gateway.TxSuccess},
		{"failed", gateway.TxFailed},
		{"expired", gateway.TxFailed},
		{"pending", gateway.TxPending},
		{"processing", gateway.TxPending},
	}
	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/v1/auth/login" {
					writeJSON(w, http.StatusOK, map[string]any{"token": "tok-1", "expires_in": 3600})
					return
				}
				assert.Equal(t, "/v1/transactions/reg_123/status", r.URL.Path)
				writeJSON(w, http.StatusOK, map[string]any{"status": tc.provider})
			}))
			t.Cleanup(srv.Close)

			gw, err := gateway.NewRESTGateway(gateway.Config{
				BaseURL:   srv.URL,
				APIKey:    "key",
				APISecret: "secret",
			}, gateway.NewMemoryTokenCache())
			require.NoError(t, err)

			status, err := gw.TransactionStatus(context.Background(), "reg_123")
			require.NoError(t, err)
			assert.Equal(t, tc.want, status)
		})
	}
}

func TestNewRESTGateway_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := gateway.NewRESTGateway(gateway.Config{APIKey: "k", APISecret: "s"}, nil)
	require.ErrorIs(t, err, gateway.ErrInvalidConfig)

	_, err = gateway.NewRESTGateway(gateway.Config{BaseURL: "https://pay.example"}, nil)
	require.ErrorIs(t, err, gateway.ErrInvalidConfig)
}
