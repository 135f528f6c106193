package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds REST adapter settings.
type Config struct {
	BaseURL       string        `env:"GATEWAY_BASE_URL,required"`
	APIKey        string        `env:"GATEWAY_API_KEY,required"`
	APISecret     string        `env:"GATEWAY_API_SECRET,required"`
	Timeout       time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`
	RetryAttempts int           `env:"GATEWAY_RETRY_ATTEMPTS" envDefault:"3"`
}

type restGateway struct {
	cfg     Config
	http    *http.Client
	tokens  TokenCache
	backoff ExponentialBackoff
}

// NewRESTGateway creates the REST adapter for the payment-link provider.
func NewRESTGateway(cfg Config, tokens TokenCache) (PaymentGateway, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: BaseURL is required", ErrInvalidConfig)
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("%w: APIKey and APISecret are required", ErrInvalidConfig)
	}
	if tokens == nil {
		tokens = NewMemoryTokenCache()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}

	return &restGateway{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		backoff: ExponentialBackoff{JitterFactor: 0.2},
	}, nil
}

type linkRequestBody struct {
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Country       string `json:"country"`
	TransactionID string `json:"transaction_id"`
	Description   string `json:"description,omitempty"`
	RedirectURL   string `json:"redirect_url"`
	PayerName     string `json:"payer_name,omitempty"`
	PayerEmail    string `json:"payer_email,omitempty"`
}

type linkResponseBody struct {
	Link string `json:"link"`
}

func (g *restGateway) CreatePaymentLink(ctx context.Context, req LinkRequest) (*PaymentLink, error) {
	body, err := json.Marshal(linkRequestBody{
		Amount:        req.Amount,
		Currency:      req.Currency,
		Country:       req.CountryCode,
		TransactionID: req.TransactionID,
		Description:   req.Description,
		RedirectURL:   req.RedirectURL,
		PayerName:     req.PayerName,
		PayerEmail:    req.PayerEmail,
	})
	if err != nil {
		return nil, err
	}

	data, err := g.call(ctx, http.MethodPost, "/v1/payment-links", body)
	if err != nil {
		return nil, err
	}

	var resp linkResponseBody
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	if resp.Link == "" {
		return nil, fmt.Errorf("%w: provider returned no payment link", ErrUnavailable)
	}
	return &PaymentLink{URL: resp.Link}, nil
}

type statusResponseBody struct {
	Status string `json:"status"`
}

func (g *restGateway) TransactionStatus(ctx context.Context, transactionID string) (TxStatus, error) {
	data, err := g.call(ctx, http.MethodGet, "/v1/transactions/"+transactionID+"/status", nil)
	if err != nil {
		return "", err
	}

	var resp statusResponseBody
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", errors.Join(ErrUnavailable, err)
	}

	switch resp.Status {
	case "success", "successful", "completed":
		return TxSuccess, nil
	case "failed", "cancelled", "expired":
		return TxFailed, nil
	default:
		return TxPending, nil
	}
}

// call performs one authenticated provider request with bounded retries for
// transient failures. A 401 invalidates the cached token and re-auths once;
// business rejections (other 4xx) are returned immediately as ErrRejected.
func (g *restGateway) call(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var lastErr error
	reauthed := false

	for attempt := 1; attempt <= g.cfg.RetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrUnavailable, ctx.Err())
			case <-time.After(g.backoff.NextInterval(attempt - 1)):
			}
		}

		token, err := g.bearerToken(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		data, status, err := g.do(ctx, method, path, body, token)
		switch {
		case err != nil:
			lastErr = err // transport error; retry
		case status == http.StatusUnauthorized && !reauthed:
			// token revoked by the provider; drop it and re-auth once
			reauthed = true
			_ = g.tokens.Invalidate(ctx)
			attempt-- // the re-auth pass does not consume a retry
			lastErr = fmt.Errorf("provider rejected the bearer token")
		case status >= 200 && status < 300:
			return data, nil
		case status >= 500:
			lastErr = fmt.Errorf("provider returned %d: %s", status, data)
		default:
			return nil, fmt.Errorf("%w: provider returned %d: %s", ErrRejected, status, data)
		}
	}
	return nil, errors.Join(ErrUnavailable, lastErr)
}

func (g *restGateway) do(ctx context.Context, method, path string, body []byte, token string) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

type authRequestBody struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

type authResponseBody struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}

// bearerToken returns a live provider token, authenticating when the cache
// is empty or expired.
func (g *restGateway) bearerToken(ctx context.Context) (string, error) {
	if token, ok, err := g.tokens.Get(ctx); err == nil && ok {
		return token, nil
	}

	body, err := json.Marshal(authRequestBody{APIKey: g.cfg.APIKey, APISecret: g.cfg.APISecret})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider auth returned %d", resp.StatusCode)
	}

	var auth authResponseBody
	if err := json.Unmarshal(data, &auth); err != nil {
		return "", err
	}
	if auth.Token == "" {
		return "", fmt.Errorf("provider auth returned no token")
	}

	expiresAt := time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)
	if err := g.tokens.Set(ctx, auth.Token, expiresAt); err != nil {
		return "", err
	}
	return auth.Token, nil
}
