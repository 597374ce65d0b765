package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PayPal implements Bridge against the PayPal REST API using the
// client-credentials OAuth flow. Tokens are fetched per call; the sandbox
// token endpoint is cheap and this keeps the client stateless.
type PayPal struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewPayPal(baseURL, clientID, clientSecret string, timeout time.Duration) *PayPal {
	return &PayPal{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

func (p *PayPal) CreateOrder(ctx context.Context, amountCents int64, currency string) (string, error) {
	const op = "payment.PayPal.CreateOrder"

	token, err := p.accessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"amount": map[string]string{
					"currency_code": currency,
					"value":         fmt.Sprintf("%d.%02d", amountCents/100, amountCents%100),
				},
			},
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/checkout/orders", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%s: provider returned no order id", op)
	}
	return out.ID, nil
}

func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	const op = "payment.PayPal.accessToken"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/oauth2/token", bytes.NewReader([]byte("grant_type=client_credentials")))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.SetBasicAuth(p.clientID, p.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%s: empty access token", op)
	}
	return out.AccessToken, nil
}
