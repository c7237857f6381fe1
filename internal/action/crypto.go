package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// CryptoAction fetches live market data for one coin from the public
// Coingecko API. No credential is required.
type CryptoAction struct {
	client *http.Client

	// Overridable for tests.
	BaseURL string
}

func NewCryptoAction(client *http.Client) *CryptoAction {
	return &CryptoAction{
		client:  client,
		BaseURL: "https://api.coingecko.com",
	}
}

func (c *CryptoAction) Schema() Schema {
	return Schema{
		Name: "get_crypto_price",
		Description: "Retrieves live cryptocurrency market data for a specific coin ID (such as 'bitcoin', 'ethereum') " +
			"in a specified fiat currency (such as 'USD', 'EUR', 'AMD'). " +
			"Uses the public Coingecko API (no authentication required). " +
			"Returns current price, market cap, and 24h volume for the coin.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"coin": {
					Type:        "string",
					Description: "The ID of the cryptocurrency on Coingecko (e.g., 'bitcoin', 'ethereum', 'dogecoin').",
				},
				"currency": {
					Type:        "string",
					Description: "The fiat currency code (e.g., 'usd', 'eur', 'amd').",
				},
			},
			Required: []string{"coin", "currency"},
		},
	}
}

type cryptoRequest struct {
	Coin     string `json:"coin"`
	Currency string `json:"currency"`
}

type cryptoMarket struct {
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	MarketCap    float64 `json:"market_cap"`
	TotalVolume  float64 `json:"total_volume"`
}

func (c *CryptoAction) Execute(ctx context.Context, input map[string]any) (string, error) {
	var req cryptoRequest
	if err := decodeInput(input, &req); err != nil {
		return "", err
	}
	if req.Coin == "" || req.Currency == "" {
		return "", errors.New("coin and currency are required")
	}

	reqURL := fmt.Sprintf(
		"%s/api/v3/coins/markets?vs_currency=%s&ids=%s",
		c.BaseURL, url.QueryEscape(req.Currency), url.QueryEscape(req.Coin),
	)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to fetch crypto data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var markets []cryptoMarket
	if err = json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return "", fmt.Errorf("failed to decode crypto data: %w", err)
	}
	if len(markets) == 0 {
		return "", fmt.Errorf("no data found for coin %q in currency %q", req.Coin, req.Currency)
	}

	m := markets[0]
	return fmt.Sprintf(
		"%s: %.2f %s (market cap %.0f, 24h volume %.0f)",
		m.Name, m.CurrentPrice, req.Currency, m.MarketCap, m.TotalVolume,
	), nil
}
