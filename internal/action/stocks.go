package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sourcegraph/conc/pool"
)

var ErrMissingStockAPIKey = errors.New("stock API key is not set")

// StockAction reports the latest end-of-day quote for each requested ticker.
// Tickers are fetched concurrently so one slow symbol does not serialize the
// rest.
type StockAction struct {
	client *http.Client
	apiKey string

	// Overridable for tests.
	BaseURL string
}

func NewStockAction(client *http.Client, apiKey string) *StockAction {
	return &StockAction{
		client:  client,
		apiKey:  apiKey,
		BaseURL: "http://api.marketstack.com",
	}
}

func (s *StockAction) Schema() Schema {
	return Schema{
		Name: "get_stock_info",
		Description: "Retrieves current stock prices and related financial data for a list of provided stock tickers. " +
			"Use when a user provides one or more stock symbols (e.g., ['AAPL', 'GOOG']). " +
			"This tool fetches live stock market information and summarizes it for quick reference. " +
			"Ticker symbols must be accurate as the tool does not auto-correct invalid inputs.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"tickers": {
					Type:        "array",
					Description: "List of stock ticker symbols, e.g., ['AAPL', 'TSLA'].",
					Items:       &Property{Type: "string"},
				},
			},
			Required: []string{"tickers"},
		},
	}
}

type stockRequest struct {
	Tickers []string `json:"tickers"`
}

type stockQuote struct {
	Symbol string  `json:"symbol"`
	Close  float64 `json:"close"`
	Date   string  `json:"date"`
}

type stockResponse struct {
	Data []stockQuote `json:"data"`
}

func (s *StockAction) Execute(ctx context.Context, input map[string]any) (string, error) {
	var req stockRequest
	if err := decodeInput(input, &req); err != nil {
		return "", err
	}
	if len(req.Tickers) == 0 {
		return "", errors.New("at least one ticker is required")
	}
	if s.apiKey == "" {
		return "", ErrMissingStockAPIKey
	}

	p := pool.NewWithResults[string]().WithContext(ctx)
	for _, ticker := range req.Tickers {
		p.Go(
			func(ctx context.Context) (string, error) {
				return s.fetchQuote(ctx, ticker)
			},
		)
	}
	lines, err := p.Wait()
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (s *StockAction) fetchQuote(ctx context.Context, ticker string) (string, error) {
	reqURL := fmt.Sprintf(
		"%s/v2/eod?access_key=%s&symbols=%s&limit=1",
		s.BaseURL, url.QueryEscape(s.apiKey), url.QueryEscape(ticker),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch quote for %s: %w", ticker, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, ticker)
	}
	var data stockResponse
	if err = json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode quote for %s: %w", ticker, err)
	}
	if len(data.Data) == 0 {
		return "", fmt.Errorf("no data found for ticker %q", ticker)
	}
	q := data.Data[0]
	return fmt.Sprintf("%s: close %.2f (%s)", q.Symbol, q.Close, q.Date), nil
}
