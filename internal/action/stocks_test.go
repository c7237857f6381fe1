package action

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockAction_Execute(t *testing.T) {
	quotes := map[string]string{
		"AAPL": `{"data": [{"symbol": "AAPL", "close": 228.52, "date": "2025-03-14T00:00:00+0000"}]}`,
		"TSLA": `{"data": [{"symbol": "TSLA", "close": 249.98, "date": "2025-03-14T00:00:00+0000"}]}`,
	}
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v2/eod", r.URL.Path)
				assert.Equal(t, "test-key", r.URL.Query().Get("access_key"))
				body, ok := quotes[r.URL.Query().Get("symbols")]
				if !ok {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_, _ = w.Write([]byte(body))
			},
		),
	)
	defer srv.Close()

	a := NewStockAction(srv.Client(), "test-key")
	a.BaseURL = srv.URL

	result, err := a.Execute(context.Background(), map[string]any{"tickers": []any{"AAPL", "TSLA"}})
	require.NoError(t, err)

	// Tickers are fetched concurrently, so line order is not guaranteed.
	lines := strings.Split(result, "\n")
	sort.Strings(lines)
	assert.Equal(
		t, []string{
			"AAPL: close 228.52 (2025-03-14T00:00:00+0000)",
			"TSLA: close 249.98 (2025-03-14T00:00:00+0000)",
		}, lines,
	)
}

func TestStockAction_UnknownTicker(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"data": []}`)
			},
		),
	)
	defer srv.Close()

	a := NewStockAction(srv.Client(), "test-key")
	a.BaseURL = srv.URL

	_, err := a.Execute(context.Background(), map[string]any{"tickers": []any{"NOPE"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOPE")
}

func TestStockAction_MissingAPIKey(t *testing.T) {
	a := NewStockAction(http.DefaultClient, "")

	_, err := a.Execute(context.Background(), map[string]any{"tickers": []any{"AAPL"}})
	require.ErrorIs(t, err, ErrMissingStockAPIKey)
}

func TestStockAction_NoTickers(t *testing.T) {
	a := NewStockAction(http.DefaultClient, "test-key")

	_, err := a.Execute(context.Background(), map[string]any{"tickers": []any{}})
	require.Error(t, err)
}
