package action

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherAction_Execute(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/search":
					assert.Equal(t, "Boise", r.URL.Query().Get("q"))
					assert.Equal(t, weatherUserAgent, r.Header.Get("User-Agent"))
					_, _ = w.Write([]byte(`[{"lat": "43.61", "lon": "-116.20"}]`))
				case "/data/3.0/onecall":
					assert.Equal(t, "43.61", r.URL.Query().Get("lat"))
					assert.Equal(t, "-116.20", r.URL.Query().Get("lon"))
					assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
					assert.Equal(t, "imperial", r.URL.Query().Get("units"))
					_, _ = w.Write(
						[]byte(`{
							"current": {"temp": 71.3, "weather": [{"description": "clear sky"}]},
							"daily": [{"temp": {"min": 55.2, "max": 78.9}}]
						}`),
					)
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			},
		),
	)
	defer srv.Close()

	a := NewWeatherAction(srv.Client(), "test-key")
	a.GeocodeBaseURL = srv.URL
	a.WeatherBaseURL = srv.URL

	result, err := a.Execute(context.Background(), map[string]any{"location": "Boise"})
	require.NoError(t, err)
	assert.Equal(t, "Boise: clear sky, 71.3°F (min 55.2°F, max 78.9°F)", result)
}

func TestWeatherAction_LocationNotFound(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[]`))
			},
		),
	)
	defer srv.Close()

	a := NewWeatherAction(srv.Client(), "test-key")
	a.GeocodeBaseURL = srv.URL
	a.WeatherBaseURL = srv.URL

	_, err := a.Execute(context.Background(), map[string]any{"location": "Nowhereville"})
	require.ErrorIs(t, err, ErrLocationNotFound)
}

func TestWeatherAction_MissingAPIKey(t *testing.T) {
	a := NewWeatherAction(http.DefaultClient, "")

	_, err := a.Execute(context.Background(), map[string]any{"location": "Boise"})
	require.ErrorIs(t, err, ErrMissingWeatherAPIKey)
}

func TestWeatherAction_MissingLocation(t *testing.T) {
	a := NewWeatherAction(http.DefaultClient, "test-key")

	_, err := a.Execute(context.Background(), map[string]any{})
	require.Error(t, err)
}
