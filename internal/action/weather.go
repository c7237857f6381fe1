package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

const weatherUserAgent = "fathom-actions/1.0"

var (
	ErrMissingWeatherAPIKey = errors.New("weather API key is not set")
	ErrLocationNotFound     = errors.New("could not geocode location")
)

// WeatherAction fetches current conditions and the daily range for a city.
// The location is geocoded through OpenStreetMap Nominatim first, then
// resolved against the OpenWeather One Call API.
type WeatherAction struct {
	client *http.Client
	apiKey string

	// Overridable for tests.
	GeocodeBaseURL string
	WeatherBaseURL string
}

func NewWeatherAction(client *http.Client, apiKey string) *WeatherAction {
	return &WeatherAction{
		client:         client,
		apiKey:         apiKey,
		GeocodeBaseURL: "https://nominatim.openstreetmap.org",
		WeatherBaseURL: "https://api.openweathermap.org",
	}
}

func (w *WeatherAction) Schema() Schema {
	return Schema{
		Name: "get_weather",
		Description: "Retrieves the current weather and short-term forecast for a given city. " +
			"Use this tool whenever a user requests weather information for a specific location, including temperature, conditions, and forecast ranges. " +
			"The input location must be formatted as a city name (e.g., 'Austin') and will be geocoded to latitude/longitude internally. " +
			"This tool depends on the OpenWeatherMap API and may fail if the city name is misspelled or invalid.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"location": {
					Type:        "string",
					Description: "City, e.g., 'Boise'.",
				},
			},
			Required: []string{"location"},
		},
	}
}

type weatherRequest struct {
	Location string `json:"location"`
}

type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type weatherResponse struct {
	Current struct {
		Temp    float64 `json:"temp"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"current"`
	Daily []struct {
		Temp struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"temp"`
	} `json:"daily"`
}

func (w *WeatherAction) Execute(ctx context.Context, input map[string]any) (string, error) {
	var req weatherRequest
	if err := decodeInput(input, &req); err != nil {
		return "", err
	}
	if req.Location == "" {
		return "", errors.New("location is required")
	}
	if w.apiKey == "" {
		return "", ErrMissingWeatherAPIKey
	}

	lat, lon, err := w.geocode(ctx, req.Location)
	if err != nil {
		return "", err
	}

	reqURL := fmt.Sprintf(
		"%s/data/3.0/onecall?lat=%s&lon=%s&appid=%s&units=imperial",
		w.WeatherBaseURL, url.QueryEscape(lat), url.QueryEscape(lon), url.QueryEscape(w.apiKey),
	)
	var data weatherResponse
	if err = w.getJSON(ctx, reqURL, &data); err != nil {
		return "", fmt.Errorf("failed to fetch weather data: %w", err)
	}

	desc := "no description"
	if len(data.Current.Weather) > 0 {
		desc = data.Current.Weather[0].Description
	}
	if len(data.Daily) > 0 {
		today := data.Daily[0].Temp
		return fmt.Sprintf(
			"%s: %s, %.1f°F (min %.1f°F, max %.1f°F)",
			req.Location, desc, data.Current.Temp, today.Min, today.Max,
		), nil
	}
	return fmt.Sprintf("%s: %s, %.1f°F", req.Location, desc, data.Current.Temp), nil
}

func (w *WeatherAction) geocode(ctx context.Context, city string) (lat, lon string, err error) {
	reqURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", w.GeocodeBaseURL, url.QueryEscape(city))
	var results []geocodeResult
	if err = w.getJSON(ctx, reqURL, &results); err != nil {
		return "", "", fmt.Errorf("failed to geocode %q: %w", city, err)
	}
	if len(results) == 0 {
		return "", "", fmt.Errorf("%w: %s", ErrLocationNotFound, city)
	}
	return results[0].Lat, results[0].Lon, nil
}

func (w *WeatherAction) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", weatherUserAgent)
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
