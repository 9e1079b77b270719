package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"spaceblack/internal/config"
	"spaceblack/internal/tools"
)

// openWeatherAPIBase is a var so tests can point it at a local server.
var openWeatherAPIBase = "https://api.openweathermap.org"

var weatherClient = &http.Client{Timeout: 15 * time.Second}

// WeatherTool returns the current-weather tool backed by
// OpenWeatherMap.
func WeatherTool(cfg *config.Config) *tools.Tool {
	return &tools.Tool{
		Name:        "get_current_weather",
		Description: "Get the current weather for a city (e.g. 'London', 'Tokyo').",
		Category:    tools.CategorySkill,
		Schema: tools.ToolSchema{
			Required: []string{"city"},
			Properties: map[string]tools.Property{
				"city": {Type: "string", Description: "City name"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			apiKey := credential(cfg, "openweather", "api_key", "OPENWEATHER_API_KEY")
			if apiKey == "" {
				return "", fmt.Errorf("missing OpenWeather API key: configure the openweather skill or set OPENWEATHER_API_KEY")
			}
			city := tools.StringArg(args, "city", "")
			return currentWeather(ctx, apiKey, city)
		},
	}
}

func currentWeather(ctx context.Context, apiKey, city string) (string, error) {
	endpoint := fmt.Sprintf("%s/data/2.5/weather?q=%s&appid=%s&units=metric",
		openWeatherAPIBase, url.QueryEscape(city), url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := weatherClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openweather api: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fmt.Errorf("city %q not found", city)
	case http.StatusUnauthorized:
		return "", fmt.Errorf("invalid OpenWeather API key")
	default:
		return "", fmt.Errorf("openweather api: status %d", resp.StatusCode)
	}

	var data struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("openweather api: %w", err)
	}

	desc := "unknown"
	if len(data.Weather) > 0 {
		desc = data.Weather[0].Description
	}
	return fmt.Sprintf("Weather in %s: %s, Temperature: %.1f°C, Feels like: %.1f°C, Humidity: %d%%",
		city, desc, data.Main.Temp, data.Main.FeelsLike, data.Main.Humidity), nil
}
