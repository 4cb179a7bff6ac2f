// Package weather answers current-conditions and forecast questions using OpenWeatherMap.
package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"specter/internal/config"
	"specter/internal/httpclient"
	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CacheTTL is how long a formatted answer is reused for the same query.
const CacheTTL = 10 * time.Minute

const (
	cacheSize       = 64
	defaultDays     = 3
	maxForecastDays = 5
	slotsPerDay     = 8 // the forecast endpoint returns 3-hour steps
	rule            = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("WEATHER_API_KEY is not set")

var locationStopWords = map[string]bool{
	"weather": true, "in": true, "at": true, "for": true, "what's": true, "whats": true,
	"what": true, "is": true, "the": true, "like": true, "get": true, "tell": true,
	"me": true, "forecast": true, "how": true, "today": true, "show": true, "check": true,
	"it": true, "outside": true, "current": true, "temperature": true, "will": true,
	"rain": true, "next": true, "days": true, "a": true,
}

var windDirections = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

var titleCaser = cases.Title(language.English)

// Module is the weather capability.
type Module struct {
	defaultCity string
	apiKey      string
	client      *httpclient.Client
	cache       *expirable.LRU[string, string]
	log         *log.Logger
}

// New creates the weather module. It fails when no API key is configured.
func New(cfg config.WeatherConfig, timeout time.Duration) (*Module, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	city := cfg.DefaultCity
	if city == "" {
		city = "London"
	}
	return &Module{
		defaultCity: city,
		apiKey:      cfg.APIKey,
		client:      httpclient.New(cfg.BaseURL, timeout, nil),
		cache:       expirable.NewLRU[string, string](cacheSize, nil, CacheTTL),
		log:         logger.NewStyledLogger("Weather"),
	}, nil
}

// Slot returns the weather slot.
func (m *Module) Slot() spectertypes.Slot {
	return spectertypes.SlotWeather
}

// Handle answers a free-form weather question.
func (m *Module) Handle(ctx context.Context, command string) (string, error) {
	city := m.ExtractLocation(command)
	if strings.Contains(strings.ToLower(command), "forecast") {
		return m.Forecast(ctx, city, defaultDays), nil
	}
	return m.Current(ctx, city), nil
}

// Invoke serves get_weather and get_forecast.
func (m *Module) Invoke(ctx context.Context, fn spectertypes.Function, params map[string]string) (string, error) {
	city := strings.TrimSpace(params["location"])
	if city == "" {
		city = m.ExtractLocation(params["command"])
	}

	switch fn {
	case spectertypes.FuncGetWeather:
		return m.Current(ctx, city), nil
	case spectertypes.FuncGetForecast:
		days := defaultDays
		if raw := params["days"]; raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				days = n
			}
		}
		return m.Forecast(ctx, city, days), nil
	default:
		return "", fmt.Errorf("%w: %s", spectertypes.ErrUnsupportedFunction, fn)
	}
}

// ExtractLocation strips question words from command and returns what is left,
// or the default city when nothing remains.
func (m *Module) ExtractLocation(command string) string {
	var kept []string
	for _, word := range strings.Fields(strings.ToLower(command)) {
		word = strings.Trim(word, "?!.,")
		if word == "" || locationStopWords[word] {
			continue
		}
		kept = append(kept, word)
	}
	if len(kept) == 0 {
		return m.defaultCity
	}
	return titleCaser.String(strings.Join(kept, " "))
}

// Current returns the formatted current conditions for city.
func (m *Module) Current(ctx context.Context, city string) string {
	key := "current:" + strings.ToLower(city)
	if cached, ok := m.cache.Get(key); ok {
		m.log.Debug("Weather cache hit", "city", city)
		return cached
	}

	var data currentResponse
	query := url.Values{"q": {city}, "appid": {m.apiKey}, "units": {"metric"}}
	if err := m.client.GetJSON(ctx, "/weather", query, &data); err != nil {
		return m.failure(city, "weather", err)
	}

	text := formatCurrent(data)
	m.cache.Add(key, text)
	return text
}

// Forecast returns a per-day summary for the next days (1 to 5).
func (m *Module) Forecast(ctx context.Context, city string, days int) string {
	if days < 1 {
		days = 1
	}
	if days > maxForecastDays {
		days = maxForecastDays
	}

	key := fmt.Sprintf("forecast:%d:%s", days, strings.ToLower(city))
	if cached, ok := m.cache.Get(key); ok {
		m.log.Debug("Forecast cache hit", "city", city)
		return cached
	}

	var data forecastResponse
	query := url.Values{
		"q":     {city},
		"appid": {m.apiKey},
		"units": {"metric"},
		"cnt":   {strconv.Itoa(days * slotsPerDay)},
	}
	if err := m.client.GetJSON(ctx, "/forecast", query, &data); err != nil {
		return m.failure(city, "forecast", err)
	}

	text := formatForecast(data, days)
	m.cache.Add(key, text)
	return text
}

func (m *Module) failure(city, what string, err error) string {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Sprintf("City '%s' not found. Please check the spelling.", city)
	}
	m.log.Error("Weather request failed", "city", city, "error", err)
	return fmt.Sprintf("Error getting %s for %s. Please try again.", what, city)
}

type condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type currentResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []condition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility int   `json:"visibility"`
	Timezone   int64 `json:"timezone"`
}

type forecastResponse struct {
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int64  `json:"timezone"`
	} `json:"city"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []condition `json:"weather"`
		Pop     float64     `json:"pop"`
	} `json:"list"`
}

// localTime converts a unix timestamp to the city's wall clock.
func localTime(unix, offset int64) time.Time {
	return time.Unix(unix+offset, 0).UTC()
}

func formatCurrent(data currentResponse) string {
	var cond condition
	if len(data.Weather) > 0 {
		cond = data.Weather[0]
	}
	temp := int(math.Round(data.Main.Temp))
	feels := int(math.Round(data.Main.FeelsLike))
	windKmh := data.Wind.Speed * 3.6
	visibility := float64(data.Visibility) / 1000

	var b strings.Builder
	fmt.Fprintf(&b, "🌤️ Weather in %s, %s\n", data.Name, data.Sys.Country)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "🌡️  Temperature: %d°C (feels like %d°C)\n", temp, feels)
	fmt.Fprintf(&b, "☁️  Condition: %s\n", titleCaser.String(cond.Description))
	fmt.Fprintf(&b, "💧  Humidity: %d%%\n", data.Main.Humidity)
	fmt.Fprintf(&b, "📊  Pressure: %d hPa\n", data.Main.Pressure)
	if windKmh > 0 {
		fmt.Fprintf(&b, "💨  Wind: %.1f km/h %s\n", windKmh, WindDirection(data.Wind.Deg))
	}
	if visibility > 0 {
		fmt.Fprintf(&b, "👁️  Visibility: %.1f km\n", visibility)
	}
	fmt.Fprintf(&b, "🌅  Sunrise: %s | 🌇 Sunset: %s",
		localTime(data.Sys.Sunrise, data.Timezone).Format("15:04"),
		localTime(data.Sys.Sunset, data.Timezone).Format("15:04"))

	if advice := Advice(temp, cond.Main, data.Main.Humidity, windKmh); advice != "" {
		fmt.Fprintf(&b, "\n\n💡 Advice: %s", advice)
	}
	return b.String()
}

func formatForecast(data forecastResponse, days int) string {
	type day struct {
		date       time.Time
		min, max   float64
		conditions []string
		rain       float64
	}

	var order []string
	byDate := make(map[string]*day)
	for _, entry := range data.List {
		at := localTime(entry.Dt, data.City.Timezone)
		key := at.Format("2006-01-02")
		d, ok := byDate[key]
		if !ok {
			d = &day{date: at, min: entry.Main.Temp, max: entry.Main.Temp}
			byDate[key] = d
			order = append(order, key)
		}
		d.min = math.Min(d.min, entry.Main.Temp)
		d.max = math.Max(d.max, entry.Main.Temp)
		if len(entry.Weather) > 0 {
			d.conditions = append(d.conditions, entry.Weather[0].Description)
		}
		d.rain = math.Max(d.rain, entry.Pop*100)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 %d-Day Forecast for %s, %s\n", days, data.City.Name, data.City.Country)
	b.WriteString(rule)
	if len(order) > days {
		order = order[:days]
	}
	for _, key := range order {
		d := byDate[key]
		fmt.Fprintf(&b, "\n\n📆 %s\n", d.date.Format("Monday, January 02"))
		fmt.Fprintf(&b, "    🌡️ %d°C - %d°C\n", int(math.Round(d.min)), int(math.Round(d.max)))
		fmt.Fprintf(&b, "    ☁️ %s", titleCaser.String(mostCommon(d.conditions)))
		if d.rain > 20 {
			fmt.Fprintf(&b, "\n    🌧️ Rain chance: %.0f%%", d.rain)
		}
	}
	return b.String()
}

// mostCommon returns the most frequent value; ties go to the earliest.
func mostCommon(values []string) string {
	counts := make(map[string]int, len(values))
	best, bestCount := "", 0
	for _, v := range values {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// WindDirection maps degrees to a 16-point compass direction.
func WindDirection(degrees float64) string {
	idx := int(math.Round(degrees/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return windDirections[idx]
}

// Advice returns practical tips for the conditions, or "".
func Advice(temp int, condition string, humidity int, windKmh float64) string {
	var tips []string

	switch {
	case temp < 0:
		tips = append(tips, "Bundle up! It's freezing outside.")
	case temp < 10:
		tips = append(tips, "Wear a warm coat.")
	case temp > 30:
		tips = append(tips, "Stay hydrated and seek shade.")
	case temp > 25:
		tips = append(tips, "Perfect weather for outdoor activities!")
	}

	switch {
	case condition == "Rain" || condition == "Drizzle":
		tips = append(tips, "Don't forget your umbrella!")
	case condition == "Snow":
		tips = append(tips, "Drive carefully and wear appropriate footwear.")
	case condition == "Thunderstorm":
		tips = append(tips, "Stay indoors if possible.")
	case condition == "Fog" || strings.Contains(condition, "Mist"):
		tips = append(tips, "Be careful driving, visibility is reduced.")
	}

	switch {
	case humidity > 80:
		tips = append(tips, "High humidity, you might feel warmer than the temperature suggests.")
	case humidity < 30:
		tips = append(tips, "Low humidity, stay hydrated.")
	}

	if windKmh > 30 {
		tips = append(tips, "Strong winds, secure loose objects.")
	}

	return strings.Join(tips, " ")
}
