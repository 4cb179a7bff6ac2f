package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"specter/internal/config"
	"specter/pkg/spectertypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jan1 = 1704067200 // 2024-01-01 00:00 UTC, a Monday

func currentFixture() map[string]interface{} {
	return map[string]interface{}{
		"name":       "Paris",
		"sys":        map[string]interface{}{"country": "FR", "sunrise": 0, "sunset": 36000},
		"main":       map[string]interface{}{"temp": 21.6, "feels_like": 21.2, "humidity": 85, "pressure": 1012},
		"weather":    []map[string]string{{"main": "Rain", "description": "light rain"}},
		"wind":       map[string]float64{"speed": 10, "deg": 90},
		"visibility": 8000,
		"timezone":   3600,
	}
}

func forecastFixture() map[string]interface{} {
	entry := func(dt int64, temp float64, desc string, pop float64) map[string]interface{} {
		return map[string]interface{}{
			"dt":      dt,
			"main":    map[string]float64{"temp": temp},
			"weather": []map[string]string{{"main": "x", "description": desc}},
			"pop":     pop,
		}
	}
	return map[string]interface{}{
		"city": map[string]interface{}{"name": "Paris", "country": "FR", "timezone": 0},
		"list": []map[string]interface{}{
			entry(jan1, 5, "clear sky", 0.1),
			entry(jan1+3*3600, 8, "clear sky", 0.1),
			entry(jan1+6*3600, 3, "few clouds", 0),
			entry(jan1+86400, 10, "rain", 0.6),
			entry(jan1+86400+3*3600, 12, "rain", 0.4),
			entry(jan1+2*86400, 7, "snow", 0),
		},
	}
}

type fakeAPI struct {
	server *httptest.Server
	hits   atomic.Int32
	city   atomic.Value
}

func newFakeAPI(t *testing.T) *fakeAPI {
	api := &fakeAPI{}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.hits.Add(1)
		api.city.Store(r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		switch r.URL.Query().Get("q") {
		case "Atlantis":
			http.Error(w, `{"message":"city not found"}`, http.StatusNotFound)
			return
		case "Broken":
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}

		switch r.URL.Path {
		case "/weather":
			_ = json.NewEncoder(w).Encode(currentFixture())
		case "/forecast":
			assert.Equal(t, "16", r.URL.Query().Get("cnt"))
			_ = json.NewEncoder(w).Encode(forecastFixture())
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(api.server.Close)
	return api
}

func newModule(t *testing.T, api *fakeAPI) *Module {
	m, err := New(config.WeatherConfig{
		APIKey:      "test-key",
		DefaultCity: "London",
		BaseURL:     api.server.URL,
	}, time.Second)
	require.NoError(t, err)
	return m
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(config.WeatherConfig{DefaultCity: "London"}, time.Second)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestExtractLocation(t *testing.T) {
	m, err := New(config.WeatherConfig{APIKey: "k", DefaultCity: "London"}, time.Second)
	require.NoError(t, err)

	tests := map[string]string{
		"what's the weather in paris?":        "Paris",
		"weather":                             "London",
		"tell me the forecast for new york":   "New York",
		"how is the weather like":             "London",
		"get weather at san francisco today.": "San Francisco",
	}
	for input, want := range tests {
		assert.Equal(t, want, m.ExtractLocation(input), "input %q", input)
	}
}

func TestCurrent_FormatsAndCaches(t *testing.T) {
	api := newFakeAPI(t)
	m := newModule(t, api)

	out, err := m.Handle(context.Background(), "what's the weather in paris")
	require.NoError(t, err)

	assert.Contains(t, out, "🌤️ Weather in Paris, FR")
	assert.Contains(t, out, "Temperature: 22°C (feels like 21°C)")
	assert.Contains(t, out, "Condition: Light Rain")
	assert.Contains(t, out, "Humidity: 85%")
	assert.Contains(t, out, "Pressure: 1012 hPa")
	assert.Contains(t, out, "Wind: 36.0 km/h E")
	assert.Contains(t, out, "Visibility: 8.0 km")
	assert.Contains(t, out, "Sunrise: 01:00 | 🌇 Sunset: 11:00")
	assert.Contains(t, out, "Don't forget your umbrella!")
	assert.Contains(t, out, "Strong winds")
	assert.Equal(t, "Paris", api.city.Load())

	again, err := m.Handle(context.Background(), "weather in Paris")
	require.NoError(t, err)
	assert.Equal(t, out, again)
	assert.Equal(t, int32(1), api.hits.Load())
}

func TestForecast_GroupsByDay(t *testing.T) {
	api := newFakeAPI(t)
	m := newModule(t, api)

	out, err := m.Invoke(context.Background(), spectertypes.FuncGetForecast, map[string]string{
		"command": "forecast for paris",
		"days":    "2",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "📅 2-Day Forecast for Paris, FR")
	assert.Contains(t, out, "Monday, January 01")
	assert.Contains(t, out, "3°C - 8°C")
	assert.Contains(t, out, "Clear Sky")
	assert.Contains(t, out, "Tuesday, January 02")
	assert.Contains(t, out, "Rain chance: 60%")
	assert.NotContains(t, out, "Wednesday")
	assert.NotContains(t, out, "Snow")
}

func TestCurrent_Failures(t *testing.T) {
	api := newFakeAPI(t)
	m := newModule(t, api)

	out := m.Current(context.Background(), "Atlantis")
	assert.Equal(t, "City 'Atlantis' not found. Please check the spelling.", out)

	out = m.Current(context.Background(), "Broken")
	assert.Equal(t, "Error getting weather for Broken. Please try again.", out)
}

func TestInvoke_LocationParamAndUnsupported(t *testing.T) {
	api := newFakeAPI(t)
	m := newModule(t, api)

	out, err := m.Invoke(context.Background(), spectertypes.FuncGetWeather, map[string]string{
		"command":  "is it raining",
		"location": "Paris",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Paris, FR")

	_, err = m.Invoke(context.Background(), spectertypes.FuncPlayMusic, nil)
	assert.ErrorIs(t, err, spectertypes.ErrUnsupportedFunction)
}

func TestWindDirection(t *testing.T) {
	tests := map[float64]string{0: "N", 22.5: "NNE", 90: "E", 180: "S", 270: "W", 350: "N", 337.5: "NNW"}
	for deg, want := range tests {
		assert.Equal(t, want, WindDirection(deg), "degrees %v", deg)
	}
}

func TestAdvice(t *testing.T) {
	assert.Equal(t, "", Advice(18, "Clear", 50, 5))
	assert.Equal(t, "Bundle up! It's freezing outside.", Advice(-3, "Clear", 50, 5))
	assert.Contains(t, Advice(5, "Snow", 50, 5), "appropriate footwear")
	assert.Contains(t, Advice(33, "Clear", 20, 5), "Low humidity")
	assert.Contains(t, Advice(15, "Mist", 50, 5), "visibility is reduced")
}
