package tools

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/andhika/lyra/pkg/tool"
)

var weatherConditions = []string{
	"sunny", "cloudy", "rainy", "partly cloudy", "clear", "overcast",
}

// Weather serves simulated observations. Readings are derived from a
// hash of the location so repeated lookups for the same place agree,
// which keeps demos and cache behavior coherent.
type Weather struct{}

// NewWeather builds the weather tool.
func NewWeather() *Weather {
	return &Weather{}
}

// Descriptor implements tool.Tool.
func (w *Weather) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        "weather",
		Description: "Get current weather information including temperature, conditions, humidity, and wind speed for any city or location worldwide.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"location": map[string]interface{}{
					"type":        "string",
					"description": "City name or location (e.g., 'Paris', 'New York, NY', 'Tokyo')",
				},
				"units": map[string]interface{}{
					"type":        "string",
					"enum":        []interface{}{"celsius", "fahrenheit"},
					"description": "Temperature units",
					"default":     "celsius",
				},
			},
			"required": []interface{}{"location"},
		},
	}
}

// Run implements tool.Tool.
func (w *Weather) Run(_ context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	location, _ := args["location"].(string)
	if strings.TrimSpace(location) == "" {
		return map[string]interface{}{
			"success": false,
			"error":   "location must be a non-empty string",
			"sources": []interface{}{},
		}, nil
	}

	units, _ := args["units"].(string)
	if units != "fahrenheit" {
		units = "celsius"
	}

	// Ranges: temperature 5..35 C, humidity 30..90 %, wind 0..30 km/h.
	seed := locationSeed(location)
	tempC := 5 + int(seed%31)
	humidity := 30 + int((seed/31)%61)
	wind := int((seed/1913)%31)
	condition := weatherConditions[(seed/59)%uint64(len(weatherConditions))]

	temperature := tempC
	feelsLike := tempC - 2
	if units == "fahrenheit" {
		temperature = tempC*9/5 + 32
		feelsLike = temperature - 4
	}

	return map[string]interface{}{
		"location":       location,
		"temperature":    temperature,
		"units":          units,
		"condition":      condition,
		"humidity":       humidity,
		"wind_speed_kmh": wind,
		"feels_like":     feelsLike,
		"sources": []interface{}{
			map[string]interface{}{
				"name": "Weather API (Demo)",
				"url":  "internal://weather-api",
			},
		},
	}, nil
}

// Close implements tool.Tool.
func (w *Weather) Close() error { return nil }

func locationSeed(location string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(location))))
	return h.Sum64()
}
