package weather

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCurrent renders current conditions as a bulleted block.
func FormatCurrent(place *Place, cur *Conditions) string {
	t := cur.Time
	if t == "" {
		t = "unknown"
	}
	return fmt.Sprintf("Current weather for %s:\n- Time: %s\n- Condition: %s\n- Temperature: %s°C\n- Wind: %s m/s",
		place.DisplayName(), t, Describe(cur.WeatherCode), number(cur.Temperature), number(cur.WindSpeed))
}

// FormatForecast renders the hourly series as a Markdown table.
func FormatForecast(place *Place, hours []Hour) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hourly forecast for %s (next %d hours):\n\n", place.DisplayName(), len(hours))
	sb.WriteString("| Time | Condition | Temperature (°C) | Wind (m/s) | Precip (%) |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, h := range hours {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n", h.Time, Describe(h.WeatherCode), number(h.Temperature), number(h.WindSpeed), percent(h.PrecipProbability))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func number(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func percent(v *int) string {
	if v == nil {
		return "n/a"
	}
	return strconv.Itoa(*v)
}
