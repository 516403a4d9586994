package analytics

import (
	"strings"
	"time"

	"github.com/angelmondragon/tillcore-backend/internal/sales"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
)

const DefaultPreset = "30d"

// ResolveRange turns either an explicit RFC3339 pair or a preset
// (7d, 30d, 90d) into a half-open range ending at now.
func ResolveRange(preset, from, to string, now time.Time) (sales.Range, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from != "" || to != "" {
		if from == "" || to == "" {
			return sales.Range{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to must be provided together")
		}
		start, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return sales.Range{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid from timestamp")
		}
		end, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return sales.Range{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid to timestamp")
		}
		if !start.Before(end) {
			return sales.Range{}, pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
		}
		return sales.Range{From: start.UTC(), To: end.UTC()}, nil
	}

	duration, ok := PresetDuration(preset)
	if !ok {
		return sales.Range{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid preset")
	}
	end := now.UTC()
	return sales.Range{From: end.Add(-duration), To: end}, nil
}

func PresetDuration(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = DefaultPreset
	}
	switch strings.ToLower(value) {
	case "7d":
		return 7 * 24 * time.Hour, true
	case "30d":
		return 30 * 24 * time.Hour, true
	case "90d":
		return 90 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// seriesDays is the number of daily buckets that covers the range.
func seriesDays(rg sales.Range) int {
	if rg.From.IsZero() || rg.To.IsZero() {
		return 30
	}
	days := int(rg.To.Sub(rg.From).Hours() / 24)
	if rg.To.Sub(rg.From)%(24*time.Hour) != 0 {
		days++
	}
	switch {
	case days < 1:
		return 1
	case days > 366:
		return 366
	}
	return days
}
