package pricing

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawSubItem mirrors the loose shape of a nested service in catalog data,
// where duration may arrive as a number, a string like "30 min", or under the
// legacy "time" key.
type RawSubItem struct {
	Name     string `json:"name"`
	Duration any    `json:"duration"`
	Time     any    `json:"time"`
}

// RawItem mirrors the loose shape of a cart entry as stored upstream. The
// catalog is not guaranteed to be well-typed, so every numeric field is
// coerced here with a best-effort, default-zero policy and never again.
type RawItem struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	ImageURL   string       `json:"imageUrl"`
	Price      Money        `json:"price"`
	OfferPrice *Money       `json:"offerPrice"`
	Quantity   int          `json:"quantity"`
	Duration   any          `json:"duration"`
	Time       any          `json:"time"`
	Services   []RawSubItem `json:"services"`
	Items      []RawSubItem `json:"items"`
	IsFree     bool         `json:"isFree"`
}

// ParseMinutes coerces a duration value to whole minutes. Numbers pass
// through, strings contribute their leading integer ("45 min" -> 45), and
// anything else degrades to zero rather than raising.
func ParseMinutes(v any) int {
	switch value := v.(type) {
	case nil:
		return 0
	case int:
		return nonNegative(value)
	case int64:
		return nonNegative(int(value))
	case float64:
		return nonNegative(int(value))
	case json.Number:
		if f, err := value.Float64(); err == nil {
			return nonNegative(int(f))
		}
		return 0
	case string:
		return leadingInt(value)
	default:
		return 0
	}
}

// NormalizeItem converts a loose upstream entry into a strict LineItem.
func NormalizeItem(raw RawItem) LineItem {
	item := LineItem{
		ID:         raw.ID,
		Name:       raw.Name,
		ImageURL:   raw.ImageURL,
		Price:      raw.Price,
		OfferPrice: raw.OfferPrice,
		Quantity:   raw.Quantity,
		IsFree:     raw.IsFree,
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	for _, sub := range raw.Services {
		minutes := ParseMinutes(sub.Duration)
		if minutes == 0 {
			minutes = ParseMinutes(sub.Time)
		}
		item.Services = append(item.Services, SubItem{Name: sub.Name, Duration: minutes})
	}
	for _, sub := range raw.Items {
		item.Items = append(item.Items, SubItem{Name: sub.Name, Duration: ParseMinutes(sub.Duration)})
	}
	if len(item.Services) == 0 && len(item.Items) == 0 {
		item.Duration = ParseMinutes(raw.Duration)
		if item.Duration == 0 {
			item.Duration = ParseMinutes(raw.Time)
		}
	}
	return item
}

// NormalizeItems converts a slice of loose entries.
func NormalizeItems(raw []RawItem) []LineItem {
	items := make([]LineItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, NormalizeItem(r))
	}
	return items
}

func leadingInt(s string) int {
	trimmed := strings.TrimSpace(s)
	end := 0
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	parsed, err := strconv.Atoi(trimmed[:end])
	if err != nil {
		return 0
	}
	return parsed
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
