package enums

import "fmt"

// RankBy selects the ordering metric for best-seller reports.
type RankBy string

const (
	RankByQuantity RankBy = "quantity"
	RankByRevenue  RankBy = "revenue"
)

// String implements fmt.Stringer.
func (r RankBy) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r RankBy) IsValid() bool {
	return r == RankByQuantity || r == RankByRevenue
}

// ParseRankBy converts raw input into a RankBy; empty input means quantity.
func ParseRankBy(value string) (RankBy, error) {
	if value == "" {
		return RankByQuantity, nil
	}
	r := RankBy(value)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid rank_by %q", value)
	}
	return r, nil
}
