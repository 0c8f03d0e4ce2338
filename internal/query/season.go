package query

import (
	"fmt"
	"strings"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/errors"
)

// Season is a fixed group of start months.
type Season string

// Seasons in calendar order starting with spring.
const (
	Spring Season = "Spring"
	Summer Season = "Summer"
	Autumn Season = "Autumn"
	Winter Season = "Winter"
)

// PickCount is the number of highlighted recommendations.
const PickCount = 3

var seasonMonths = map[Season][]int{
	Spring: {3, 4, 5},
	Summer: {6, 7, 8},
	Autumn: {9, 10, 11},
	Winter: {12, 1, 2},
}

// Seasons lists all seasons.
func Seasons() []Season {
	return []Season{Spring, Summer, Autumn, Winter}
}

// ParseSeason accepts English names (any case, "fall" for autumn) and the
// Korean names 봄, 여름, 가을, 겨울.
func ParseSeason(s string) (Season, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spring", "봄":
		return Spring, nil
	case "summer", "여름":
		return Summer, nil
	case "autumn", "fall", "가을":
		return Autumn, nil
	case "winter", "겨울":
		return Winter, nil
	default:
		return "", &errors.QueryError{Op: "season", Field: "season", Message: fmt.Sprintf("unknown season %q", s)}
	}
}

// Months returns the start months of the season.
func (s Season) Months() []int {
	return append([]int(nil), seasonMonths[s]...)
}

// Recommendation is the result of a seasonal query.
type Recommendation struct {
	Season Season           `json:"season"`
	Months []int            `json:"months"`
	Picks  []dataset.Record `json:"picks"`
	All    []dataset.Record `json:"all"`
}

// Recommend keeps the region and category constraints of state, replaces
// its month constraint with the season's months, and returns the top picks
// by foreign visitors along with every match in source order.
func Recommend(ds *dataset.Dataset, state FilterState, season Season) Recommendation {
	seasonal := state
	seasonal.Months = season.Months()
	seasonal.Search = ""

	all := Filter(ds, seasonal)
	return Recommendation{
		Season: season,
		Months: seasonal.Months,
		Picks:  TopByForeignVisitors(all, PickCount),
		All:    all,
	}
}
