// Package lake downloads IRS 990 bulk archives and turns each one into
// exported tables and, optionally, rows in a relational store.
package lake

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ParseYears parses a comma-separated list of years and inclusive ranges,
// e.g. "2015,2018-2020". The result is sorted and deduplicated. An empty
// string yields nil, meaning every year.
func ParseYears(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	seen := make(map[int]bool)
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		lo, hi, isRange := strings.Cut(tok, "-")
		from, err := parseYear(lo)
		if err != nil {
			return nil, err
		}
		to := from
		if isRange {
			if to, err = parseYear(hi); err != nil {
				return nil, err
			}
		}
		if to < from {
			return nil, eris.Errorf("lake: bad year range %q", tok)
		}
		for y := from; y <= to; y++ {
			seen[y] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < 1000 || y > 9999 {
		return 0, eris.Errorf("lake: bad year %q", s)
	}
	return y, nil
}

// YearRange lists every year from start to end inclusive.
func YearRange(start, end int) []int {
	var years []int
	for y := start; y <= end; y++ {
		years = append(years, y)
	}
	return years
}

func yearSet(years []int) map[int]bool {
	if len(years) == 0 {
		return nil
	}
	set := make(map[int]bool, len(years))
	for _, y := range years {
		set[y] = true
	}
	return set
}
