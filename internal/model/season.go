package model

import (
	"fmt"
	"regexp"
	"strconv"
)

var seasonPattern = regexp.MustCompile(`^(\d{4})_(\d{4})$`)

// SeasonFromCreated derives the season id ("2023_2024") from a league's
// created timestamp. Leagues are created before or at the start of the
// season they belong to.
func SeasonFromCreated(created string) (string, error) {
	if len(created) < 4 {
		return "", fmt.Errorf("%w: league created %q", ErrMalformed, created)
	}
	year, err := strconv.Atoi(created[:4])
	if err != nil {
		return "", fmt.Errorf("%w: league created %q", ErrMalformed, created)
	}
	return fmt.Sprintf("%d_%d", year, year+1), nil
}

// ValidSeason reports whether s looks like "2023_2024".
func ValidSeason(s string) bool {
	m := seasonPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}
