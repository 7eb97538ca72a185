package transit

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// minSimilarity is the ratio a station name must exceed to match a query.
const minSimilarity = 0.7

// Lookup finds a station by ID, or else by the most similar name. Names need
// not match exactly: the best candidate wins if its similarity ratio exceeds 0.7.
func (n *Network) Lookup(query string) (*Station, error) {
	if station, ok := n.stations[query]; ok {
		return station, nil
	}
	wanted := []rune(strings.ToLower(strings.TrimSpace(query)))

	var (
		best      *Station
		bestRatio float64
	)
	for _, station := range n.Stations() {
		ratio := similarity(wanted, []rune(strings.ToLower(station.Name)))
		if ratio > bestRatio {
			best, bestRatio = station, ratio
		}
	}
	if best == nil || bestRatio <= minSimilarity {
		return nil, fmt.Errorf("%w: no station named like %q", ErrUnknownStation, query)
	}
	return best, nil
}

// similarity is the Ratcliff/Obershelp ratio of the two rune sequences.
func similarity(a, b []rune) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(runes []rune) []string {
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
