package extract

import (
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// Rejection tells why a game was filtered out. Filtering is a normal outcome,
// not an error.
type Rejection int

const (
	Accepted Rejection = iota
	RejectRating
	RejectTimeControl
	RejectResult
	RejectEmpty
)

func (r Rejection) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectRating:
		return "rating"
	case RejectTimeControl:
		return "time_control"
	case RejectResult:
		return "result"
	case RejectEmpty:
		return "empty"
	}
	return "unknown"
}

// Filter decides which games are worth learning from.
type Filter struct {
	MinRating       int
	MinBaseTime     int
	IncrementWeight float64
	CheckmatesOnly  bool
}

// NewFilter returns the filter described by conf.
func NewFilter(conf Config) Filter {
	return Filter{
		MinRating:       conf.MinRating,
		MinBaseTime:     conf.MinBaseTimeSeconds,
		IncrementWeight: conf.IncrementWeight,
		CheckmatesOnly:  conf.CheckmatesOnly,
	}
}

// Check returns Accepted or the first reason g fails the filter.
// Missing or non-numeric rating and time control tags reject the game.
func (f Filter) Check(g *chess.Game) Rejection {
	if len(g.Moves()) == 0 {
		return RejectEmpty
	}
	for _, key := range []string{"WhiteElo", "BlackElo"} {
		elo, err := strconv.Atoi(tagValue(g, key))
		if err != nil || elo <= f.MinRating {
			return RejectRating
		}
	}
	base, ok := f.baseTime(tagValue(g, "TimeControl"))
	if !ok || base <= float64(f.MinBaseTime) {
		return RejectTimeControl
	}
	if f.CheckmatesOnly {
		if o := g.Outcome(); o != chess.WhiteWon && o != chess.BlackWon {
			return RejectResult
		}
		if g.Position().Status() != chess.Checkmate {
			return RejectResult
		}
	}
	return Accepted
}

// baseTime parses a "base+increment" time control, crediting the increment
// with IncrementWeight.
func (f Filter) baseTime(tc string) (float64, bool) {
	parts := strings.SplitN(tc, "+", 2)
	base, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	total := float64(base)
	if len(parts) == 2 {
		inc, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, false
		}
		total += float64(inc) * f.IncrementWeight
	}
	return total, true
}

func tagValue(g *chess.Game, key string) string {
	for _, tp := range g.TagPairs() {
		if tp.Key == key {
			return tp.Value
		}
	}
	return ""
}
