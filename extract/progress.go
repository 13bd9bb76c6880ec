package extract

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Progress logs throughput and the expected time to reach the pair limit.
type Progress struct {
	every int
	limit int
	start time.Time
	now   func() time.Time
	log   zerolog.Logger
}

// NewProgress reports every `every` pairs. limit 0 means the total is unknown.
func NewProgress(every, limit int, log zerolog.Logger) *Progress {
	return &Progress{every: every, limit: limit, now: time.Now, log: log}
}

// Start resets the clock.
func (p *Progress) Start() { p.start = p.now() }

// Observe is called with the running pair count after each emitted pair.
func (p *Progress) Observe(count int) {
	if p.every <= 0 || count == 0 || count%p.every != 0 {
		return
	}
	elapsed := p.now().Sub(p.start)
	perPair := elapsed / time.Duration(count)

	ev := p.log.Info().
		Int("pairs", count).
		Dur("elapsed", elapsed).
		Float64("ms_per_pair", float64(perPair)/float64(time.Millisecond))
	if secs := elapsed.Seconds(); secs > 0 {
		ev = ev.Float64("pairs_per_sec", float64(count)/secs)
	}
	if p.limit > 0 {
		ev = ev.Int("limit", p.limit).Str("eta", FormatETA(ETA(elapsed, count, p.limit)))
		ev.Msgf("%s / %s pairs", humanize.Comma(int64(count)), humanize.Comma(int64(p.limit)))
		return
	}
	ev.Msgf("%s pairs", humanize.Comma(int64(count)))
}

// ETA extrapolates the time left to reach limit from the time count took.
func ETA(elapsed time.Duration, count, limit int) time.Duration {
	if count <= 0 || limit <= count {
		return 0
	}
	return elapsed / time.Duration(count) * time.Duration(limit-count)
}

// FormatETA renders d as H:MM:SS.
func FormatETA(d time.Duration) string {
	s := int64(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
