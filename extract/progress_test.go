package extract

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestETA(t *testing.T) {
	assert.Equal(t, 9*time.Second, ETA(time.Second, 100, 1000))
	assert.Equal(t, time.Duration(0), ETA(time.Second, 0, 1000))
	assert.Equal(t, time.Duration(0), ETA(time.Second, 1000, 1000))
	assert.Equal(t, "0:00:09", FormatETA(9*time.Second))
	assert.Equal(t, "2:03:04", FormatETA(2*time.Hour+3*time.Minute+4*time.Second))
}

func TestProgressObserve(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(100, 1000, zerolog.New(&buf))
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return t0 }
	p.Start()

	p.now = func() time.Time { return t0.Add(time.Second) }
	p.Observe(50)
	assert.Empty(t, buf.String())

	p.Observe(100)
	out := buf.String()
	assert.Contains(t, out, `"pairs":100`)
	assert.Contains(t, out, `"eta":"0:00:09"`)
	assert.Contains(t, out, `"pairs_per_sec":100`)
	assert.Contains(t, out, "100 / 1,000 pairs")
}
