package dual

import (
	"bytes"
	"testing"

	"github.com/chewxy/math32"
	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movenet/game"
)

func smallConf(head Head) Config {
	conf := DefaultConf(head)
	conf.Hidden = []int{16}
	conf.BatchSize = 2
	return conf
}

func TestConfig(t *testing.T) {
	conf := DefaultConf(ClassHead)
	assert.True(t, conf.IsValid())
	assert.Equal(t, game.InputLength, conf.Input)
	assert.Equal(t, []int{1024, 512}, conf.Hidden)
	assert.Equal(t, 4096, conf.Output)
	assert.Equal(t, 128, DefaultConf(TwoHotHead).Output)

	for _, mutate := range []func(*Config){
		func(c *Config) { c.Output = 128 },
		func(c *Config) { c.Head = "value" },
		func(c *Config) { c.BatchSize = 0 },
		func(c *Config) { c.Hidden = []int{8, 0} },
	} {
		c := DefaultConf(ClassHead)
		mutate(&c)
		assert.False(t, c.IsValid())
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1024, round(833))
	assert.Equal(t, 512, round(600))
	assert.Equal(t, 64, round(64))
}

func boards() [][]float32 {
	g := chess.NewGame()
	var out [][]float32
	for _, mv := range []string{"e4", "e5", "Nf3"} {
		out = append(out, game.EncodeBoard(g.Position()))
		if err := g.MoveStr(mv); err != nil {
			panic(err)
		}
	}
	return out
}

func TestInferClassHead(t *testing.T) {
	d := New(smallConf(ClassHead))
	require.NoError(t, d.Init())
	inf, err := NewInferer(d)
	require.NoError(t, err)
	defer inf.Close()

	// three rows over a batch size of two runs two passes
	out, err := inf.Infer(boards())
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, row := range out {
		require.Len(t, row, 4096)
		var sum float32
		for _, v := range row {
			assert.True(t, v >= 0 && v <= 1)
			sum += v
		}
		assert.InDelta(t, 1, sum, 1e-3)
	}

	again, err := inf.Infer(boards()[:1])
	require.NoError(t, err)
	assert.Equal(t, out[0], again[0])
}

func TestInferTwoHotHead(t *testing.T) {
	d := New(smallConf(TwoHotHead))
	require.NoError(t, d.Init())
	inf, err := NewInferer(d)
	require.NoError(t, err)
	defer inf.Close()

	out, err := inf.Infer(boards()[:2])
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, v := range out[1] {
		assert.False(t, math32.IsNaN(v))
		assert.True(t, v > 0 && v < 1)
	}
	assert.Len(t, out[1], 128)

	_, err = inf.Infer([][]float32{make([]float32, 5)})
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	d := New(smallConf(ClassHead))
	require.NoError(t, d.Init())

	var buf bytes.Buffer
	require.NoError(t, d.Save(&buf))
	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, d.Config, loaded.Config)
	require.Len(t, loaded.Weights, len(d.Weights))
	for i := range d.Weights {
		assert.Equal(t, d.Weights[i].Shape(), loaded.Weights[i].Shape())
		assert.Equal(t, d.Weights[i].Data(), loaded.Weights[i].Data())
	}

	a, err := NewInferer(d)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewInferer(loaded)
	require.NoError(t, err)
	defer b.Close()
	want, err := a.Infer(boards())
	require.NoError(t, err)
	got, err := b.Infer(boards())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNotInitialised(t *testing.T) {
	_, err := NewInferer(New(smallConf(ClassHead)))
	assert.Error(t, err)

	_, err = Load(bytes.NewReader([]byte("not gob")))
	assert.Error(t, err)
}
