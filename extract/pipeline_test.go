package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movenet/codec"
	"github.com/movenet/game"
)

func pgnGame(white, black, tc, result, moves string) string {
	var sb strings.Builder
	sb.WriteString("[Event \"Rated game\"]\n")
	sb.WriteString("[White \"w\"]\n[Black \"b\"]\n")
	sb.WriteString("[Result \"" + result + "\"]\n")
	if white != "" {
		sb.WriteString("[WhiteElo \"" + white + "\"]\n")
	}
	if black != "" {
		sb.WriteString("[BlackElo \"" + black + "\"]\n")
	}
	if tc != "" {
		sb.WriteString("[TimeControl \"" + tc + "\"]\n")
	}
	sb.WriteString("\n")
	sb.WriteString(moves + " " + result + "\n\n")
	return sb.String()
}

func testConfig() Config {
	conf := DefaultConfig()
	conf.PairLimit = 0
	conf.Seed = 1
	return conf
}

func collect(t *testing.T, archive string, conf Config) ([]Pair, *Pipeline) {
	t.Helper()
	p, err := New(strings.NewReader(archive), conf)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Close()) }()
	var pairs []Pair
	for p.Next() {
		pairs = append(pairs, p.Pair())
	}
	return pairs, p
}

var (
	ruyLopez   = pgnGame("1800", "1900", "900+5", "1/2-1/2", "1. e4 e5 2. Nf3 Nc6 3. Bb5 a6")
	weakGame   = pgnGame("1200", "1900", "900+5", "0-1", "1. d4 d5 2. c4 e6")
	knightsA   = pgnGame("2000", "2000", "1800+0", "1/2-1/2", "1. Nf3 Nf6 2. Nc3 Nc6 3. e4")
	knightsB   = pgnGame("2100", "2050", "1800+0", "1/2-1/2", "1. Nc3 Nc6 2. Nf3 Nf6 3. d4")
	illegal    = pgnGame("1800", "1900", "900+5", "1-0", "1. e4 e4")
	longOpener = pgnGame("1800", "1800", "900+0", "1-0",
		"1. e4 c5 2. Nf3 d6 3. d4 cxd4 4. Nxd4 Nf6 5. Nc3 a6 6. Be3 e5 7. Nb3 Be6 8. f3 Be7")
)

func TestExtractOnlyQualifyingGames(t *testing.T) {
	pairs, p := collect(t, ruyLopez+weakGame, testConfig())
	require.NoError(t, p.Err())
	require.Len(t, pairs, 6)

	want := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6"}
	for i, pair := range pairs {
		assert.Equal(t, want[i], pair.Move.String())
		assert.Equal(t, codec.EncodeClass(pair.Move), pair.Class)
		assert.Len(t, pair.Features, game.InputLength)
		assert.Nil(t, pair.TwoHot)
	}
	// side to move alternates with the mainline
	assert.Equal(t, float32(1), pairs[0].Features[0])
	assert.Equal(t, float32(0), pairs[1].Features[0])

	stats := p.Stats()
	assert.Equal(t, 2, stats.Games)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Rejected[RejectRating])
	assert.Equal(t, 6, stats.Pairs)
}

func TestExtractDeduplicatesTranspositions(t *testing.T) {
	for _, mode := range []DedupeMode{DedupeExact, DedupeHashed, DedupeDisk} {
		t.Run(string(mode), func(t *testing.T) {
			conf := testConfig()
			conf.SamplesPerGame = 10
			conf.Dedupe = mode
			if mode == DedupeDisk {
				conf.DedupeDir = t.TempDir()
			}
			pairs, p := collect(t, knightsA+knightsB, conf)
			require.NoError(t, p.Err())
			assert.Len(t, pairs, 8)
			assert.Equal(t, 2, p.Stats().Duplicates)

			keys := make(map[string]bool)
			for _, pair := range pairs {
				assert.False(t, keys[pair.Key], pair.Key)
				keys[pair.Key] = true
			}
		})
	}

	conf := testConfig()
	conf.Dedupe = DedupeNone
	pairs, _ := collect(t, knightsA+knightsB, conf)
	assert.Len(t, pairs, 10)
}

func TestExtractDeduplicatesAfterPawnPush(t *testing.T) {
	// the same board, reached once by a double pawn push and once by a knight move
	pushLast := pgnGame("2000", "2000", "1800+0", "1/2-1/2", "1. Nf3 Nf6 2. e4 Nc6")
	knightLast := pgnGame("2000", "2000", "1800+0", "1/2-1/2", "1. e4 Nf6 2. Nf3 Nc6")
	for _, mode := range []DedupeMode{DedupeExact, DedupeHashed} {
		t.Run(string(mode), func(t *testing.T) {
			conf := testConfig()
			conf.SamplesPerGame = 10
			conf.Dedupe = mode
			pairs, p := collect(t, pushLast+knightLast, conf)
			require.NoError(t, p.Err())
			assert.Len(t, pairs, 6)
			assert.Equal(t, 2, p.Stats().Duplicates)

			for i := range pairs {
				for j := i + 1; j < len(pairs); j++ {
					assert.NotEqual(t, pairs[i].Features, pairs[j].Features, "pairs %d and %d", i, j)
				}
			}
		})
	}
}

func TestExtractLastGameWithoutBlankLine(t *testing.T) {
	archive := strings.TrimRight(ruyLopez+knightsA, "\n") + "\n"
	pairs, p := collect(t, archive, testConfig())
	require.NoError(t, p.Err())
	assert.Len(t, pairs, 10)
	assert.Equal(t, 2, p.Stats().Games)

	pairs, p = collect(t, strings.TrimRight(ruyLopez, "\n"), testConfig())
	require.NoError(t, p.Err())
	assert.Len(t, pairs, 6)
}

func TestExtractLimit(t *testing.T) {
	conf := testConfig()
	conf.PairLimit = 3
	pairs, p := collect(t, ruyLopez+knightsA, conf)
	require.NoError(t, p.Err())
	assert.Len(t, pairs, 3)
	assert.False(t, p.Next())

	// the archive runs out before the limit
	conf.PairLimit = 1000
	pairs, p = collect(t, ruyLopez, conf)
	require.NoError(t, p.Err())
	assert.Len(t, pairs, 6)
}

func TestExtractDeterministic(t *testing.T) {
	archive := ruyLopez + weakGame + knightsA + knightsB + longOpener
	conf := testConfig()
	conf.PairLimit = 20
	first, _ := collect(t, archive, conf)
	second, _ := collect(t, archive, conf)
	require.Len(t, first, 20)
	assert.Equal(t, first, second)
}

func TestExtractSamplesPerGame(t *testing.T) {
	conf := testConfig()
	conf.SamplesPerGame = 4
	conf.Dedupe = DedupeNone
	pairs, p := collect(t, longOpener, conf)
	require.NoError(t, p.Err())
	require.Len(t, pairs, 4)

	mainline := strings.Fields("e2e4 c7c5 g1f3 d7d6 d2d4 c5d4 f3d4 g8f6 b1c3 a7a6 c1e3 e7e5 d4b3 c8e6 f2f3 f8e7")
	keys := make(map[string]bool)
	for _, pair := range pairs {
		assert.Contains(t, mainline, pair.Move.String())
		keys[pair.Key] = true
	}
	assert.Len(t, keys, 4)
}

func TestExtractTwoHotLabels(t *testing.T) {
	conf := testConfig()
	conf.LabelMode = LabelTwoHot
	pairs, _ := collect(t, ruyLopez, conf)
	require.NotEmpty(t, pairs)
	for _, pair := range pairs {
		require.Len(t, pair.TwoHot, codec.TwoHotWidth)
		assert.Equal(t, float32(1), pair.TwoHot[pair.Move.From])
		assert.Equal(t, float32(1), pair.TwoHot[64+int(pair.Move.To)])
	}
}

func TestExtractMalformedAborts(t *testing.T) {
	pairs, p := collect(t, ruyLopez+illegal+knightsA, testConfig())
	assert.Len(t, pairs, 6)

	var merr *MalformedGameError
	require.True(t, errors.As(p.Err(), &merr))
	assert.Equal(t, 2, merr.Game)
	assert.Equal(t, 1, p.Stats().Malformed)
}

func TestExtractSkipMalformed(t *testing.T) {
	conf := testConfig()
	conf.SkipMalformed = true
	pairs, p := collect(t, ruyLopez+illegal+knightsA, conf)
	require.NoError(t, p.Err())
	// knightsA shares its start position with ruyLopez
	assert.Len(t, pairs, 6+4)
	assert.Equal(t, 1, p.Stats().Malformed)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.pgn")
	require.NoError(t, os.WriteFile(path, []byte(ruyLopez), 0644))

	p, err := Open(path, testConfig())
	require.NoError(t, err)
	var n int
	for p.Next() {
		n++
	}
	require.NoError(t, p.Err())
	assert.Equal(t, 6, n)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing.pgn"), testConfig())
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.SamplesPerGame = -1 },
		func(c *Config) { c.PairLimit = -5 },
		func(c *Config) { c.LabelMode = "one_hot" },
		func(c *Config) { c.Dedupe = "bloom" },
		func(c *Config) { c.Dedupe = DedupeDisk },
	} {
		conf := testConfig()
		mutate(&conf)
		assert.False(t, conf.IsValid())
		_, err := New(strings.NewReader(ruyLopez), conf)
		assert.Error(t, err)
	}
}
