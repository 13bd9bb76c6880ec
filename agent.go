package movenet

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/movenet/codec"
	dual "github.com/movenet/dualnet"
	"github.com/movenet/game"
)

// An Agent is a player backed by a move network.
type Agent struct {
	NN  *dual.Dual
	Enc GameEncoder

	// Statistics
	Wins float32
	Loss float32
	Draw float32
	sync.Mutex

	name  string
	decMu sync.Mutex
	dec   *codec.Decoder

	// poolMu is held for reading while an inferer is borrowed and for
	// writing while the pool is replaced or closed.
	poolMu   sync.RWMutex
	inferer  chan Inferer
	inferers []Inferer
	log      zerolog.Logger
}

// NewAgent returns an agent decoding with conf. It has no inferers until
// SwitchToInference or UseInferers is called.
func NewAgent(name string, nn *dual.Dual, conf codec.Config, log zerolog.Logger) (*Agent, error) {
	dec, err := codec.NewDecoder(conf)
	if err != nil {
		return nil, err
	}
	if nn != nil && nn.Output != conf.Policy.Width() {
		return nil, errors.Errorf("decode policy %q reads %d scores, network %s produces %d",
			conf.Policy, conf.Policy.Width(), name, nn.Output)
	}
	return &Agent{
		NN:   nn,
		Enc:  game.InputEncoder,
		name: name,
		dec:  dec,
		log:  log,
	}, nil
}

// SwitchToInference compiles n inferers of the agent's network.
func (a *Agent) SwitchToInference(n int) (err error) {
	if a.NN == nil {
		return errors.New("agent has no network")
	}
	if n < 1 {
		n = 1
	}
	infs := make([]Inferer, 0, n)
	for i := 0; i < n; i++ {
		var inf *dual.Inferer
		if inf, err = dual.NewInferer(a.NN); err != nil {
			for _, built := range infs {
				built.Close()
			}
			return err
		}
		infs = append(infs, inf)
	}
	a.UseInferers(infs...)
	return nil
}

// UseInferers hands the pool to the agent. The agent closes them on Close.
func (a *Agent) UseInferers(infs ...Inferer) {
	a.poolMu.Lock()
	a.inferer = make(chan Inferer, len(infs))
	for _, inf := range infs {
		a.inferers = append(a.inferers, inf)
		a.inferer <- inf
	}
	a.poolMu.Unlock()
}

// Infer scores the position of g with one pooled inferer.
func (a *Agent) Infer(g game.State) ([]float32, error) {
	a.poolMu.RLock()
	defer a.poolMu.RUnlock()
	if a.inferer == nil {
		return nil, errors.New("agent is not switched to inference or is closed")
	}
	input := a.Enc(g)
	inf, ok := <-a.inferer
	if !ok {
		return nil, errors.New("agent is closed")
	}
	out, err := inf.Infer([][]float32{input})
	a.inferer <- inf
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, errors.Errorf("inferer returned %d rows for one board", len(out))
	}
	return out[0], nil
}

func (a *Agent) Name() string { return a.name }

// Move picks a move for the side to move in g. Positions without a legal
// move and decoded moves the rules reject give game.ResignMove.
func (a *Agent) Move(g game.State) (game.Move, error) {
	scores, err := a.Infer(g)
	if err != nil {
		return game.ResignMove, err
	}

	a.decMu.Lock()
	m, err := a.dec.Decode(scores, g)
	a.decMu.Unlock()

	switch {
	case errors.Is(err, codec.ErrNoLegalMove):
		return game.ResignMove, nil
	case errors.Is(err, codec.ErrDegenerateDistribution):
		a.log.Warn().Str("agent", a.name).Msg("degenerate scores, falling back to the best legal move")
		if m, err = codec.DecodeLegalArgmax(scores, g); err != nil {
			if errors.Is(err, codec.ErrNoLegalMove) {
				return game.ResignMove, nil
			}
			return game.ResignMove, err
		}
	case err != nil:
		return game.ResignMove, err
	}

	if _, ok := g.Resolve(m); !ok {
		a.log.Debug().Str("agent", a.name).Stringer("move", m).Msg("decoded move is illegal")
		return game.ResignMove, nil
	}
	return m, nil
}

func (a *Agent) Close() error {
	a.poolMu.Lock()
	defer a.poolMu.Unlock()
	if a.inferer != nil {
		close(a.inferer)
		a.inferer = nil
	}
	var errs error
	for _, inferer := range a.inferers {
		if err := inferer.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	a.inferers = nil
	return errs
}

func (a *Agent) record(winner, self chess.Color) {
	a.Lock()
	switch winner {
	case chess.NoColor:
		a.Draw++
	case self:
		a.Wins++
	default:
		a.Loss++
	}
	a.Unlock()
}

// RandomPlayer plays a uniformly drawn legal move.
type RandomPlayer struct {
	name string
	mu   sync.Mutex
	rnd  *rand.Rand
}

// NewRandomPlayer returns a random mover. seed 0 is a valid, fixed seed.
func NewRandomPlayer(name string, seed uint64) *RandomPlayer {
	return &RandomPlayer{name: name, rnd: rand.New(rand.NewSource(seed))}
}

func (p *RandomPlayer) Name() string { return p.name }

func (p *RandomPlayer) Move(g game.State) (game.Move, error) {
	moves := g.ValidMoves()
	if len(moves) == 0 {
		return game.ResignMove, nil
	}
	p.mu.Lock()
	i := p.rnd.Intn(len(moves))
	p.mu.Unlock()
	return game.FromChess(moves[i]), nil
}
