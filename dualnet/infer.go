package dual

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Inferer runs the forward pass of a network. An Inferer is not safe for
// concurrent use; pool several for parallel play.
type Inferer struct {
	d      *Dual
	g      *gorgonia.ExprGraph
	input  *gorgonia.Node
	output *gorgonia.Node
	vm     gorgonia.VM
	buf    []float32
}

// NewInferer compiles the inference graph of d.
func NewInferer(d *Dual) (*Inferer, error) {
	if !d.IsValid() {
		return nil, errors.Errorf("invalid network config %+v", d.Config)
	}
	layers := d.layers()
	if len(d.Weights) != 2*len(layers) {
		return nil, errors.Errorf("network has %d weight tensors, want %d; call Init or Load", len(d.Weights), 2*len(layers))
	}

	g := gorgonia.NewGraph()
	input := gorgonia.NewMatrix(g, tensor.Float32, gorgonia.WithShape(d.BatchSize, d.Input), gorgonia.WithName("input"))

	x := input
	for i, l := range layers {
		w := gorgonia.NewMatrix(g, tensor.Float32, gorgonia.WithShape(l[0], l[1]),
			gorgonia.WithName(fmt.Sprintf("w%d", i)), gorgonia.WithValue(d.Weights[2*i]))
		b := gorgonia.NewVector(g, tensor.Float32, gorgonia.WithShape(l[1]),
			gorgonia.WithName(fmt.Sprintf("b%d", i)), gorgonia.WithValue(d.Weights[2*i+1]))

		var err error
		if x, err = gorgonia.Mul(x, w); err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		if x, err = gorgonia.BroadcastAdd(x, b, nil, []byte{0}); err != nil {
			return nil, errors.Wrapf(err, "layer %d bias", i)
		}
		if i == len(layers)-1 {
			break
		}
		if x, err = gorgonia.Rectify(x); err != nil {
			return nil, errors.Wrapf(err, "layer %d activation", i)
		}
	}

	var (
		output *gorgonia.Node
		err    error
	)
	switch d.Head {
	case ClassHead:
		output, err = gorgonia.SoftMax(x)
	case TwoHotHead:
		output, err = gorgonia.Sigmoid(x)
	}
	if err != nil {
		return nil, errors.Wrap(err, "output head")
	}

	return &Inferer{
		d:      d,
		g:      g,
		input:  input,
		output: output,
		vm:     gorgonia.NewTapeMachine(g),
		buf:    make([]float32, d.BatchSize*d.Input),
	}, nil
}

// Infer returns one score row per input row. Batches larger than the
// configured batch size are run in several passes; short ones are zero padded.
func (inf *Inferer) Infer(batch [][]float32) ([][]float32, error) {
	out := make([][]float32, 0, len(batch))
	for start := 0; start < len(batch); start += inf.d.BatchSize {
		end := start + inf.d.BatchSize
		if end > len(batch) {
			end = len(batch)
		}
		rows, err := inf.run(batch[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (inf *Inferer) run(rows [][]float32) ([][]float32, error) {
	for i := range inf.buf {
		inf.buf[i] = 0
	}
	for i, row := range rows {
		if len(row) != inf.d.Input {
			return nil, errors.Errorf("input row %d has %d features, want %d", i, len(row), inf.d.Input)
		}
		copy(inf.buf[i*inf.d.Input:], row)
	}
	in := tensor.New(tensor.WithShape(inf.d.BatchSize, inf.d.Input), tensor.WithBacking(inf.buf))
	if err := gorgonia.Let(inf.input, in); err != nil {
		return nil, errors.Wrap(err, "set input")
	}
	defer inf.vm.Reset()
	if err := inf.vm.RunAll(); err != nil {
		return nil, errors.Wrap(err, "forward pass")
	}

	data, ok := inf.output.Value().Data().([]float32)
	if !ok {
		return nil, errors.Errorf("output of dtype %v, want float32", inf.output.Dtype())
	}
	out := make([][]float32, len(rows))
	for i := range rows {
		row := make([]float32, inf.d.Output)
		copy(row, data[i*inf.d.Output:])
		out[i] = row
	}
	return out, nil
}

// Close releases the machine.
func (inf *Inferer) Close() error {
	return inf.vm.Close()
}
