// Package dual holds a feed-forward move network: the board encoding goes in,
// one score per move label comes out. Only the forward pass lives here;
// training happens elsewhere and hands over a weight file.
package dual

import (
	"encoding/gob"
	"io"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Dual is the network definition with its weights. Weights alternate
// between layer matrices (in x out) and bias vectors (out).
type Dual struct {
	Config
	Weights []*tensor.Dense
}

// New returns an uninitialised network. Call Init or Load before inferring.
func New(conf Config) *Dual {
	return &Dual{Config: conf}
}

// layers returns the (in, out) widths of each dense layer.
func (d *Dual) layers() [][2]int {
	var out [][2]int
	in := d.Input
	for _, h := range d.Hidden {
		out = append(out, [2]int{in, h})
		in = h
	}
	return append(out, [2]int{in, d.Output})
}

// Init fills the weights with Glorot uniform values and zero biases.
func (d *Dual) Init() error {
	if !d.IsValid() {
		return errors.Errorf("invalid network config %+v", d.Config)
	}
	d.Weights = d.Weights[:0]
	for _, l := range d.layers() {
		w := gorgonia.GlorotU(1)(tensor.Float32, l[0], l[1])
		d.Weights = append(d.Weights,
			tensor.New(tensor.WithShape(l[0], l[1]), tensor.WithBacking(w)),
			tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(l[1])),
		)
	}
	return nil
}

type weightFile struct {
	Config Config
	Shapes [][]int
	Data   [][]float32
}

// Save writes the config and the weights as gob.
func (d *Dual) Save(w io.Writer) error {
	f := weightFile{Config: d.Config}
	for _, t := range d.Weights {
		data, ok := t.Data().([]float32)
		if !ok {
			return errors.Errorf("weight of dtype %v, want float32", t.Dtype())
		}
		f.Shapes = append(f.Shapes, []int(t.Shape().Clone()))
		f.Data = append(f.Data, data)
	}
	return errors.Wrap(gob.NewEncoder(w).Encode(f), "encode weights")
}

// Load reads a network written by Save.
func Load(r io.Reader) (*Dual, error) {
	var f weightFile
	if err := gob.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode weights")
	}
	d := New(f.Config)
	if !d.IsValid() {
		return nil, errors.Errorf("invalid network config %+v", d.Config)
	}
	layers := d.layers()
	if len(f.Shapes) != 2*len(layers) || len(f.Data) != len(f.Shapes) {
		return nil, errors.Errorf("weight file has %d tensors, want %d", len(f.Shapes), 2*len(layers))
	}
	for i, l := range layers {
		ws, bs := f.Shapes[2*i], f.Shapes[2*i+1]
		if len(ws) != 2 || ws[0] != l[0] || ws[1] != l[1] || len(bs) != 1 || bs[0] != l[1] {
			return nil, errors.Errorf("layer %d has shapes %v, %v, want (%d, %d)", i, ws, bs, l[0], l[1])
		}
	}
	for i, shape := range f.Shapes {
		if size := tensor.Shape(shape).TotalSize(); len(f.Data[i]) != size {
			return nil, errors.Errorf("tensor %d has %d values, want %d", i, len(f.Data[i]), size)
		}
		d.Weights = append(d.Weights, tensor.New(tensor.WithShape(shape...), tensor.WithBacking(f.Data[i])))
	}
	return d, nil
}
