// Package tensorio persists training pairs as npz archives: a deflated zip
// holding features.npy and labels.npy, readable with numpy.load.
package tensorio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorgonia.org/tensor"

	"github.com/movenet/codec"
	"github.com/movenet/extract"
	"github.com/movenet/game"
)

const (
	FeaturesName = "features.npy"
	LabelsName   = "labels.npy"
)

// ErrExists is returned when an output file is already present and overwriting was not requested.
var ErrExists = errors.New("output already exists")

// WriterConfig configures a Writer.
type WriterConfig struct {
	Path      string            `json:"path" yaml:"path"`
	LabelMode extract.LabelMode `json:"-" yaml:"-"` // set from the extraction config
	// ShardSize > 0 writes one archive per ShardSize pairs, named <base>-000.npz, <base>-001.npz, ...
	ShardSize int  `json:"shard_size" yaml:"shard_size"`
	Overwrite bool `json:"overwrite" yaml:"overwrite"`
}

// Writer buffers pairs and writes them out as npz archives.
type Writer struct {
	conf     WriterConfig
	log      zerolog.Logger
	features []float32
	classes  []int64
	twoHot   []float32
	n        int
	shard    int
	written  []string
}

// NewWriter returns a writer for conf.
func NewWriter(conf WriterConfig, log zerolog.Logger) (*Writer, error) {
	if conf.Path == "" {
		return nil, errors.New("output path is empty")
	}
	if conf.LabelMode == "" {
		conf.LabelMode = extract.LabelClass
	}
	if conf.ShardSize < 0 {
		return nil, errors.Errorf("shard size must not be negative, got %d", conf.ShardSize)
	}
	w := &Writer{conf: conf, log: log}
	if !conf.Overwrite {
		if _, err := os.Stat(w.shardPath(0)); err == nil {
			return nil, errors.Wrap(ErrExists, w.shardPath(0))
		}
	}
	return w, nil
}

// Append buffers one pair, flushing a shard when it is full.
func (w *Writer) Append(p extract.Pair) error {
	if len(p.Features) != game.InputLength {
		return &game.LengthError{What: "features", Got: len(p.Features), Want: game.InputLength}
	}
	w.features = append(w.features, p.Features...)
	if w.conf.LabelMode == extract.LabelTwoHot {
		label := p.TwoHot
		if label == nil {
			label = codec.EncodeTwoHot(p.Move)
		}
		w.twoHot = append(w.twoHot, label...)
	} else {
		w.classes = append(w.classes, int64(p.Class))
	}
	w.n++
	if w.conf.ShardSize > 0 && w.n == w.conf.ShardSize {
		return w.flush()
	}
	return nil
}

// Close writes whatever is still buffered. An empty final shard writes nothing.
func (w *Writer) Close() error {
	if w.n == 0 {
		if len(w.written) == 0 {
			w.log.Warn().Msg("no pairs to write")
		}
		return nil
	}
	return w.flush()
}

// Written lists the archives written so far.
func (w *Writer) Written() []string { return w.written }

func (w *Writer) flush() error {
	path := w.shardPath(w.shard)
	features := tensor.New(tensor.WithShape(w.n, game.InputLength), tensor.WithBacking(w.features))
	var labels *tensor.Dense
	if w.conf.LabelMode == extract.LabelTwoHot {
		labels = tensor.New(tensor.WithShape(w.n, codec.TwoHotWidth), tensor.WithBacking(w.twoHot))
	} else {
		labels = tensor.New(tensor.WithShape(w.n), tensor.WithBacking(w.classes))
	}
	if err := WriteArchive(path, map[string]*tensor.Dense{
		FeaturesName: features,
		LabelsName:   labels,
	}); err != nil {
		return err
	}
	w.log.Info().Str("path", path).Int("pairs", w.n).Msg("archive written")

	w.written = append(w.written, path)
	w.shard++
	w.features, w.classes, w.twoHot, w.n = nil, nil, nil, 0
	return nil
}

func (w *Writer) shardPath(i int) string {
	if w.conf.ShardSize == 0 {
		return w.conf.Path
	}
	base := strings.TrimSuffix(w.conf.Path, filepath.Ext(w.conf.Path))
	return fmt.Sprintf("%s-%03d.npz", base, i)
}

// WriteArchive writes the named arrays to path as a deflated zip of .npy files,
// in name order.
func WriteArchive(path string, arrays map[string]*tensor.Dense) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create archive")
	}
	zw := zip.NewWriter(f)
	defer func() {
		var errs error
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		if cerr := zw.Close(); cerr != nil {
			errs = multierror.Append(errs, errors.Wrap(cerr, "finish archive"))
		}
		if cerr := f.Close(); cerr != nil {
			errs = multierror.Append(errs, errors.Wrap(cerr, "close archive"))
		}
		err = errs
	}()

	for _, name := range sortedNames(arrays) {
		entry, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return errors.Wrapf(err, "add %s", name)
		}
		if err := arrays[name].WriteNpy(entry); err != nil {
			return errors.Wrapf(err, "write %s", name)
		}
	}
	return nil
}

// ReadArchive reads every .npy member of the archive at path.
func ReadArchive(path string) (map[string]*tensor.Dense, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, "open archive")
	}
	defer zr.Close()

	out := make(map[string]*tensor.Dense, len(zr.File))
	for _, zf := range zr.File {
		if filepath.Ext(zf.Name) != ".npy" {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", zf.Name)
		}
		t, err := readNpy(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", zf.Name)
		}
		out[zf.Name] = t
	}
	return out, nil
}

// Load reads a training archive and checks its shapes.
func Load(path string) (features, labels *tensor.Dense, err error) {
	arrays, err := ReadArchive(path)
	if err != nil {
		return nil, nil, err
	}
	features, labels = arrays[FeaturesName], arrays[LabelsName]
	if features == nil || labels == nil {
		return nil, nil, errors.Errorf("%s: missing %s or %s", path, FeaturesName, LabelsName)
	}
	s := features.Shape()
	if len(s) != 2 {
		return nil, nil, errors.Errorf("%s: features have shape %v", path, s)
	}
	if s[1] != game.InputLength {
		return nil, nil, &game.LengthError{What: "feature rows", Got: s[1], Want: game.InputLength}
	}
	if labels.Shape()[0] != features.Shape()[0] {
		return nil, nil, errors.Errorf("%s: %d feature rows but %d labels", path, features.Shape()[0], labels.Shape()[0])
	}
	return features, labels, nil
}

func sortedNames(arrays map[string]*tensor.Dense) []string {
	names := make([]string, 0, len(arrays))
	for name := range arrays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
