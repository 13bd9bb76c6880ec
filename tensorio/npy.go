package tensorio

import (
	"bytes"
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

var npyMagic = []byte("\x93NUMPY")

// npyHeader is the parsed header dict of a .npy file.
type npyHeader struct {
	descr   string
	fortran bool
	shape   []int
}

// readNpy decodes one .npy member. tensor.Dense.ReadNpy maps '<i8' onto Go
// int, which binary.Read refuses, so int64 arrays are decoded here and every
// other dtype is left to gorgonia.
func readNpy(r io.Reader) (*tensor.Dense, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	h, payload, err := parseNpyHeader(raw)
	if err != nil {
		return nil, err
	}
	if h.descr != "<i8" {
		t := new(tensor.Dense)
		if err := t.ReadNpy(bytes.NewReader(raw)); err != nil {
			return nil, err
		}
		return t, nil
	}
	if h.fortran {
		return nil, errors.New("fortran order is not supported")
	}

	size := 1
	for _, d := range h.shape {
		size *= d
	}
	if len(payload) != size*8 {
		return nil, errors.Errorf("shape %v wants %d bytes of data, got %d", h.shape, size*8, len(payload))
	}
	data := make([]int64, size)
	if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, data); err != nil {
		return nil, errors.WithStack(err)
	}
	shape := h.shape
	if len(shape) == 0 {
		shape = []int{1}
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data)), nil
}

// parseNpyHeader splits a .npy file into its header and its payload.
func parseNpyHeader(raw []byte) (npyHeader, []byte, error) {
	var h npyHeader
	if len(raw) < 10 || !bytes.HasPrefix(raw, npyMagic) {
		return h, nil, errors.New("not a npy file")
	}
	var n, start int
	switch major := raw[6]; major {
	case 1:
		n, start = int(binary.LittleEndian.Uint16(raw[8:10])), 10
	case 2, 3:
		if len(raw) < 12 {
			return h, nil, errors.New("truncated npy header")
		}
		n, start = int(binary.LittleEndian.Uint32(raw[8:12])), 12
	default:
		return h, nil, errors.Errorf("npy version %d is not supported", major)
	}
	if len(raw) < start+n {
		return h, nil, errors.New("truncated npy header")
	}
	dict := string(raw[start : start+n])

	descr, err := npyField(dict, "descr")
	if err != nil {
		return h, nil, err
	}
	h.descr = strings.Trim(descr, `'"`)

	fortran, err := npyField(dict, "fortran_order")
	if err != nil {
		return h, nil, err
	}
	h.fortran = fortran == "True"

	shape, err := npyField(dict, "shape")
	if err != nil {
		return h, nil, err
	}
	for _, d := range strings.Split(strings.Trim(shape, "()"), ",") {
		if d = strings.TrimSpace(d); d == "" {
			continue
		}
		v, err := strconv.Atoi(d)
		if err != nil {
			return h, nil, errors.Wrapf(err, "shape %s", shape)
		}
		h.shape = append(h.shape, v)
	}
	return h, raw[start+n:], nil
}

// npyField returns the raw value of key in a header dict such as
// {'descr': '<i8', 'fortran_order': False, 'shape': (4,), }.
func npyField(dict, key string) (string, error) {
	i := strings.Index(dict, "'"+key+"'")
	if i < 0 {
		return "", errors.Errorf("npy header has no %s", key)
	}
	v := strings.TrimSpace(dict[i+len(key)+2:])
	v = strings.TrimSpace(strings.TrimPrefix(v, ":"))
	end := strings.IndexByte(v, ',')
	if strings.HasPrefix(v, "(") {
		end = strings.IndexByte(v, ')') + 1
	}
	if end <= 0 {
		end = strings.IndexByte(v, '}')
	}
	if end < 0 {
		return "", errors.Errorf("npy header field %s is not terminated", key)
	}
	return strings.TrimSpace(v[:end]), nil
}
