// Package gguf reads scalar metadata from GGUF model files without loading
// tensors. Only the header and the key/value section are decoded.
//
// Encode and WriteFile are the inverse for metadata only. Nothing in the
// server writes GGUF; they exist so the tests of this package and of the
// registry, session, manager and command packages can build model files
// without shipping binary fixtures.
package gguf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Metadata is the decoded header and key/value section of a GGUF file.
type Metadata struct {
	Version     uint32
	TensorCount uint64
	KV          map[string]any
}

// Open reads the metadata of the GGUF file at path.
func Open(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReaderSize(f, 64*1024))
}

// ReadContextSize returns the trained context length of the model at path.
// ok is false when the file carries no context length.
func ReadContextSize(path string) (n int, ok bool, err error) {
	md, err := Open(path)
	if err != nil {
		return 0, false, err
	}
	n, ok = md.ContextSize()
	return n, ok, nil
}

// Read decodes GGUF metadata from r.
func Read(r io.Reader) (*Metadata, error) {
	d := &decoder{r: r}
	magic := d.u32()
	if d.err != nil {
		return nil, truncated(d.err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic{Magic: magic}
	}
	md := &Metadata{KV: make(map[string]any)}
	md.Version = d.u32()
	if d.err != nil {
		return nil, truncated(d.err)
	}
	if md.Version < minVersion || md.Version > maxVersion {
		return nil, ErrUnsupportedVersion{Version: md.Version}
	}
	md.TensorCount = d.u64()
	kvCount := d.u64()
	if d.err != nil {
		return nil, truncated(d.err)
	}
	for i := uint64(0); i < kvCount; i++ {
		key := d.str()
		typ := ValueType(d.u32())
		val := d.value(typ)
		if d.err != nil {
			return nil, fmt.Errorf("gguf: key %d (%q): %w", i, key, truncated(d.err))
		}
		md.KV[key] = val
	}
	return md, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// decoder reads little-endian GGUF primitives, latching the first error.
type decoder struct {
	r   io.Reader
	buf [8]byte
	err error
}

func (d *decoder) read(n int) []byte {
	if d.err != nil {
		return d.buf[:n]
	}
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		d.err = err
	}
	return d.buf[:n]
}

func (d *decoder) u8() uint8   { return d.read(1)[0] }
func (d *decoder) u16() uint16 { return binary.LittleEndian.Uint16(d.read(2)) }
func (d *decoder) u32() uint32 { return binary.LittleEndian.Uint32(d.read(4)) }
func (d *decoder) u64() uint64 { return binary.LittleEndian.Uint64(d.read(8)) }

func (d *decoder) str() string {
	n := d.u64()
	if d.err != nil {
		return ""
	}
	if n > maxStringLen {
		d.err = fmt.Errorf("gguf: string length %d exceeds limit", n)
		return ""
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.err = err
		return ""
	}
	return string(b)
}

func (d *decoder) skip(n int64) {
	if d.err != nil || n == 0 {
		return
	}
	if _, err := io.CopyN(io.Discard, d.r, n); err != nil {
		d.err = err
	}
}

func (d *decoder) value(t ValueType) any {
	switch t {
	case TypeUint8:
		return d.u8()
	case TypeInt8:
		return int8(d.u8())
	case TypeUint16:
		return d.u16()
	case TypeInt16:
		return int16(d.u16())
	case TypeUint32:
		return d.u32()
	case TypeInt32:
		return int32(d.u32())
	case TypeFloat32:
		return math.Float32frombits(d.u32())
	case TypeBool:
		return d.u8() != 0
	case TypeString:
		return d.str()
	case TypeUint64:
		return d.u64()
	case TypeInt64:
		return int64(d.u64())
	case TypeFloat64:
		return math.Float64frombits(d.u64())
	case TypeArray:
		elem := ValueType(d.u32())
		n := d.u64()
		d.skipArray(elem, n)
		return Array{Type: elem, Len: n}
	default:
		if d.err == nil {
			d.err = fmt.Errorf("gguf: unsupported metadata type %d", t)
		}
		return nil
	}
}

func (d *decoder) skipArray(elem ValueType, n uint64) {
	if size := elem.fixedSize(); size > 0 {
		if n > math.MaxInt64/uint64(size) {
			d.err = fmt.Errorf("gguf: array length %d overflows", n)
			return
		}
		d.skip(int64(n) * size)
		return
	}
	for i := uint64(0); i < n && d.err == nil; i++ {
		switch elem {
		case TypeString:
			l := d.u64()
			if l > maxStringLen {
				d.err = fmt.Errorf("gguf: string length %d exceeds limit", l)
				return
			}
			d.skip(int64(l))
		case TypeArray:
			inner := ValueType(d.u32())
			d.skipArray(inner, d.u64())
		default:
			d.err = fmt.Errorf("gguf: unsupported array element type %d", elem)
		}
	}
}
