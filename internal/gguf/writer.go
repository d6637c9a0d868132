package gguf

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// KV is one metadata entry to encode.
type KV struct {
	Key   string
	Value any
}

// Encode writes a version-3 GGUF header with the given metadata and no tensors.
// It is used to produce metadata-only fixtures. Supported values: string,
// bool, uint8, uint32, int32, uint64, int64, float32, float64 and []string.
func Encode(w io.Writer, kvs ...KV) error {
	e := &encoder{w: w}
	e.u32(Magic)
	e.u32(maxVersion)
	e.u64(0)
	e.u64(uint64(len(kvs)))
	for _, kv := range kvs {
		e.str(kv.Key)
		switch v := kv.Value.(type) {
		case string:
			e.u32(uint32(TypeString))
			e.str(v)
		case bool:
			e.u32(uint32(TypeBool))
			if v {
				e.raw([]byte{1})
			} else {
				e.raw([]byte{0})
			}
		case uint8:
			e.u32(uint32(TypeUint8))
			e.raw([]byte{v})
		case uint32:
			e.u32(uint32(TypeUint32))
			e.u32(v)
		case int32:
			e.u32(uint32(TypeInt32))
			e.u32(uint32(v))
		case uint64:
			e.u32(uint32(TypeUint64))
			e.u64(v)
		case int64:
			e.u32(uint32(TypeInt64))
			e.u64(uint64(v))
		case float32:
			e.u32(uint32(TypeFloat32))
			e.u32(math.Float32bits(v))
		case float64:
			e.u32(uint32(TypeFloat64))
			e.u64(math.Float64bits(v))
		case []string:
			e.u32(uint32(TypeArray))
			e.u32(uint32(TypeString))
			e.u64(uint64(len(v)))
			for _, s := range v {
				e.str(s)
			}
		default:
			return fmt.Errorf("gguf: cannot encode %q of type %T", kv.Key, kv.Value)
		}
	}
	return e.err
}

// WriteFile encodes kvs into a new file at path.
func WriteFile(path string, kvs ...KV) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, kvs...); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) raw(b []byte) {
	if e.err == nil {
		_, e.err = e.w.Write(b)
	}
}

func (e *encoder) u32(v uint32) { e.raw(binary.LittleEndian.AppendUint32(nil, v)) }
func (e *encoder) u64(v uint64) { e.raw(binary.LittleEndian.AppendUint64(nil, v)) }

func (e *encoder) str(s string) {
	e.u64(uint64(len(s)))
	e.raw([]byte(s))
}
