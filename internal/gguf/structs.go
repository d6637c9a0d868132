package gguf

import "fmt"

const (
	Magic = 0x46554747 // "GGUF" little-endian

	minVersion = 2
	maxVersion = 3

	// maxStringLen bounds a single metadata string; anything larger is a corrupt file.
	maxStringLen = 64 << 20
)

// ValueType is the on-disk type tag of a metadata value.
type ValueType uint32

const (
	TypeUint8   ValueType = 0
	TypeInt8    ValueType = 1
	TypeUint16  ValueType = 2
	TypeInt16   ValueType = 3
	TypeUint32  ValueType = 4
	TypeInt32   ValueType = 5
	TypeFloat32 ValueType = 6
	TypeBool    ValueType = 7
	TypeString  ValueType = 8
	TypeArray   ValueType = 9
	TypeUint64  ValueType = 10
	TypeInt64   ValueType = 11
	TypeFloat64 ValueType = 12
)

// fixedSize returns the encoded size of scalar types, 0 for strings and arrays.
func (t ValueType) fixedSize() int64 {
	switch t {
	case TypeUint8, TypeInt8, TypeBool:
		return 1
	case TypeUint16, TypeInt16:
		return 2
	case TypeUint32, TypeInt32, TypeFloat32:
		return 4
	case TypeUint64, TypeInt64, TypeFloat64:
		return 8
	}
	return 0
}

// Array summarizes an array value. Elements are skipped, not decoded:
// tokenizer vocabularies run to hundreds of thousands of entries.
type Array struct {
	Type ValueType
	Len  uint64
}

// ErrInvalidMagic reports a file that is not GGUF.
type ErrInvalidMagic struct{ Magic uint32 }

func (e ErrInvalidMagic) Error() string {
	return fmt.Sprintf("invalid GGUF magic: 0x%08x", e.Magic)
}

// ErrUnsupportedVersion reports a GGUF version this reader does not understand.
type ErrUnsupportedVersion struct{ Version uint32 }

func (e ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("unsupported GGUF version: %d", e.Version)
}
