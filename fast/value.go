package fast

import "bytes"

// PrimitiveValue is a tagged sum over the FAST primitive type set (mirrors
// message.AtomicValue's shape, one level down at the wire-primitive layer
// rather than the FIX-field layer).
type PrimitiveValue struct {
	kind PrimitiveType

	s   string
	u64 uint64
	i64 int64
	f64 float64
	b   []byte
}

func AsciiValue(s string) PrimitiveValue    { return PrimitiveValue{kind: Ascii, s: s} }
func UInt32Value(v uint32) PrimitiveValue   { return PrimitiveValue{kind: UInt32, u64: uint64(v)} }
func SInt32Value(v int32) PrimitiveValue    { return PrimitiveValue{kind: SInt32, i64: int64(v)} }
func UInt64Value(v uint64) PrimitiveValue   { return PrimitiveValue{kind: UInt64, u64: v} }
func SInt64Value(v int64) PrimitiveValue    { return PrimitiveValue{kind: SInt64, i64: v} }
func DecimalValue(v float64) PrimitiveValue { return PrimitiveValue{kind: Decimal, f64: v} }
func BytesValue(v []byte) PrimitiveValue    { return PrimitiveValue{kind: Bytes, b: v} }

func (v PrimitiveValue) Kind() PrimitiveType { return v.kind }
func (v PrimitiveValue) Ascii() string       { return v.s }
func (v PrimitiveValue) UInt32() uint32      { return uint32(v.u64) }
func (v PrimitiveValue) SInt32() int32       { return int32(v.i64) }
func (v PrimitiveValue) UInt64() uint64      { return v.u64 }
func (v PrimitiveValue) SInt64() int64       { return v.i64 }
func (v PrimitiveValue) Decimal() float64    { return v.f64 }
func (v PrimitiveValue) Bytes() []byte       { return v.b }

// Equal reports whether two values are identical, including kind — used by
// the operator state machine to decide whether an encoded value matches
// the previous/default/constant value (and so can be omitted from the
// wire).
func (v PrimitiveValue) Equal(other PrimitiveValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case Ascii:
		return v.s == other.s
	case UInt32, UInt64:
		return v.u64 == other.u64
	case SInt32, SInt64:
		return v.i64 == other.i64
	case Decimal:
		return v.f64 == other.f64
	case Bytes:
		return bytes.Equal(v.b, other.b)
	default:
		return false
	}
}

// increment returns v + 1, for the Increment operator. Only meaningful for
// the integer primitive kinds.
func increment(v PrimitiveValue) (PrimitiveValue, error) {
	switch v.kind {
	case UInt32, UInt64:
		return PrimitiveValue{kind: v.kind, u64: v.u64 + 1}, nil
	case SInt32, SInt64:
		return PrimitiveValue{kind: v.kind, i64: v.i64 + 1}, nil
	default:
		return PrimitiveValue{}, &DynamicError{Kind: DynamicErrOverflow, Detail: "increment operator requires an integer primitive"}
	}
}
