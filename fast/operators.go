package fast

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Stream holds the per-template-per-stream operator state (previous values
// for Copy/Increment) described in spec §4.6. A caller decoding or encoding
// against the same Template repeatedly reuses one Stream so Copy/Increment
// state carries across messages; Reset clears it.
type Stream struct {
	prev   map[uint32]PrimitiveValue
	logger zerolog.Logger
}

// StreamOption configures a Stream at construction time.
type StreamOption func(*Stream)

// WithStreamLogger attaches a zerolog.Logger for Reset diagnostics. The
// zero value (disabled) is used if this is never called.
func WithStreamLogger(l zerolog.Logger) StreamOption {
	return func(s *Stream) { s.logger = l }
}

// NewStream returns a Stream with empty operator state.
func NewStream(opts ...StreamOption) *Stream {
	s := &Stream{prev: make(map[uint32]PrimitiveValue)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reset clears all previous-value state, per spec §4.6 ("reset on Reset
// instructions").
func (s *Stream) Reset() {
	s.logger.Debug().Int("entries", len(s.prev)).Msg("fast: stream reset")
	s.prev = make(map[uint32]PrimitiveValue)
}

// Resolve computes the decoded value for instr given whether the field was
// physically present on the wire (per the presence map) and, if so, the
// value read from the stream. It implements the Constant, Default, Copy,
// and Increment operators; OpNone requires the field to be transmitted.
func (s *Stream) Resolve(instr FieldInstruction, transmitted bool, wireValue PrimitiveValue) (PrimitiveValue, error) {
	switch instr.Operator {
	case OpConstant:
		return constantValue(instr)

	case OpDefault:
		if transmitted {
			s.prev[instr.ID] = wireValue
			return wireValue, nil
		}
		return constantValue(instr)

	case OpCopy:
		if transmitted {
			s.prev[instr.ID] = wireValue
			return wireValue, nil
		}
		prev, ok := s.prev[instr.ID]
		if !ok {
			return PrimitiveValue{}, &DynamicError{Kind: DynamicErrUnderflow, Detail: fmt.Sprintf("field %s: no prior value for copy operator", instr.Name)}
		}
		return prev, nil

	case OpIncrement:
		if transmitted {
			s.prev[instr.ID] = wireValue
			return wireValue, nil
		}
		prev, ok := s.prev[instr.ID]
		if !ok {
			return PrimitiveValue{}, &DynamicError{Kind: DynamicErrUnderflow, Detail: fmt.Sprintf("field %s: no prior value for increment operator", instr.Name)}
		}
		next, err := increment(prev)
		if err != nil {
			return PrimitiveValue{}, err
		}
		s.prev[instr.ID] = next
		return next, nil

	default: // OpNone
		if !transmitted {
			if instr.Mandatory {
				return PrimitiveValue{}, &DynamicError{Kind: DynamicErrPresenceMismatch, Detail: fmt.Sprintf("field %s is mandatory with no operator but absent from the wire", instr.Name)}
			}
			return PrimitiveValue{}, nil
		}
		return wireValue, nil
	}
}

// Apply computes whether value needs to be physically transmitted for
// instr, and updates the stream's operator state accordingly — the encode
// side mirror of Resolve.
func (s *Stream) Apply(instr FieldInstruction, value PrimitiveValue) (transmitted bool, err error) {
	switch instr.Operator {
	case OpConstant:
		want, err := constantValue(instr)
		if err != nil {
			return false, err
		}
		if !value.Equal(want) {
			return false, &DynamicError{Kind: DynamicErrOverflow, Detail: fmt.Sprintf("field %s: value contradicts constant operator", instr.Name)}
		}
		return false, nil

	case OpDefault:
		want, err := constantValue(instr)
		if err == nil && value.Equal(want) {
			return false, nil
		}
		s.prev[instr.ID] = value
		return true, nil

	case OpCopy:
		if prev, ok := s.prev[instr.ID]; ok && prev.Equal(value) {
			return false, nil
		}
		s.prev[instr.ID] = value
		return true, nil

	case OpIncrement:
		if prev, ok := s.prev[instr.ID]; ok {
			expected, err := increment(prev)
			if err == nil && expected.Equal(value) {
				s.prev[instr.ID] = value
				return false, nil
			}
		}
		s.prev[instr.ID] = value
		return true, nil

	default: // OpNone
		return true, nil
	}
}

// constantValue parses a FieldInstruction's declared ConstantValue text
// into a PrimitiveValue of the field's own primitive type, for the
// Constant and Default operators.
func constantValue(instr FieldInstruction) (PrimitiveValue, error) {
	if instr.ConstantValue == "" {
		return PrimitiveValue{}, &DynamicError{Kind: DynamicErrPresenceMismatch, Detail: fmt.Sprintf("field %s: operator requires a declared value", instr.Name)}
	}
	return parsePrimitive(instr.Primitive, instr.ConstantValue)
}

// parsePrimitive converts a textual representation (as it appears in a
// template's `value` attribute) into a PrimitiveValue of the given type.
func parsePrimitive(kind PrimitiveType, raw string) (PrimitiveValue, error) {
	switch kind {
	case Ascii:
		return AsciiValue(raw), nil
	case UInt32:
		var v uint32
		if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
			return PrimitiveValue{}, &DynamicError{Kind: DynamicErrOverflow, Detail: "not a uInt32: " + raw}
		}
		return UInt32Value(v), nil
	case SInt32:
		var v int32
		if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
			return PrimitiveValue{}, &DynamicError{Kind: DynamicErrOverflow, Detail: "not an int32: " + raw}
		}
		return SInt32Value(v), nil
	case UInt64:
		var v uint64
		if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
			return PrimitiveValue{}, &DynamicError{Kind: DynamicErrOverflow, Detail: "not a uInt64: " + raw}
		}
		return UInt64Value(v), nil
	case SInt64:
		var v int64
		if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
			return PrimitiveValue{}, &DynamicError{Kind: DynamicErrOverflow, Detail: "not an int64: " + raw}
		}
		return SInt64Value(v), nil
	case Decimal:
		var v float64
		if _, err := fmt.Sscanf(raw, "%g", &v); err != nil {
			return PrimitiveValue{}, &DynamicError{Kind: DynamicErrOverflow, Detail: "not a decimal: " + raw}
		}
		return DecimalValue(v), nil
	case Bytes:
		return BytesValue([]byte(raw)), nil
	default:
		return PrimitiveValue{}, &DynamicError{Kind: DynamicErrOverflow, Detail: "unknown primitive type"}
	}
}
