// Package message implements the schema-agnostic Message model: an ordered
// mapping from FIX tag to FieldValue shared by every codec in this module.
// It performs no schema validation — that is a codec concern, performed on
// decode (see internal/validate).
package message

import "fmt"

// AtomicValue is a tagged sum over the closed FIX type set (spec §3). Every
// variant carries the value already converted from its wire-string form;
// String is used for every type this module doesn't give a dedicated Go
// representation to (Country, Currency, Exchange, MonthYear, ...).
type AtomicValue struct {
	kind atomicKind

	str  string
	i    int64
	f    float64
	b    bool
}

type atomicKind int

const (
	atomString atomicKind = iota
	atomInt
	atomFloat
	atomBool
)

// String builds a String-kind AtomicValue, used for every FieldType this
// module does not give a dedicated numeric/boolean representation.
func String(s string) AtomicValue { return AtomicValue{kind: atomString, str: s} }

// Int builds an Int-kind AtomicValue (also used for Length, NumInGroup,
// SeqNum, TagNum).
func Int(v int64) AtomicValue { return AtomicValue{kind: atomInt, i: v} }

// Float builds a Float-kind AtomicValue (also used for Qty, Price,
// PriceOffset, Amt, Percentage).
func Float(v float64) AtomicValue { return AtomicValue{kind: atomFloat, f: v} }

// Bool builds a Boolean-kind AtomicValue.
func Bool(v bool) AtomicValue { return AtomicValue{kind: atomBool, b: v} }

// IsString reports whether this value was built with String.
func (a AtomicValue) IsString() bool { return a.kind == atomString }

// IsInt reports whether this value was built with Int.
func (a AtomicValue) IsInt() bool { return a.kind == atomInt }

// IsFloat reports whether this value was built with Float.
func (a AtomicValue) IsFloat() bool { return a.kind == atomFloat }

// IsBool reports whether this value was built with Bool.
func (a AtomicValue) IsBool() bool { return a.kind == atomBool }

// StringValue returns the underlying string, valid when IsString is true.
func (a AtomicValue) StringValue() string { return a.str }

// IntValue returns the underlying int64, valid when IsInt is true.
func (a AtomicValue) IntValue() int64 { return a.i }

// FloatValue returns the underlying float64, valid when IsFloat is true.
func (a AtomicValue) FloatValue() float64 { return a.f }

// BoolValue returns the underlying bool, valid when IsBool is true.
func (a AtomicValue) BoolValue() bool { return a.b }

// Raw renders the value back to its FIX wire-string form. Codecs that need
// the original token (tag-value encode, JSON encode) go through this rather
// than re-deriving formatting rules per type.
func (a AtomicValue) Raw() string {
	switch a.kind {
	case atomInt:
		return fmt.Sprintf("%d", a.i)
	case atomFloat:
		return formatFloat(a.f)
	case atomBool:
		if a.b {
			return "Y"
		}
		return "N"
	default:
		return a.str
	}
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

// valueKind distinguishes the two FieldValue variants.
type valueKind int

const (
	kindAtom valueKind = iota
	kindGroup
)

// FieldValue is the tagged sum from spec §3: either a scalar AtomicValue or
// a nested repeating group (an ordered sequence of sub-Messages). It is not
// an inheritance hierarchy — callers switch on Kind and use AsAtom/AsGroup.
type FieldValue struct {
	kind  valueKind
	atom  AtomicValue
	group []*Message
}

// Atom wraps a scalar value.
func Atom(v AtomicValue) FieldValue { return FieldValue{kind: kindAtom, atom: v} }

// Group wraps a repeating group's sub-messages, in wire order.
func Group(entries []*Message) FieldValue { return FieldValue{kind: kindGroup, group: entries} }

// IsAtom reports whether this value is a scalar.
func (v FieldValue) IsAtom() bool { return v.kind == kindAtom }

// IsGroup reports whether this value is a repeating group.
func (v FieldValue) IsGroup() bool { return v.kind == kindGroup }

// AsAtom returns the underlying AtomicValue; valid only when IsAtom is true.
func (v FieldValue) AsAtom() AtomicValue { return v.atom }

// AsGroup returns the underlying sub-message sequence; valid only when
// IsGroup is true.
func (v FieldValue) AsGroup() []*Message { return v.group }

// entry is one (tag, value) pair, kept in insertion order so Iter replays a
// message's fields the way they were set (and, for a decoded message, the
// way they appeared on the wire).
type entry struct {
	tag   uint32
	value FieldValue
}

// Message is the schema-agnostic structured representation of a decoded (or
// about-to-be-encoded) FIX message: an ordered mapping from tag to
// FieldValue. It performs no schema validation.
type Message struct {
	entries map[uint32]int
	values  []entry
}

// New returns an empty Message ready for Set.
func New() *Message {
	return &Message{entries: make(map[uint32]int)}
}

// Set replaces the value for tag if present, otherwise appends it at the
// end of iteration order.
func (m *Message) Set(tag uint32, value FieldValue) {
	if idx, ok := m.entries[tag]; ok {
		m.values[idx] = entry{tag: tag, value: value}
		return
	}
	m.entries[tag] = len(m.values)
	m.values = append(m.values, entry{tag: tag, value: value})
}

// Get returns the value set for tag, and whether it was present.
func (m *Message) Get(tag uint32) (FieldValue, bool) {
	idx, ok := m.entries[tag]
	if !ok {
		return FieldValue{}, false
	}
	return m.values[idx].value, true
}

// Has reports whether tag has been set on this Message.
func (m *Message) Has(tag uint32) bool {
	_, ok := m.entries[tag]
	return ok
}

// Len returns the number of distinct tags set on this Message.
func (m *Message) Len() int { return len(m.values) }

// Iter calls fn for every (tag, value) pair in insertion order, stopping
// early if fn returns false.
func (m *Message) Iter(fn func(tag uint32, value FieldValue) bool) {
	for _, e := range m.values {
		if !fn(e.tag, e.value) {
			return
		}
	}
}
