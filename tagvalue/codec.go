package tagvalue

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/edgewater-trading/gofix/dictionary"
	"github.com/edgewater-trading/gofix/fix"
	"github.com/edgewater-trading/gofix/message"
)

const (
	defaultSeparator byte = 0x01

	tagBeginString = 8
	tagBodyLength  = 9
	tagMsgType     = 35
	tagCheckSum    = 10
)

// Option configures a Decoder or Encoder.
type Option func(*config)

type config struct {
	separator  byte
	dicts      map[string]*dictionary.Dictionary
	logger     zerolog.Logger
	obfuscator *fix.Obfuscator
}

// WithSeparator overrides the default SOH (0x01) token separator — tests
// commonly pass '|' for readability, per spec §4.4.
func WithSeparator(sep byte) Option {
	return func(c *config) { c.separator = sep }
}

// WithLogger attaches a zerolog.Logger for structured decode/encode
// diagnostics. The zero value (disabled) is used if this is never called.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithObfuscator attaches a fix.Obfuscator so Decode can emit a raw-line
// trace log, passed through the obfuscator's Enabled method, alongside its
// existing summary log. An enabled obfuscator redacts its sensitive tags; a
// disabled one passes the line through unchanged. Unset by default, so no
// raw line is logged unless a caller opts in.
func WithObfuscator(o *fix.Obfuscator) Option {
	return func(c *config) { c.obfuscator = o }
}

// WithDictionary registers a Dictionary, keyed by its own Version's wire
// BeginString. Once any dictionary is registered this way, only the
// registered ones are used; the 9 embedded versions are not loaded.
func WithDictionary(d *dictionary.Dictionary) Option {
	return func(c *config) {
		if c.dicts == nil {
			c.dicts = make(map[string]*dictionary.Dictionary)
		}
		c.dicts[d.Version().String()] = d
	}
}

func newConfig(opts []Option) (*config, error) {
	c := &config{separator: defaultSeparator, dicts: make(map[string]*dictionary.Dictionary)}
	for _, o := range opts {
		o(c)
	}
	if len(c.dicts) == 0 {
		for _, v := range dictionary.AllVersions() {
			d, err := dictionary.FromVersion(v)
			if err != nil {
				return nil, err
			}
			c.dicts[d.Version().String()] = d
		}
	}
	return c, nil
}

// Decoder decodes tag-value wire bytes into a message.Message, selecting the
// Dictionary from the message's own BeginString field (spec §4.4 rule 2).
type Decoder struct {
	cfg *config
}

// NewDecoder builds a Decoder. With no WithDictionary options it loads all
// 9 embedded dictionaries (dictionary.AllVersions), so any well-formed
// message decodes regardless of FIX version.
func NewDecoder(opts ...Option) (*Decoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Decoder{cfg: cfg}, nil
}

// Decode implements the full spec §4.4 decode contract: tokenize, validate
// BeginString/BodyLength/CheckSum, then translate each remaining token
// (recursing through repeating groups) into the returned Message.
func (d *Decoder) Decode(raw []byte) (*message.Message, error) {
	tokens, err := tokenize(raw, d.cfg.separator)
	if err != nil {
		return nil, err
	}
	if len(tokens) < 3 {
		return nil, &Error{Kind: ErrBadSyntax, Detail: "message too short"}
	}
	if tokens[0].tag != tagBeginString {
		return nil, &Error{Kind: ErrBadSyntax, Detail: "first token is not BeginString (tag 8)"}
	}
	if tokens[1].tag != tagBodyLength {
		return nil, &Error{Kind: ErrBadSyntax, Detail: "second token is not BodyLength (tag 9)"}
	}
	last := len(tokens) - 1
	if tokens[last].tag != tagCheckSum {
		return nil, &Error{Kind: ErrBadSyntax, Detail: "last token is not CheckSum (tag 10)"}
	}

	beginString := tokens[0].value
	dict, ok := d.cfg.dicts[beginString]
	if !ok {
		return nil, &Error{Kind: ErrUnknownBeginString, Detail: beginString}
	}

	declaredLen, err := strconv.Atoi(tokens[1].value)
	if err != nil {
		return nil, &Error{Kind: ErrBadBodyLength, Detail: tokens[1].value}
	}
	actualLen := tokens[last].start - (tokens[1].end + 1)
	if actualLen != declaredLen {
		return nil, &Error{Kind: ErrBadBodyLength, Detail: fmt.Sprintf("declared %d, actual %d", declaredLen, actualLen)}
	}

	wantChecksum, err := strconv.Atoi(tokens[last].value)
	if err != nil || tokens[last].value == "" {
		return nil, &Error{Kind: ErrBadChecksum, Detail: tokens[last].value}
	}
	gotChecksum := checksum(raw[:tokens[last].start])
	if gotChecksum != wantChecksum {
		return nil, &Error{Kind: ErrBadChecksum, Detail: fmt.Sprintf("declared %03d, computed %03d", wantChecksum, gotChecksum)}
	}

	msg := message.New()
	cursor := 2
	for cursor < last {
		nc, err := consumeField(tokens, cursor, dict, msg)
		if err != nil {
			return nil, err
		}
		cursor = nc
	}

	if d.cfg.obfuscator != nil {
		d.cfg.logger.Trace().Str("raw", d.cfg.obfuscator.Enabled(string(raw), nil)).Msg("tagvalue: raw line")
	}
	d.cfg.logger.Debug().Str("msgType", firstAtomString(msg, tagMsgType)).Int("fields", msg.Len()).Msg("tagvalue: decoded message")
	return msg, nil
}

func firstAtomString(msg *message.Message, tag uint32) string {
	v, ok := msg.Get(tag)
	if !ok || !v.IsAtom() {
		return ""
	}
	return v.AsAtom().StringValue()
}

// consumeField decodes the field at tokens[cursor] into target, recursing
// through a repeating group's sub-blocks when the field is a registered
// NumInGroup counter, and returns the next unconsumed cursor position.
func consumeField(tokens []rawToken, cursor int, dict *dictionary.Dictionary, target *message.Message) (int, error) {
	tok := tokens[cursor]
	fd, ok := dict.FieldByTag(tok.tag)
	if !ok {
		return 0, &Error{Kind: ErrUnknownTag, Detail: strconv.FormatUint(uint64(tok.tag), 10)}
	}

	if fd.Type == dictionary.TypeNumInGroup {
		if grp, ok := dict.GroupByCounterTag(tok.tag); ok {
			return consumeGroup(tokens, cursor, tok, grp, dict, target)
		}
	}

	val, err := convertAtom(fd, tok.value)
	if err != nil {
		return 0, err
	}
	target.Set(tok.tag, message.Atom(val))
	return cursor + 1, nil
}

func consumeGroup(tokens []rawToken, cursor int, counter rawToken, grp *dictionary.GroupDef, dict *dictionary.Dictionary, target *message.Message) (int, error) {
	n, err := strconv.Atoi(counter.value)
	if err != nil {
		return 0, &Error{Kind: ErrBadType, Detail: "NumInGroup value " + counter.value}
	}
	cursor++

	subs := make([]*message.Message, 0, n)
	for i := 0; i < n; i++ {
		if cursor >= len(tokens) || tokens[cursor].tag != grp.DelimiterTag {
			return 0, &Error{Kind: ErrBadGroup, Detail: fmt.Sprintf("group %s: expected delimiter tag %d at repetition %d", grp.Name, grp.DelimiterTag, i)}
		}
		sub := message.New()
		nc, err := consumeField(tokens, cursor, dict, sub)
		if err != nil {
			return 0, err
		}
		cursor = nc

		for cursor < len(tokens) {
			t := tokens[cursor].tag
			if t == grp.DelimiterTag || !grp.ContainsField(t) {
				break
			}
			nc, err := consumeField(tokens, cursor, dict, sub)
			if err != nil {
				return 0, err
			}
			cursor = nc
		}
		subs = append(subs, sub)
	}

	target.Set(counter.tag, message.Group(subs))
	return cursor, nil
}

// convertAtom parses a raw token value according to the field's base type,
// per the closed FieldType set (spec §3). Types without a dedicated Go
// representation (String, Char, Country, Currency, ...) pass through as
// message.String, preserving the original wire text exactly.
func convertAtom(fd *dictionary.FieldDef, raw string) (message.AtomicValue, error) {
	switch fd.Type {
	case dictionary.TypeInt, dictionary.TypeLength, dictionary.TypeNumInGroup,
		dictionary.TypeSeqNum, dictionary.TypeTagNum:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return message.AtomicValue{}, &Error{Kind: ErrBadType, Detail: fmt.Sprintf("tag %d: %q is not an integer", fd.Tag, raw)}
		}
		return message.Int(v), nil
	case dictionary.TypeFloat, dictionary.TypeQty, dictionary.TypePrice,
		dictionary.TypePriceOffset, dictionary.TypeAmt, dictionary.TypePercentage:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return message.AtomicValue{}, &Error{Kind: ErrBadType, Detail: fmt.Sprintf("tag %d: %q is not a float", fd.Tag, raw)}
		}
		return message.Float(v), nil
	case dictionary.TypeBoolean:
		switch raw {
		case "Y":
			return message.Bool(true), nil
		case "N":
			return message.Bool(false), nil
		default:
			return message.AtomicValue{}, &Error{Kind: ErrBadType, Detail: fmt.Sprintf("tag %d: %q is not Y/N", fd.Tag, raw)}
		}
	default:
		return message.String(raw), nil
	}
}

// checksum implements spec §4.4 rule 4: the byte-sum of everything preceding
// the CheckSum token (separators included), mod 256.
func checksum(b []byte) int {
	var sum int
	for _, c := range b {
		sum += int(c)
	}
	return sum % 256
}

// Encoder encodes a message.Message into tag-value wire bytes, selecting
// the Dictionary from the message's own BeginString field (tag 8).
type Encoder struct {
	cfg *config
}

// NewEncoder builds an Encoder with the same dictionary-resolution and
// separator configuration as NewDecoder.
func NewEncoder(opts ...Option) (*Encoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Encoder{cfg: cfg}, nil
}

// Encode implements spec §4.4's encode contract: BeginString/BodyLength
// first, then header (per StandardHeader's declared member order), body
// (per the message definition's declared member order), trailer (per
// StandardTrailer's declared member order, excluding CheckSum), finally the
// computed CheckSum. Declared order, not tag-ascending order, is what spec
// §8's worked examples and internal/validate's ordering check both assume
// is canonical for a given message type.
func (e *Encoder) Encode(msg *message.Message) ([]byte, error) {
	beginVal, ok := msg.Get(tagBeginString)
	if !ok || !beginVal.IsAtom() {
		return nil, &Error{Kind: ErrUnknownBeginString, Detail: "message has no BeginString (tag 8)"}
	}
	beginString := beginVal.AsAtom().StringValue()
	dict, ok := e.cfg.dicts[beginString]
	if !ok {
		return nil, &Error{Kind: ErrUnknownBeginString, Detail: beginString}
	}

	msgTypeVal, ok := msg.Get(tagMsgType)
	if !ok || !msgTypeVal.IsAtom() {
		return nil, &Error{Kind: ErrUnknownMsgType, Detail: "message has no MsgType (tag 35)"}
	}
	msgDef, ok := dict.MessageByMsgType(msgTypeVal.AsAtom().StringValue())
	if !ok {
		return nil, &Error{Kind: ErrUnknownMsgType, Detail: msgTypeVal.AsAtom().StringValue()}
	}

	headerOrder := buildOrderIndex(dict, dict.StandardHeader().Members)
	bodyOrder := buildOrderIndex(dict, msgDef.Members)
	trailerOrder := buildOrderIndex(dict, dict.StandardTrailer().Members)

	var header, body, trailer []topEntry
	msg.Iter(func(tag uint32, v message.FieldValue) bool {
		switch tag {
		case tagBeginString, tagBodyLength, tagCheckSum:
			return true
		}
		switch {
		case dict.StandardHeader().ContainsField(tag):
			header = append(header, topEntry{tag, v})
		case dict.StandardTrailer().ContainsField(tag):
			trailer = append(trailer, topEntry{tag, v})
		default:
			body = append(body, topEntry{tag, v})
		}
		return true
	})
	sortByOrder(header, headerOrder)
	sortByOrder(body, bodyOrder)
	sortByOrder(trailer, trailerOrder)

	var rest bytes.Buffer
	writeEntries(&rest, header, e.cfg.separator)
	writeEntries(&rest, body, e.cfg.separator)
	writeEntries(&rest, trailer, e.cfg.separator)

	var out bytes.Buffer
	fmt.Fprintf(&out, "8=%s%c9=%d%c", beginString, e.cfg.separator, rest.Len(), e.cfg.separator)
	out.Write(rest.Bytes())

	sum := checksum(out.Bytes())
	fmt.Fprintf(&out, "10=%03d%c", sum, e.cfg.separator)

	return out.Bytes(), nil
}

type topEntry struct {
	tag   uint32
	value message.FieldValue
}

// buildOrderIndex flattens a declared member list (a header, a trailer, or
// a message body) into a tag -> position map, the same declared-order walk
// internal/validate.validateOrdering uses to police field order on decode.
func buildOrderIndex(dict *dictionary.Dictionary, members []dictionary.Member) map[uint32]int {
	order := make(map[uint32]int)
	pos := 0
	var walk func([]dictionary.Member)
	walk = func(ms []dictionary.Member) {
		for _, m := range ms {
			switch m.Kind {
			case dictionary.MemberField:
				order[dict.FieldDefAt(m.FieldIdx).Tag] = pos
				pos++
			case dictionary.MemberComponent:
				walk(dict.ComponentDefAt(m.ComponentIdx).Members)
			case dictionary.MemberGroup:
				order[dict.GroupDefAt(m.GroupIdx).CounterTag] = pos
				pos++
			}
		}
	}
	walk(members)
	return order
}

// sortByOrder orders entries by their declared position in order. A tag
// the schema doesn't mention sorts after every known tag, stable among
// itself in original iteration order.
func sortByOrder(entries []topEntry, order map[uint32]int) {
	sort.SliceStable(entries, func(i, j int) bool {
		oi, iok := order[entries[i].tag]
		oj, jok := order[entries[j].tag]
		if iok && jok {
			return oi < oj
		}
		return iok && !jok
	})
}

func writeEntries(buf *bytes.Buffer, entries []topEntry, sep byte) {
	for _, e := range entries {
		writeEntry(buf, e.tag, e.value, sep)
	}
}

func writeEntry(buf *bytes.Buffer, tag uint32, v message.FieldValue, sep byte) {
	if v.IsAtom() {
		fmt.Fprintf(buf, "%d=%s%c", tag, v.AsAtom().Raw(), sep)
		return
	}
	subs := v.AsGroup()
	fmt.Fprintf(buf, "%d=%d%c", tag, len(subs), sep)
	for _, sub := range subs {
		sub.Iter(func(t uint32, sv message.FieldValue) bool {
			writeEntry(buf, t, sv, sep)
			return true
		})
	}
}
