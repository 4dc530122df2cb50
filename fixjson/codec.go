package fixjson

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edgewater-trading/gofix/dictionary"
	"github.com/edgewater-trading/gofix/message"
)

const (
	tagBeginString = 8
	tagMsgType     = 35
	tagBodyLength  = 9
	tagCheckSum    = 10
)

type document struct {
	Header  json.RawMessage `json:"Header"`
	Body    json.RawMessage `json:"Body"`
	Trailer json.RawMessage `json:"Trailer"`
}

// Decoder decodes FIX-over-JSON documents into a message.Message.
type Decoder struct {
	dicts  map[string]*dictionary.Dictionary
	logger zerolog.Logger
}

// NewDecoder builds a Decoder that resolves dictionaries by
// Header.BeginString. With no dicts given it loads all 9 embedded
// versions.
func NewDecoder(dicts ...*dictionary.Dictionary) (*Decoder, error) {
	d := &Decoder{dicts: make(map[string]*dictionary.Dictionary)}
	for _, dd := range dicts {
		d.dicts[dd.Version().String()] = dd
	}
	if len(d.dicts) == 0 {
		for _, v := range dictionary.AllVersions() {
			dd, err := dictionary.FromVersion(v)
			if err != nil {
				return nil, err
			}
			d.dicts[dd.Version().String()] = dd
		}
	}
	return d, nil
}

// WithLogger attaches a zerolog.Logger for decode-failure diagnostics.
func (d *Decoder) WithLogger(l zerolog.Logger) *Decoder {
	d.logger = l
	return d
}

// Decode implements spec §4.5's decode contract.
func (d *Decoder) Decode(raw []byte) (*message.Message, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &DecodeError{Kind: DecodeErrSyntax, Detail: err.Error()}
	}
	if doc.Header == nil || doc.Body == nil || doc.Trailer == nil {
		return nil, &DecodeError{Kind: DecodeErrSchema, Detail: "missing Header, Body, or Trailer"}
	}

	var headerPeek struct {
		BeginString string `json:"BeginString"`
		MsgType     string `json:"MsgType"`
	}
	if err := json.Unmarshal(doc.Header, &headerPeek); err != nil {
		return nil, &DecodeError{Kind: DecodeErrSyntax, Detail: err.Error()}
	}
	if headerPeek.BeginString == "" {
		return nil, &DecodeError{Kind: DecodeErrSchema, Detail: "Header.BeginString is required"}
	}
	dict, ok := d.dicts[headerPeek.BeginString]
	if !ok {
		return nil, &DecodeError{Kind: DecodeErrInvalidMsgType, Detail: headerPeek.BeginString}
	}
	if headerPeek.MsgType == "" {
		return nil, &DecodeError{Kind: DecodeErrSchema, Detail: "Header.MsgType is required"}
	}

	msg := message.New()
	if err := decodeSection(dict, doc.Header, msg); err != nil {
		return nil, err
	}
	if err := decodeSection(dict, doc.Body, msg); err != nil {
		return nil, err
	}
	if err := decodeSection(dict, doc.Trailer, msg); err != nil {
		return nil, err
	}

	d.logger.Debug().Str("msgType", headerPeek.MsgType).Int("fields", msg.Len()).Msg("fixjson: decoded message")
	return msg, nil
}

// decodeSection translates one JSON object's (name, value) pairs into
// target, resolving each name against dict and recursing into arrays as
// repeating groups (spec §4.5 rule 5).
func decodeSection(dict *dictionary.Dictionary, raw json.RawMessage, target *message.Message) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return &DecodeError{Kind: DecodeErrSyntax, Detail: err.Error()}
	}

	for name, rawVal := range obj {
		fd, ok := dict.FieldByName(name)
		if !ok {
			return &DecodeError{Kind: DecodeErrInvalidData, Detail: "unknown field name " + name}
		}

		var s string
		if err := json.Unmarshal(rawVal, &s); err == nil {
			atom, err := atomFromString(fd, s)
			if err != nil {
				return err
			}
			target.Set(fd.Tag, message.Atom(atom))
			continue
		}

		var arr []json.RawMessage
		if err := json.Unmarshal(rawVal, &arr); err != nil {
			return &DecodeError{Kind: DecodeErrInvalidData, Detail: "field " + name + " is neither a string nor an array"}
		}
		subs := make([]*message.Message, 0, len(arr))
		for _, item := range arr {
			sub := message.New()
			if err := decodeSection(dict, item, sub); err != nil {
				return err
			}
			subs = append(subs, sub)
		}
		target.Set(fd.Tag, message.Group(subs))
	}
	return nil
}

// atomFromString parses a JSON string value into an AtomicValue per the
// field's base type. FIX-JSON is text-transparent — every value arrives as
// a JSON string regardless of underlying type — so this mirrors
// tagvalue.convertAtom rather than sharing it (the two codecs' failure
// modes and error types are independent).
func atomFromString(fd *dictionary.FieldDef, raw string) (message.AtomicValue, error) {
	switch fd.Type {
	case dictionary.TypeInt, dictionary.TypeLength, dictionary.TypeNumInGroup,
		dictionary.TypeSeqNum, dictionary.TypeTagNum:
		var v int64
		if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
			return message.AtomicValue{}, &DecodeError{Kind: DecodeErrInvalidData, Detail: fmt.Sprintf("tag %d: %q is not an integer", fd.Tag, raw)}
		}
		return message.Int(v), nil
	case dictionary.TypeFloat, dictionary.TypeQty, dictionary.TypePrice,
		dictionary.TypePriceOffset, dictionary.TypeAmt, dictionary.TypePercentage:
		var v float64
		if _, err := fmt.Sscanf(raw, "%g", &v); err != nil {
			return message.AtomicValue{}, &DecodeError{Kind: DecodeErrInvalidData, Detail: fmt.Sprintf("tag %d: %q is not a float", fd.Tag, raw)}
		}
		return message.Float(v), nil
	case dictionary.TypeBoolean:
		switch raw {
		case "Y":
			return message.Bool(true), nil
		case "N":
			return message.Bool(false), nil
		default:
			return message.AtomicValue{}, &DecodeError{Kind: DecodeErrInvalidData, Detail: fmt.Sprintf("tag %d: %q is not Y/N", fd.Tag, raw)}
		}
	default:
		return message.String(raw), nil
	}
}

// Encoder encodes a message.Message into a FIX-over-JSON document.
type Encoder struct {
	dicts  map[string]*dictionary.Dictionary
	cfg    Config
	logger zerolog.Logger
}

// NewEncoder builds an Encoder with the given Config that resolves
// dictionaries by BeginString. With no dicts given it loads all 9 embedded
// versions.
func NewEncoder(cfg Config, dicts ...*dictionary.Dictionary) (*Encoder, error) {
	e := &Encoder{dicts: make(map[string]*dictionary.Dictionary), cfg: cfg}
	for _, dd := range dicts {
		e.dicts[dd.Version().String()] = dd
	}
	if len(e.dicts) == 0 {
		for _, v := range dictionary.AllVersions() {
			dd, err := dictionary.FromVersion(v)
			if err != nil {
				return nil, err
			}
			e.dicts[dd.Version().String()] = dd
		}
	}
	return e, nil
}

// WithLogger attaches a zerolog.Logger for encode-failure diagnostics.
func (e *Encoder) WithLogger(l zerolog.Logger) *Encoder {
	e.logger = l
	return e
}

// Encode implements spec §4.5's encode contract: partition by
// StandardHeader/StandardTrailer membership, translate Atom→string,
// Group→array of objects, and serialize per Config.PrettyPrint. BodyLength
// and CheckSum (wire-framing artifacts with no JSON analogue) are omitted,
// matching the example fixtures this codec is grounded on.
func (e *Encoder) Encode(msg *message.Message) ([]byte, error) {
	beginVal, ok := msg.Get(tagBeginString)
	if !ok || !beginVal.IsAtom() {
		return nil, &EncoderError{Kind: EncoderErrDictionary, Detail: "message has no BeginString (tag 8)"}
	}
	beginString := beginVal.AsAtom().StringValue()
	dict, ok := e.dicts[beginString]
	if !ok {
		return nil, &EncoderError{Kind: EncoderErrDictionary, Detail: "unknown BeginString " + beginString}
	}

	header := map[string]interface{}{}
	body := map[string]interface{}{}
	trailer := map[string]interface{}{}

	var iterErr error
	msg.Iter(func(tag uint32, v message.FieldValue) bool {
		if tag == tagBodyLength || tag == tagCheckSum {
			return true
		}
		fd, ok := dict.FieldByTag(tag)
		if !ok {
			iterErr = &EncoderError{Kind: EncoderErrDictionary, Detail: fmt.Sprintf("unknown tag %d", tag)}
			return false
		}
		rendered, err := encodeValue(dict, v)
		if err != nil {
			iterErr = err
			return false
		}
		switch {
		case dict.StandardHeader().ContainsField(tag):
			header[fd.Name] = rendered
		case dict.StandardTrailer().ContainsField(tag):
			trailer[fd.Name] = rendered
		default:
			body[fd.Name] = rendered
		}
		return true
	})
	if iterErr != nil {
		return nil, iterErr
	}

	doc := map[string]interface{}{"Header": header, "Body": body, "Trailer": trailer}
	if e.cfg.PrettyPrint {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// encodeValue translates a FieldValue to its JSON representation: an atom
// becomes its wire-string form, a group becomes an array of nested objects,
// each resolved recursively against dict by tag-to-name lookup.
func encodeValue(dict *dictionary.Dictionary, v message.FieldValue) (interface{}, error) {
	if v.IsAtom() {
		return v.AsAtom().Raw(), nil
	}

	subs := v.AsGroup()
	arr := make([]map[string]interface{}, 0, len(subs))
	for _, sub := range subs {
		obj := map[string]interface{}{}
		var err error
		sub.Iter(func(tag uint32, sv message.FieldValue) bool {
			fd, ok := dict.FieldByTag(tag)
			if !ok {
				err = &EncoderError{Kind: EncoderErrDictionary, Detail: fmt.Sprintf("unknown tag %d in group entry", tag)}
				return false
			}
			rendered, rerr := encodeValue(dict, sv)
			if rerr != nil {
				err = rerr
				return false
			}
			obj[fd.Name] = rendered
			return true
		})
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
	return arr, nil
}
