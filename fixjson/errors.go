// Package fixjson implements the FIX-over-JSON codec: a JSON object with
// exactly three members (Header, Body, Trailer), each a mapping from
// dictionary field name to a string (scalar) or array of objects
// (repeating group), translating to and from the schema-agnostic
// message.Message.
package fixjson

import "fmt"

// DecodeErrorKind is the dynamic decode-time error taxonomy from spec §4.5.
type DecodeErrorKind int

const (
	DecodeErrSyntax DecodeErrorKind = iota
	DecodeErrSchema
	DecodeErrInvalidMsgType
	DecodeErrInvalidData
)

// DecodeError reports a single fixjson decode failure.
type DecodeError struct {
	Kind   DecodeErrorKind
	Detail string
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case DecodeErrSyntax:
		return fmt.Sprintf("fixjson: syntax error: %s", e.Detail)
	case DecodeErrSchema:
		return fmt.Sprintf("fixjson: schema error: %s", e.Detail)
	case DecodeErrInvalidMsgType:
		return fmt.Sprintf("fixjson: invalid msg type: %s", e.Detail)
	case DecodeErrInvalidData:
		return fmt.Sprintf("fixjson: invalid data: %s", e.Detail)
	default:
		return fmt.Sprintf("fixjson: %s", e.Detail)
	}
}

// EncoderErrorKind is the encode-time error taxonomy from spec §4.5.
type EncoderErrorKind int

const (
	EncoderErrDictionary EncoderErrorKind = iota
)

// EncoderError reports a single fixjson encode failure.
type EncoderError struct {
	Kind   EncoderErrorKind
	Detail string
}

func (e *EncoderError) Error() string {
	return fmt.Sprintf("fixjson: dictionary error: %s", e.Detail)
}
