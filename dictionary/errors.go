package dictionary

import "fmt"

// ErrorKind distinguishes the static, schema-construction-time error family
// from spec §4.1 / §7.
type ErrorKind int

const (
	ErrBadXML ErrorKind = iota
	ErrUnknownReference
	ErrDuplicateTag
	ErrDuplicateName
	ErrUnknownType
	ErrMissingAttribute
)

// SchemaError reports a single problem found while building a Dictionary.
// Loaders accumulate these with go.uber.org/multierr rather than stopping
// at the first one, so a caller sees every duplicate tag and unresolved
// reference from a single Parse call.
type SchemaError struct {
	Kind   ErrorKind
	Detail string
}

func (e *SchemaError) Error() string {
	switch e.Kind {
	case ErrBadXML:
		return fmt.Sprintf("gofix/dictionary: malformed XML: %s", e.Detail)
	case ErrUnknownReference:
		return fmt.Sprintf("gofix/dictionary: unknown reference %q", e.Detail)
	case ErrDuplicateTag:
		return fmt.Sprintf("gofix/dictionary: duplicate tag %s", e.Detail)
	case ErrDuplicateName:
		return fmt.Sprintf("gofix/dictionary: duplicate name %q", e.Detail)
	case ErrUnknownType:
		return fmt.Sprintf("gofix/dictionary: unknown field type %q", e.Detail)
	case ErrMissingAttribute:
		return fmt.Sprintf("gofix/dictionary: missing attribute %q", e.Detail)
	default:
		return fmt.Sprintf("gofix/dictionary: schema error: %s", e.Detail)
	}
}
