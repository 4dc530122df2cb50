// Package validate implements the ambient message-level validator: given a
// decoded message.Message and the dictionary.Dictionary it claims to speak,
// check required fields, enum values, field types, member ordering, and
// the structural invariants a dictionary alone cannot enforce. This is
// adapted from the original FIX decoder's flat validator, generalized to
// the arena-indexed Dictionary and the Message tagged-value model.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"go.uber.org/multierr"

	"github.com/edgewater-trading/gofix/dictionary"
	"github.com/edgewater-trading/gofix/message"
)

// Message validates msg against dict, returning every problem found
// aggregated with multierr rather than stopping at the first one. A nil
// return means msg is well-formed against the dictionary's schema.
func Message(msg *message.Message, dict *dictionary.Dictionary) error {
	var errs error

	msgType, msgDef, err := resolveMsgType(msg, dict)
	if err != nil {
		return err // can't continue without a known MsgType
	}

	errs = multierr.Append(errs, validateRequiredMembers(msg, dict, msgDef.Members, ""))
	errs = multierr.Append(errs, validateRequiredMembers(msg, dict, dict.StandardHeader().Members, "header "))
	errs = multierr.Append(errs, validateFieldEnumsAndTypes(msg, dict))
	errs = multierr.Append(errs, validateOrdering(msg, dict, msgDef))

	_ = msgType
	return errs
}

func resolveMsgType(msg *message.Message, dict *dictionary.Dictionary) (string, *dictionary.MessageDef, error) {
	field, ok := msg.Get(35)
	if !ok {
		return "", nil, fmt.Errorf("validate: missing required tag 35 (MsgType)")
	}
	if !field.IsAtom() {
		return "", nil, fmt.Errorf("validate: tag 35 (MsgType) is a group, expected a scalar")
	}
	msgType := field.AsAtom().Raw()
	msgDef, ok := dict.MessageByMsgType(msgType)
	if !ok {
		return "", nil, fmt.Errorf("validate: unknown MsgType %q", msgType)
	}
	return msgType, msgDef, nil
}

// validateRequiredMembers walks members (a message's body, or the standard
// header) and reports any Required field/component/group not present on
// msg. label prefixes the error text ("header " for StandardHeader checks)
// so the two call sites produce distinguishable messages.
func validateRequiredMembers(msg *message.Message, dict *dictionary.Dictionary, members []dictionary.Member, label string) error {
	var errs error
	for _, m := range members {
		if !m.Required {
			continue
		}
		switch m.Kind {
		case dictionary.MemberField:
			field := dict.FieldDefAt(m.FieldIdx)
			// BodyLength (9) is wire framing: neither codec stores it on a
			// decoded Message, and encoders compute it themselves.
			if field.Tag == 9 {
				continue
			}
			if !msg.Has(field.Tag) {
				errs = multierr.Append(errs, fmt.Errorf("validate: missing required %stag %d (%s)", label, field.Tag, field.Name))
			}
		case dictionary.MemberComponent:
			comp := dict.ComponentDefAt(m.ComponentIdx)
			errs = multierr.Append(errs, validateRequiredMembers(msg, dict, comp.Members, label))
		case dictionary.MemberGroup:
			grp := dict.GroupDefAt(m.GroupIdx)
			if !msg.Has(grp.CounterTag) {
				errs = multierr.Append(errs, fmt.Errorf("validate: missing required %sgroup %s (counter tag %d)", label, grp.Name, grp.CounterTag))
			}
		}
	}
	return errs
}

// validateFieldEnumsAndTypes checks every scalar field present on msg (at
// any nesting depth) against the dictionary's declared type and, if the
// field declares one, its enum set.
func validateFieldEnumsAndTypes(msg *message.Message, dict *dictionary.Dictionary) error {
	var errs error
	walkAtoms(msg, func(tag uint32, atom message.AtomicValue) {
		field, ok := dict.FieldByTag(tag)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("validate: unknown tag %d", tag))
			return
		}
		raw := atom.Raw()
		if len(field.Enums) > 0 {
			if _, valid := field.EnumDescription(raw); !valid {
				errs = multierr.Append(errs, fmt.Errorf("validate: invalid enum value %q for tag %d (%s), allowed: %s",
					raw, tag, field.Name, allowedEnumNames(field.Enums)))
			}
		}
		if !isValidType(raw, field.Type) {
			errs = multierr.Append(errs, fmt.Errorf("validate: invalid value %q for tag %d (%s), expected %s", raw, tag, field.Name, field.Type))
		}
	})
	return errs
}

func walkAtoms(msg *message.Message, fn func(tag uint32, atom message.AtomicValue)) {
	msg.Iter(func(tag uint32, v message.FieldValue) bool {
		if v.IsAtom() {
			fn(tag, v.AsAtom())
			return true
		}
		for _, sub := range v.AsGroup() {
			walkAtoms(sub, fn)
		}
		return true
	})
}

// validateOrdering checks msg's top-level field order against the
// message definition's declared member order (spec §4.1's notion that a
// Dictionary fixes a canonical field order per message type). Members not
// named by the schema, and group contents, are ignored here; groups police
// their own internal order independently (the delimiter-tag convention
// already forces it during decode).
func validateOrdering(msg *message.Message, dict *dictionary.Dictionary, msgDef *dictionary.MessageDef) error {
	orderIndex := make(map[uint32]int)
	pos := 0
	var walk func([]dictionary.Member)
	walk = func(members []dictionary.Member) {
		for _, m := range members {
			switch m.Kind {
			case dictionary.MemberField:
				orderIndex[dict.FieldDefAt(m.FieldIdx).Tag] = pos
				pos++
			case dictionary.MemberComponent:
				walk(dict.ComponentDefAt(m.ComponentIdx).Members)
			case dictionary.MemberGroup:
				grp := dict.GroupDefAt(m.GroupIdx)
				orderIndex[grp.CounterTag] = pos
				pos++
			}
		}
	}
	walk(dict.StandardHeader().Members)
	walk(msgDef.Members)

	var errs error
	lastIdx := -1
	msg.Iter(func(tag uint32, _ message.FieldValue) bool {
		idx, ok := orderIndex[tag]
		if !ok {
			return true
		}
		if idx < lastIdx {
			errs = multierr.Append(errs, fmt.Errorf("validate: tag %d out of order", tag))
		}
		lastIdx = idx
		return true
	})
	return errs
}

// allowedEnumNames renders a field's enum set as Go-style identifiers
// (e.g. "NEW" -> "New") for a more readable finding than raw wire codes,
// matching the teacher pack's strcase.ToCamel(strings.ToLower(desc))
// convention for turning a QuickFIX enum description into a display name.
func allowedEnumNames(enums []dictionary.EnumValue) string {
	names := make([]string, len(enums))
	for i, e := range enums {
		names[i] = fmt.Sprintf("%s=%s", e.Code, strcase.ToCamel(strings.ToLower(e.Description)))
	}
	return strings.Join(names, ", ")
}

var monthYearPattern = regexp.MustCompile(`^\d{6}([0-9]{2}|(-[0-9]{1,2})|(-?w[1-5]))?$`)

// isValidType reports whether raw is a syntactically valid wire-string for
// typ. Unknown/custom types are assumed valid, matching the original
// decoder's permissive default.
func isValidType(raw string, typ dictionary.FieldType) bool {
	switch typ {
	case dictionary.TypeInt, dictionary.TypeLength, dictionary.TypeNumInGroup, dictionary.TypeSeqNum, dictionary.TypeTagNum:
		_, err := strconv.Atoi(raw)
		return err == nil
	case dictionary.TypeFloat, dictionary.TypeQty, dictionary.TypePrice, dictionary.TypePriceOffset, dictionary.TypeAmt, dictionary.TypePercentage:
		_, err := strconv.ParseFloat(raw, 64)
		return err == nil
	case dictionary.TypeBoolean:
		return raw == "Y" || raw == "N"
	case dictionary.TypeChar:
		return len(raw) == 1
	case dictionary.TypeString, dictionary.TypeData, dictionary.TypeXMLData, dictionary.TypeCurrency,
		dictionary.TypeExchange, dictionary.TypeCountry, dictionary.TypeMultipleCharValue,
		dictionary.TypeMultipleStringValue, dictionary.TypeLanguage:
		return true
	case dictionary.TypeUTCTimestamp:
		for _, layout := range []string{"20060102-15:04:05", "20060102-15:04:05.000"} {
			if _, err := time.Parse(layout, raw); err == nil {
				return true
			}
		}
		return false
	case dictionary.TypeUTCDate, dictionary.TypeLocalMktDate:
		_, err := time.Parse("20060102", raw)
		return err == nil
	case dictionary.TypeUTCTimeOnly, dictionary.TypeTZTimeOnly:
		for _, layout := range []string{"15:04", "15:04:05", "15:04:05.000"} {
			if _, err := time.Parse(layout, raw); err == nil {
				return true
			}
		}
		return false
	case dictionary.TypeMonthYear:
		return monthYearPattern.MatchString(raw)
	default:
		return true
	}
}
