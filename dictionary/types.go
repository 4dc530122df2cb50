// Package dictionary implements the Dictionary-driven schema engine: it
// parses QuickFIX-format XML definitions into an arena-indexed, immutable
// in-memory schema shared by every wire codec in this module.
package dictionary

import "fmt"

// FieldType is the closed set of base types a FIX field can declare.
type FieldType int

const (
	TypeUnknown FieldType = iota
	TypeString
	TypeChar
	TypeInt
	TypeLength
	TypeNumInGroup
	TypeSeqNum
	TypeTagNum
	TypeFloat
	TypeQty
	TypePrice
	TypePriceOffset
	TypeAmt
	TypePercentage
	TypeBoolean
	TypeMultipleCharValue
	TypeMultipleStringValue
	TypeCountry
	TypeCurrency
	TypeExchange
	TypeMonthYear
	TypeUTCDate
	TypeUTCTimeOnly
	TypeUTCTimestamp
	TypeLocalMktDate
	TypeTZTimeOnly
	TypeTZTimestamp
	TypeData
	TypeXMLData
	TypeLanguage
)

// fieldTypeNames maps the XML `type` attribute (QuickFIX spelling, upper
// case by convention) to the closed FieldType set from spec §3.
var fieldTypeNames = map[string]FieldType{
	"STRING":              TypeString,
	"CHAR":                TypeChar,
	"INT":                 TypeInt,
	"LENGTH":              TypeLength,
	"NUMINGROUP":          TypeNumInGroup,
	"SEQNUM":              TypeSeqNum,
	"TAGNUM":              TypeTagNum,
	"FLOAT":               TypeFloat,
	"QTY":                 TypeQty,
	"QUANTITY":            TypeQty,
	"PRICE":               TypePrice,
	"PRICEOFFSET":         TypePriceOffset,
	"AMT":                 TypeAmt,
	"PERCENTAGE":          TypePercentage,
	"BOOLEAN":             TypeBoolean,
	"MULTIPLECHARVALUE":   TypeMultipleCharValue,
	"MULTIPLEVALUESTRING": TypeMultipleStringValue,
	"MULTIPLESTRINGVALUE": TypeMultipleStringValue,
	"COUNTRY":             TypeCountry,
	"CURRENCY":            TypeCurrency,
	"EXCHANGE":            TypeExchange,
	"MONTHYEAR":           TypeMonthYear,
	"UTCDATE":             TypeUTCDate,
	"UTCDATEONLY":         TypeUTCDate,
	"UTCTIMEONLY":         TypeUTCTimeOnly,
	"UTCTIMESTAMP":        TypeUTCTimestamp,
	"LOCALMKTDATE":        TypeLocalMktDate,
	"TZTIMEONLY":          TypeTZTimeOnly,
	"TZTIMESTAMP":         TypeTZTimestamp,
	"DATA":                TypeData,
	"XMLDATA":             TypeXMLData,
	"LANGUAGE":            TypeLanguage,
}

// parseFieldType resolves a QuickFIX type string into the closed FieldType
// set, or reports SchemaError.UnknownType.
func parseFieldType(raw string) (FieldType, error) {
	if t, ok := fieldTypeNames[raw]; ok {
		return t, nil
	}
	return TypeUnknown, &SchemaError{Kind: ErrUnknownType, Detail: raw}
}

func (t FieldType) String() string {
	for name, v := range fieldTypeNames {
		if v == t {
			return name
		}
	}
	return "UNKNOWN"
}

// Version enumerates the FIX/FIXT dictionary versions this module ships
// embedded XML for.
type Version int

const (
	VersionUnknown Version = iota
	Fix40
	Fix41
	Fix42
	Fix43
	Fix44
	Fix50
	Fix50SP1
	Fix50SP2
	Fixt11
)

var versionNames = map[Version]string{
	Fix40:    "FIX.4.0",
	Fix41:    "FIX.4.1",
	Fix42:    "FIX.4.2",
	Fix43:    "FIX.4.3",
	Fix44:    "FIX.4.4",
	Fix50:    "FIX.5.0",
	Fix50SP1: "FIX.5.0SP1",
	Fix50SP2: "FIX.5.0SP2",
	Fixt11:   "FIXT.1.1",
}

var versionsByBeginString = map[string]Version{
	"FIX.4.0":    Fix40,
	"FIX.4.1":    Fix41,
	"FIX.4.2":    Fix42,
	"FIX.4.3":    Fix43,
	"FIX.4.4":    Fix44,
	"FIX.5.0":    Fix50,
	"FIX.5.0SP1": Fix50SP1,
	"FIX.5.0SP2": Fix50SP2,
	"FIXT.1.1":   Fixt11,
}

func (v Version) String() string {
	if s, ok := versionNames[v]; ok {
		return s
	}
	return "UNKNOWN"
}

// VersionByBeginString resolves the wire-format tag-8 BeginString value
// (or, for FIX 5.0+ transported over FIXT.1.1, the session dictionary's own
// BeginString) to a Version.
func VersionByBeginString(beginString string) (Version, error) {
	if v, ok := versionsByBeginString[beginString]; ok {
		return v, nil
	}
	return VersionUnknown, fmt.Errorf("gofix/dictionary: unknown BeginString %q", beginString)
}

// AllVersions returns every Version this module embeds a dictionary for.
func AllVersions() []Version {
	return []Version{Fix40, Fix41, Fix42, Fix43, Fix44, Fix50, Fix50SP1, Fix50SP2, Fixt11}
}
