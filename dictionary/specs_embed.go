package dictionary

import "embed"

// specsFS bundles one QuickFIX-format XML document per Version so that a
// dictionary never has to be read from the filesystem at runtime — see
// spec §4.1 "Embedded resources".
//
//go:embed specs/*.xml
var specsFS embed.FS

var specFilenames = map[Version]string{
	Fix40:    "specs/fix40.xml",
	Fix41:    "specs/fix41.xml",
	Fix42:    "specs/fix42.xml",
	Fix43:    "specs/fix43.xml",
	Fix44:    "specs/fix44.xml",
	Fix50:    "specs/fix50.xml",
	Fix50SP1: "specs/fix50sp1.xml",
	Fix50SP2: "specs/fix50sp2.xml",
	Fixt11:   "specs/fixt11.xml",
}

// FromVersion builds the Dictionary for one of the versions this module
// ships an embedded XML document for.
func FromVersion(v Version, opts ...Option) (*Dictionary, error) {
	name, ok := specFilenames[v]
	if !ok {
		return nil, &SchemaError{Kind: ErrBadXML, Detail: "no embedded spec for version " + v.String()}
	}

	raw, err := specsFS.ReadFile(name)
	if err != nil {
		return nil, &SchemaError{Kind: ErrBadXML, Detail: err.Error()}
	}

	return Parse(string(raw), v, opts...)
}
