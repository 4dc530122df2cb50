package dictionary

import (
	"encoding/xml"
	"strings"

	"golang.org/x/net/html/charset"
)

// The following types mirror the QuickFIX XML schema 1:1 — see spec §6.
// They are the "raw" pass-1/pass-2 input; BuildDictionary folds them into
// the arena-indexed Dictionary.

type xmlRoot struct {
	XMLName     xml.Name            `xml:"fix"`
	Major       string              `xml:"major,attr"`
	Minor       string              `xml:"minor,attr"`
	ServicePack string              `xml:"servicepack,attr"`
	Type        string              `xml:"type,attr"`
	Fields      []xmlField          `xml:"fields>field"`
	Header      xmlComponent        `xml:"header"`
	Trailer     xmlComponent        `xml:"trailer"`
	Components  []xmlNamedComponent `xml:"components>component"`
	Messages    []xmlMessage        `xml:"messages>message"`
}

type xmlField struct {
	Number int        `xml:"number,attr"`
	Name   string     `xml:"name,attr"`
	Type   string     `xml:"type,attr"`
	Values []xmlValue `xml:"value"`
}

type xmlValue struct {
	Enum        string `xml:"enum,attr"`
	Description string `xml:"description,attr"`
}

// xmlMember is a field/component/group reference as it appears inside a
// <message>, <component>, or <group> body. Kind records which of the three
// it is; SubGroup is populated only for a group.
type xmlMember struct {
	Kind     memberKind
	Name     string
	Required bool
	SubGroup *xmlGroup
}

type memberKind int

const (
	memberField memberKind = iota
	memberComponent
	memberGroup
)

// xmlComponent is the ordered member list shared by <header>, <trailer>,
// <message>, <component>, and nested <group> bodies.
type xmlComponent struct {
	Members []xmlMember
}

// UnmarshalXML walks the element's children in document order so that
// "first field of the group" (the delimiter-discovery convention from spec
// §9) is well defined — decoding into separate `[]field`/`[]component`/
// `[]group` slices the way encoding/xml's struct tags would destroys that
// order.
func (c *xmlComponent) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			member, err := decodeMember(d, t)
			if err != nil {
				return err
			}
			c.Members = append(c.Members, member)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

func decodeMember(d *xml.Decoder, start xml.StartElement) (xmlMember, error) {
	name := attr(start, "name")
	required := attr(start, "required") == "Y"

	switch start.Name.Local {
	case "field":
		if err := d.Skip(); err != nil {
			return xmlMember{}, err
		}
		return xmlMember{Kind: memberField, Name: name, Required: required}, nil
	case "component":
		if err := d.Skip(); err != nil {
			return xmlMember{}, err
		}
		return xmlMember{Kind: memberComponent, Name: name, Required: required}, nil
	case "group":
		var grp xmlGroup
		grp.Name = name
		grp.Required = required
		if err := grp.Body.UnmarshalXML(d, start); err != nil {
			return xmlMember{}, err
		}
		return xmlMember{Kind: memberGroup, Name: name, Required: required, SubGroup: &grp}, nil
	default:
		if err := d.Skip(); err != nil {
			return xmlMember{}, err
		}
		return xmlMember{}, &SchemaError{Kind: ErrBadXML, Detail: "unexpected element " + start.Name.Local}
	}
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

type xmlGroup struct {
	Name     string
	Required bool
	Body     xmlComponent
}

type xmlNamedComponent struct {
	Name string       `xml:"name,attr"`
	Body xmlComponent `xml:",any"`
}

// UnmarshalXML is required because xmlComponent.UnmarshalXML consumes the
// start element itself (it needs it to find the matching end tag), so the
// embedded `Body xmlComponent` with a bare tag won't line up automatically.
func (nc *xmlNamedComponent) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	nc.Name = attr(start, "name")
	return nc.Body.UnmarshalXML(d, start)
}

type xmlMessage struct {
	Name    string `xml:"name,attr"`
	MsgType string `xml:"msgtype,attr"`
	MsgCat  string `xml:"msgcat,attr"`
	Body    xmlComponent
}

func (m *xmlMessage) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	m.Name = attr(start, "name")
	m.MsgType = attr(start, "msgtype")
	m.MsgCat = attr(start, "msgcat")
	return m.Body.UnmarshalXML(d, start)
}

// parseXML decodes a QuickFIX-format document, tolerating non-UTF-8
// encodings the way the teacher's decoder.parseDictionary does.
func parseXML(document string) (*xmlRoot, error) {
	dec := xml.NewDecoder(strings.NewReader(document))
	dec.CharsetReader = charset.NewReaderLabel

	var root xmlRoot
	if err := dec.Decode(&root); err != nil {
		return nil, &SchemaError{Kind: ErrBadXML, Detail: err.Error()}
	}
	return &root, nil
}
