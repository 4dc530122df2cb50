package fast

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// PrimitiveType is FAST's closed set of wire primitives (spec §4.6 table).
type PrimitiveType int

const (
	Ascii PrimitiveType = iota
	UInt32
	SInt32
	UInt64
	SInt64
	Decimal
	Bytes
)

// tagToPrimitive maps a `<sequence>` child element name to its primitive
// type. `byteVector` maps to Bytes, not Decimal — the original codebase's
// mapping looks like a copy-paste typo (spec's own Open Question
// resolution); `length` is UInt32 like `uInt32`.
var tagToPrimitive = map[string]PrimitiveType{
	"string":     Ascii,
	"uInt32":     UInt32,
	"length":     UInt32,
	"int32":      SInt32,
	"uInt64":     UInt64,
	"int64":      SInt64,
	"decimal":    Decimal,
	"byteVector": Bytes,
}

// FieldKind distinguishes a flat primitive field instruction from a nested
// repeating group.
type FieldKind int

const (
	KindPrimitive FieldKind = iota
	KindGroup
)

// Operator is the per-field operator declared for a FieldInstruction (spec
// §4.6: Constant, Default, Copy, Increment, Delta, Tail — this module
// implements the first four plus Reset; Delta and Tail are not supported,
// and the loader rejects them as unknown operators).
type Operator int

const (
	OpNone Operator = iota
	OpConstant
	OpDefault
	OpCopy
	OpIncrement
)

var operatorNames = map[string]Operator{
	"":          OpNone,
	"constant":  OpConstant,
	"default":   OpDefault,
	"copy":      OpCopy,
	"increment": OpIncrement,
}

// FieldInstruction is one declared field of a Template's sequence.
type FieldInstruction struct {
	Name      string
	ID        uint32
	Mandatory bool
	Kind      FieldKind

	// Primitive is meaningful when Kind == KindPrimitive.
	Primitive PrimitiveType

	// GroupTemplateID is meaningful when Kind == KindGroup. Group field
	// instructions are represented for schema completeness but are not
	// recursively decoded/encoded by this module.
	GroupTemplateID uint32

	Operator Operator

	// ConstantValue backs the Constant and Default operators: for
	// Constant, the one value the field is always assumed to carry; for
	// Default, the value used when the field is absent from the wire.
	ConstantValue string
}

// Template owns an ordered list of FieldInstructions plus an optional
// numeric template id (HasID false means the template declared none). This
// package has no FAST wire decoder or encoder that selects templates by id;
// Stream only resolves and applies operator values per field.
type Template struct {
	Name         string
	ID           uint32
	HasID        bool
	Instructions []FieldInstruction
}

type xmlInstruction struct {
	tag       string
	name      string
	id        string
	presence  string
	operator  string
	value     string
	isGroup   bool
	groupID   string
}

type xmlSequence struct {
	instructions []xmlInstruction
}

func (s *xmlSequence) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "sequence" {
				instr := xmlInstruction{
					tag:     "sequence",
					name:    xmlAttr(t, "name"),
					groupID: xmlAttr(t, "id"),
					isGroup: true,
				}
				if err := d.Skip(); err != nil {
					return err
				}
				s.instructions = append(s.instructions, instr)
				continue
			}
			instr := xmlInstruction{
				tag:      t.Name.Local,
				name:     xmlAttr(t, "name"),
				id:       xmlAttr(t, "id"),
				presence: xmlAttr(t, "presence"),
				operator: xmlAttr(t, "operator"),
				value:    xmlAttr(t, "value"),
			}
			if err := d.Skip(); err != nil {
				return err
			}
			s.instructions = append(s.instructions, instr)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

func xmlAttr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

type xmlTemplate struct {
	Name     string      `xml:"name,attr"`
	ID       string      `xml:"id,attr"`
	Sequence xmlSequence `xml:"sequence"`
}

type xmlTemplates struct {
	XMLName   xml.Name      `xml:"templates"`
	Templates []xmlTemplate `xml:"template"`
}

// TemplateOption configures ParseTemplates.
type TemplateOption func(*templateConfig)

type templateConfig struct {
	logger zerolog.Logger
}

// WithLogger attaches a zerolog.Logger that receives a schema-load summary
// (template/instruction counts) once ParseTemplates succeeds.
func WithLogger(l zerolog.Logger) TemplateOption {
	return func(c *templateConfig) { c.logger = l }
}

// ParseTemplates loads a `<templates>` document into a list of Templates,
// one per `<template>` element.
func ParseTemplates(document string, opts ...TemplateOption) ([]*Template, error) {
	cfg := &templateConfig{}
	for _, o := range opts {
		o(cfg)
	}

	dec := xml.NewDecoder(strings.NewReader(document))

	var root xmlTemplates
	if err := dec.Decode(&root); err != nil {
		return nil, &StaticError{Kind: StaticErrSchema, Detail: err.Error()}
	}

	templates := make([]*Template, 0, len(root.Templates))
	instructions := 0
	for _, xt := range root.Templates {
		tmpl, err := buildTemplate(xt)
		if err != nil {
			return nil, err
		}
		instructions += len(tmpl.Instructions)
		templates = append(templates, tmpl)
	}

	cfg.logger.Debug().Int("templates", len(templates)).Int("instructions", instructions).Msg("fast: templates loaded")

	return templates, nil
}

func buildTemplate(xt xmlTemplate) (*Template, error) {
	tmpl := &Template{Name: xt.Name}
	if xt.ID != "" {
		id, err := strconv.ParseUint(xt.ID, 10, 32)
		if err != nil {
			return nil, &StaticError{Kind: StaticErrSchema, Detail: "template " + xt.Name + ": non-numeric id " + xt.ID}
		}
		tmpl.ID = uint32(id)
		tmpl.HasID = true
	}

	for _, xi := range xt.Sequence.instructions {
		instr, err := buildInstruction(xi)
		if err != nil {
			return nil, err
		}
		tmpl.Instructions = append(tmpl.Instructions, instr)
	}
	return tmpl, nil
}

func buildInstruction(xi xmlInstruction) (FieldInstruction, error) {
	if xi.isGroup {
		var groupID uint64
		if xi.groupID != "" {
			id, err := strconv.ParseUint(xi.groupID, 10, 32)
			if err != nil {
				return FieldInstruction{}, &StaticError{Kind: StaticErrSchema, Detail: "nested sequence " + xi.name + ": non-numeric id " + xi.groupID}
			}
			groupID = id
		}
		return FieldInstruction{
			Name:            xi.name,
			Kind:            KindGroup,
			GroupTemplateID: uint32(groupID),
			Mandatory:       true,
		}, nil
	}

	prim, ok := tagToPrimitive[xi.tag]
	if !ok {
		return FieldInstruction{}, &StaticError{Kind: StaticErrSchema, Detail: "unknown element " + xi.tag}
	}
	if xi.name == "" {
		return FieldInstruction{}, &StaticError{Kind: StaticErrSchema, Detail: "field instruction missing required attribute name"}
	}
	if xi.id == "" {
		return FieldInstruction{}, &StaticError{Kind: StaticErrSchema, Detail: "field instruction " + xi.name + " missing required attribute id"}
	}
	id, err := strconv.ParseUint(xi.id, 10, 32)
	if err != nil {
		return FieldInstruction{}, &StaticError{Kind: StaticErrSchema, Detail: "field instruction " + xi.name + ": non-numeric id " + xi.id}
	}

	op, ok := operatorNames[xi.operator]
	if !ok {
		return FieldInstruction{}, &StaticError{Kind: StaticErrSchema, Detail: "field instruction " + xi.name + ": unknown operator " + xi.operator}
	}

	return FieldInstruction{
		Name:          xi.name,
		ID:            uint32(id),
		Mandatory:     xi.presence != "false",
		Kind:          KindPrimitive,
		Primitive:     prim,
		Operator:      op,
		ConstantValue: xi.value,
	}, nil
}
