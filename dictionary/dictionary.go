package dictionary

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// EnumValue is one allowed code for an enumerated FieldDef.
type EnumValue struct {
	Code        string
	Description string
}

// FieldDef describes a single FIX tag.
type FieldDef struct {
	Tag   uint32
	Name  string
	Type  FieldType
	Enums []EnumValue
}

// EnumDescription looks up the human-readable description for a code, if
// this field declares one.
func (f *FieldDef) EnumDescription(code string) (string, bool) {
	for _, e := range f.Enums {
		if e.Code == code {
			return e.Description, true
		}
	}
	return "", false
}

// MemberKind distinguishes what a Member references.
type MemberKind int

const (
	MemberField MemberKind = iota
	MemberComponent
	MemberGroup
)

// Member is one entry in a ComponentDef/MessageDef/GroupDef's ordered
// member list. Exactly one of the index fields is meaningful, selected by
// Kind — arena indices, not pointers, per the Design Notes (§9) strategy.
type Member struct {
	Kind         MemberKind
	Required     bool
	FieldIdx     int
	ComponentIdx int
	GroupIdx     int
}

// ComponentDef is a reusable named member list.
type ComponentDef struct {
	Name    string
	Members []Member

	// fieldSet is the transitive closure of field tags reachable from
	// this component, precomputed once at build time so ContainsField is
	// O(1) instead of re-walking the member tree on every call.
	fieldSet map[uint32]struct{}
}

// ContainsField reports whether tag is reachable transitively from this
// component (through nested components and repeating groups).
func (c *ComponentDef) ContainsField(tag uint32) bool {
	_, ok := c.fieldSet[tag]
	return ok
}

// GroupDef is a repeating group: a NumInGroup counter field plus the
// member list of each repeated sub-block.
type GroupDef struct {
	Name         string
	Required     bool
	CounterTag   uint32
	DelimiterTag uint32
	Members      []Member

	// fieldSet is the transitive closure of field tags reachable from one
	// repetition of this group, precomputed at build time — the tag-value
	// codec uses it to decide where a sub-block ends (spec §4.4 rule 6:
	// "continues until a tag is seen that is not in the group's member set").
	fieldSet map[uint32]struct{}
}

// ContainsField reports whether tag is reachable transitively from one
// repetition of this group.
func (g *GroupDef) ContainsField(tag uint32) bool {
	_, ok := g.fieldSet[tag]
	return ok
}

// MessageDef describes a single FIX message type.
type MessageDef struct {
	MsgType string
	Name    string
	MsgCat  string
	Members []Member
}

// Dictionary is the immutable, arena-indexed schema for one FIX/FIXT
// version. Every lookup is O(1) average via the tag/name/msgtype indices
// built once at construction; there is no interior mutation afterwards, so
// a *Dictionary is safe to share by pointer across goroutines.
type Dictionary struct {
	version Version

	fields     []FieldDef
	components []ComponentDef
	groups     []GroupDef
	messages   []MessageDef

	fieldByTag     map[uint32]int
	fieldByName    map[string]int
	compByName     map[string]int
	msgByType      map[string]int
	groupByCounter map[uint32]int
}

func (d *Dictionary) Version() Version { return d.version }

// FieldByTag returns the field definition for tag, if known.
func (d *Dictionary) FieldByTag(tag uint32) (*FieldDef, bool) {
	idx, ok := d.fieldByTag[tag]
	if !ok {
		return nil, false
	}
	return &d.fields[idx], true
}

// FieldByName returns the field definition for name, if known.
func (d *Dictionary) FieldByName(name string) (*FieldDef, bool) {
	idx, ok := d.fieldByName[name]
	if !ok {
		return nil, false
	}
	return &d.fields[idx], true
}

// MessageByMsgType returns the message definition for a MsgType (tag 35)
// code, if known.
func (d *Dictionary) MessageByMsgType(msgType string) (*MessageDef, bool) {
	idx, ok := d.msgByType[msgType]
	if !ok {
		return nil, false
	}
	return &d.messages[idx], true
}

// ComponentByName returns a component definition, including the two
// mandatory pseudo-components "StandardHeader" and "StandardTrailer".
func (d *Dictionary) ComponentByName(name string) (*ComponentDef, bool) {
	idx, ok := d.compByName[name]
	if !ok {
		return nil, false
	}
	return &d.components[idx], true
}

// GroupDefAt returns the repeating-group definition stored at idx in this
// Dictionary's group arena, as referenced by a Member of Kind MemberGroup.
func (d *Dictionary) GroupDefAt(idx int) *GroupDef { return &d.groups[idx] }

// GroupByCounterTag returns the repeating-group definition whose NumInGroup
// counter field is tag. The tag-value codec uses this to recognize a group
// boundary while scanning a flat token stream, where it only has the
// counter tag in hand, not the Member that declared it.
func (d *Dictionary) GroupByCounterTag(tag uint32) (*GroupDef, bool) {
	idx, ok := d.groupByCounter[tag]
	if !ok {
		return nil, false
	}
	return &d.groups[idx], true
}

// ComponentDefAt returns the component definition at idx, as referenced by
// a Member of Kind MemberComponent.
func (d *Dictionary) ComponentDefAt(idx int) *ComponentDef { return &d.components[idx] }

// FieldDefAt returns the field definition at idx, as referenced by a
// Member of Kind MemberField.
func (d *Dictionary) FieldDefAt(idx int) *FieldDef { return &d.fields[idx] }

// StandardHeader is a convenience for ComponentByName("StandardHeader").
func (d *Dictionary) StandardHeader() *ComponentDef {
	c, _ := d.ComponentByName("StandardHeader")
	return c
}

// StandardTrailer is a convenience for ComponentByName("StandardTrailer").
func (d *Dictionary) StandardTrailer() *ComponentDef {
	c, _ := d.ComponentByName("StandardTrailer")
	return c
}

// builder accumulates the arenas and the lazily-resolved component cache
// while a single XML document is being folded into a Dictionary.
type builder struct {
	dict *Dictionary

	rawComponents map[string]xmlNamedComponent
	building      map[string]bool // cycle guard
	errs          error
}

// BuildDictionary folds a parsed QuickFIX XML document into a Dictionary,
// accumulating every problem found (duplicate tags/names, unresolved
// references, unknown types) via multierr instead of stopping at the
// first one.
func BuildDictionary(version Version, root *xmlRoot) (*Dictionary, error) {
	d := &Dictionary{
		version:        version,
		fieldByTag:     make(map[uint32]int),
		fieldByName:    make(map[string]int),
		compByName:     make(map[string]int),
		msgByType:      make(map[string]int),
		groupByCounter: make(map[uint32]int),
	}
	b := &builder{
		dict:          d,
		rawComponents: make(map[string]xmlNamedComponent, len(root.Components)),
		building:      make(map[string]bool),
	}

	// Pass 1: register every <field>, including its enum set.
	for _, f := range root.Fields {
		b.registerField(f)
	}

	for _, c := range root.Components {
		b.rawComponents[c.Name] = c
	}

	// Pass 2: components and messages, resolving references eagerly
	// against the pass-1 field index (and, recursively, other components).
	for _, c := range root.Components {
		if _, err := b.resolveComponent(c.Name); err != nil {
			b.errs = multierr.Append(b.errs, err)
		}
	}

	headerIdx := b.registerPseudoComponent("StandardHeader", root.Header)
	trailerIdx := b.registerPseudoComponent("StandardTrailer", root.Trailer)

	for _, m := range root.Messages {
		b.registerMessage(m)
	}

	if b.errs != nil {
		return nil, b.errs
	}

	if headerIdx < 0 || trailerIdx < 0 {
		return nil, &SchemaError{Kind: ErrMissingAttribute, Detail: "header/trailer"}
	}

	return d, nil
}

func (b *builder) registerField(f xmlField) {
	tag := uint32(f.Number)
	ft, err := parseFieldType(f.Type)
	if err != nil {
		b.errs = multierr.Append(b.errs, err)
		ft = TypeUnknown
	}

	if _, dup := b.dict.fieldByTag[tag]; dup {
		b.errs = multierr.Append(b.errs, &SchemaError{Kind: ErrDuplicateTag, Detail: fmt.Sprintf("%d", tag)})
		return
	}
	if _, dup := b.dict.fieldByName[f.Name]; dup {
		b.errs = multierr.Append(b.errs, &SchemaError{Kind: ErrDuplicateName, Detail: f.Name})
		return
	}

	def := FieldDef{Tag: tag, Name: f.Name, Type: ft}
	for _, v := range f.Values {
		def.Enums = append(def.Enums, EnumValue{Code: v.Enum, Description: v.Description})
	}

	idx := len(b.dict.fields)
	b.dict.fields = append(b.dict.fields, def)
	b.dict.fieldByTag[tag] = idx
	b.dict.fieldByName[f.Name] = idx
}

// resolveComponent lazily builds (and memoizes) the ComponentDef for name,
// resolving sub-component references as they're encountered. QuickFIX XML
// does not guarantee component declaration order, so this can recurse
// forward into not-yet-built components.
func (b *builder) resolveComponent(name string) (int, error) {
	if idx, ok := b.dict.compByName[name]; ok {
		return idx, nil
	}
	if b.building[name] {
		return -1, &SchemaError{Kind: ErrUnknownReference, Detail: name + " (cyclic component reference)"}
	}
	raw, ok := b.rawComponents[name]
	if !ok {
		return -1, &SchemaError{Kind: ErrUnknownReference, Detail: name}
	}

	b.building[name] = true
	members, err := b.resolveMembers(raw.Body.Members)
	delete(b.building, name)
	if err != nil {
		return -1, err
	}

	idx := len(b.dict.components)
	comp := ComponentDef{Name: name, Members: members}
	comp.fieldSet = b.transitiveFields(members)
	b.dict.components = append(b.dict.components, comp)
	b.dict.compByName[name] = idx
	return idx, nil
}

func (b *builder) registerPseudoComponent(name string, body xmlComponent) int {
	members, err := b.resolveMembers(body.Members)
	if err != nil {
		b.errs = multierr.Append(b.errs, err)
		return -1
	}
	idx := len(b.dict.components)
	comp := ComponentDef{Name: name, Members: members}
	comp.fieldSet = b.transitiveFields(members)
	b.dict.components = append(b.dict.components, comp)
	b.dict.compByName[name] = idx
	return idx
}

func (b *builder) resolveMembers(raw []xmlMember) ([]Member, error) {
	members := make([]Member, 0, len(raw))
	var errs error

	for _, rm := range raw {
		switch rm.Kind {
		case memberField:
			idx, ok := b.dict.fieldByName[rm.Name]
			if !ok {
				errs = multierr.Append(errs, &SchemaError{Kind: ErrUnknownReference, Detail: rm.Name})
				continue
			}
			members = append(members, Member{Kind: MemberField, Required: rm.Required, FieldIdx: idx})
		case memberComponent:
			idx, err := b.resolveComponent(rm.Name)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			members = append(members, Member{Kind: MemberComponent, Required: rm.Required, ComponentIdx: idx})
		case memberGroup:
			idx, err := b.resolveGroup(rm)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			members = append(members, Member{Kind: MemberGroup, Required: rm.Required, GroupIdx: idx})
		}
	}

	if errs != nil {
		return nil, errs
	}
	return members, nil
}

func (b *builder) resolveGroup(rm xmlMember) (int, error) {
	counterIdx, ok := b.dict.fieldByName[rm.Name]
	if !ok {
		return -1, &SchemaError{Kind: ErrUnknownReference, Detail: rm.Name}
	}
	counter := b.dict.fields[counterIdx]
	if counter.Type != TypeNumInGroup {
		return -1, &SchemaError{Kind: ErrBadXML, Detail: rm.Name + " is not a NumInGroup field"}
	}

	var rawMembers []xmlMember
	if rm.SubGroup != nil {
		rawMembers = rm.SubGroup.Body.Members
	}
	if len(rawMembers) == 0 {
		return -1, &SchemaError{Kind: ErrBadXML, Detail: "group " + rm.Name + " has no members"}
	}

	members, err := b.resolveMembers(rawMembers)
	if err != nil {
		return -1, err
	}

	// Delimiter = first field of the declared group body (QuickFIX
	// convention) — spec §9's "known source of schema-author errors".
	delimiter, err := firstFieldTag(b.dict, members)
	if err != nil {
		return -1, err
	}

	idx := len(b.dict.groups)
	b.dict.groups = append(b.dict.groups, GroupDef{
		Name:         rm.Name,
		Required:     rm.Required,
		CounterTag:   counter.Tag,
		DelimiterTag: delimiter,
		Members:      members,
		fieldSet:     b.transitiveFields(members),
	})
	b.dict.groupByCounter[counter.Tag] = idx
	return idx, nil
}

// firstFieldTag finds the tag of the first direct field member, descending
// into a leading component if the group's first member is a component
// rather than a bare field (common in FIX 5.0+ schemas).
func firstFieldTag(d *Dictionary, members []Member) (uint32, error) {
	for _, m := range members {
		switch m.Kind {
		case MemberField:
			return d.fields[m.FieldIdx].Tag, nil
		case MemberComponent:
			if tag, err := firstFieldTag(d, d.components[m.ComponentIdx].Members); err == nil {
				return tag, nil
			}
		}
	}
	return 0, &SchemaError{Kind: ErrBadXML, Detail: "group has no discoverable delimiter field"}
}

func (b *builder) transitiveFields(members []Member) map[uint32]struct{} {
	set := make(map[uint32]struct{})
	var walk func([]Member)
	walk = func(ms []Member) {
		for _, m := range ms {
			switch m.Kind {
			case MemberField:
				set[b.dict.fields[m.FieldIdx].Tag] = struct{}{}
			case MemberComponent:
				walk(b.dict.components[m.ComponentIdx].Members)
			case MemberGroup:
				grp := b.dict.groups[m.GroupIdx]
				set[grp.CounterTag] = struct{}{}
				walk(grp.Members)
			}
		}
	}
	walk(members)
	return set
}

func (b *builder) registerMessage(m xmlMessage) {
	members, err := b.resolveMembers(m.Body.Members)
	if err != nil {
		b.errs = multierr.Append(b.errs, err)
		return
	}
	if _, dup := b.dict.msgByType[m.MsgType]; dup {
		b.errs = multierr.Append(b.errs, &SchemaError{Kind: ErrDuplicateName, Detail: "message " + m.MsgType})
		return
	}

	idx := len(b.dict.messages)
	b.dict.messages = append(b.dict.messages, MessageDef{
		MsgType: m.MsgType,
		Name:    m.Name,
		MsgCat:  m.MsgCat,
		Members: members,
	})
	b.dict.msgByType[m.MsgType] = idx
}

// FieldNames returns every declared field name, sorted, for diagnostics and
// tests.
func (d *Dictionary) FieldNames() []string {
	names := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}
