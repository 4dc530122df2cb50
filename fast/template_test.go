package fast

import "testing"

// firstInstructionTemplate matches spec §8 scenario 6: "the example
// template whose first <string name="BeginString" id="8"/> instruction is
// present yields a Template with instructions[0].name() == "BeginString",
// id() == 8, and kind() == Primitive(Ascii)".
const firstInstructionTemplate = `<?xml version="1.0"?>
<templates>
  <template name="Heartbeat" id="1">
    <sequence>
      <string name="BeginString" id="8"/>
      <uInt32 name="BodyLength" id="9"/>
      <string name="MsgType" id="35" presence="false"/>
      <uInt32 name="MsgSeqNum" id="34" operator="increment"/>
    </sequence>
  </template>
</templates>`

func TestParseTemplates_FirstFieldInstruction(t *testing.T) {
	templates, err := ParseTemplates(firstInstructionTemplate)
	if err != nil {
		t.Fatalf("ParseTemplates: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("len(templates) = %d, want 1", len(templates))
	}

	tmpl := templates[0]
	if !tmpl.HasID || tmpl.ID != 1 {
		t.Fatalf("template id = %v, %v, want true, 1", tmpl.HasID, tmpl.ID)
	}
	if len(tmpl.Instructions) != 4 {
		t.Fatalf("len(instructions) = %d, want 4", len(tmpl.Instructions))
	}

	first := tmpl.Instructions[0]
	if first.Name != "BeginString" {
		t.Fatalf("instructions[0].Name = %q, want BeginString", first.Name)
	}
	if first.ID != 8 {
		t.Fatalf("instructions[0].ID = %d, want 8", first.ID)
	}
	if first.Kind != KindPrimitive || first.Primitive != Ascii {
		t.Fatalf("instructions[0].Kind/Primitive = %v/%v, want Primitive/Ascii", first.Kind, first.Primitive)
	}
	if !first.Mandatory {
		t.Fatal("instructions[0] should default to mandatory")
	}
}

func TestParseTemplates_OptionalPresence(t *testing.T) {
	templates, err := ParseTemplates(firstInstructionTemplate)
	if err != nil {
		t.Fatalf("ParseTemplates: %v", err)
	}
	msgType := templates[0].Instructions[2]
	if msgType.Mandatory {
		t.Fatal("MsgType has presence=\"false\" and should not be mandatory")
	}
}

func TestParseTemplates_UnknownElement(t *testing.T) {
	doc := `<?xml version="1.0"?>
<templates>
  <template name="Bad" id="1">
    <sequence>
      <notAType name="X" id="1"/>
    </sequence>
  </template>
</templates>`
	_, err := ParseTemplates(doc)
	if err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestParseTemplates_NestedSequenceIsGroup(t *testing.T) {
	doc := `<?xml version="1.0"?>
<templates>
  <template name="WithGroup" id="2">
    <sequence>
      <string name="BeginString" id="8"/>
      <sequence name="NoMDEntries" id="268">
        <string name="MDEntryType" id="269"/>
      </sequence>
    </sequence>
  </template>
</templates>`
	templates, err := ParseTemplates(doc)
	if err != nil {
		t.Fatalf("ParseTemplates: %v", err)
	}
	grp := templates[0].Instructions[1]
	if grp.Kind != KindGroup {
		t.Fatalf("Kind = %v, want KindGroup", grp.Kind)
	}
	if grp.Name != "NoMDEntries" {
		t.Fatalf("Name = %q, want NoMDEntries", grp.Name)
	}
}

func TestStream_CopyOperator(t *testing.T) {
	instr := FieldInstruction{Name: "Price", ID: 44, Kind: KindPrimitive, Primitive: Decimal, Operator: OpCopy}
	s := NewStream()

	if _, err := s.Resolve(instr, false, PrimitiveValue{}); err == nil {
		t.Fatal("expected underflow error on first use of copy with no transmitted value")
	}

	v, err := s.Resolve(instr, true, DecimalValue(100.5))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Decimal() != 100.5 {
		t.Fatalf("got %v, want 100.5", v.Decimal())
	}

	v2, err := s.Resolve(instr, false, PrimitiveValue{})
	if err != nil {
		t.Fatalf("Resolve (copy-forward): %v", err)
	}
	if v2.Decimal() != 100.5 {
		t.Fatalf("copy-forward got %v, want 100.5", v2.Decimal())
	}
}

func TestStream_IncrementOperator(t *testing.T) {
	instr := FieldInstruction{Name: "MsgSeqNum", ID: 34, Kind: KindPrimitive, Primitive: UInt32, Operator: OpIncrement}
	s := NewStream()

	v1, err := s.Resolve(instr, true, UInt32Value(1))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v1.UInt32() != 1 {
		t.Fatalf("got %d, want 1", v1.UInt32())
	}

	v2, err := s.Resolve(instr, false, PrimitiveValue{})
	if err != nil {
		t.Fatalf("Resolve (increment): %v", err)
	}
	if v2.UInt32() != 2 {
		t.Fatalf("got %d, want 2", v2.UInt32())
	}
}

func TestStream_Reset(t *testing.T) {
	instr := FieldInstruction{Name: "MsgSeqNum", ID: 34, Kind: KindPrimitive, Primitive: UInt32, Operator: OpCopy}
	s := NewStream()
	if _, err := s.Resolve(instr, true, UInt32Value(5)); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	s.Reset()
	if _, err := s.Resolve(instr, false, PrimitiveValue{}); err == nil {
		t.Fatal("expected underflow after Reset cleared prior state")
	}
}

func TestStream_ApplyCopySkipsRedundantTransmission(t *testing.T) {
	instr := FieldInstruction{Name: "Symbol", ID: 55, Kind: KindPrimitive, Primitive: Ascii, Operator: OpCopy}
	s := NewStream()

	transmitted, err := s.Apply(instr, AsciiValue("EUR/USD"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !transmitted {
		t.Fatal("first occurrence should transmit")
	}

	transmitted2, err := s.Apply(instr, AsciiValue("EUR/USD"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if transmitted2 {
		t.Fatal("repeated identical value under copy operator should not transmit")
	}
}

func TestStream_ApplyConstantRejectsMismatch(t *testing.T) {
	instr := FieldInstruction{Name: "BeginString", ID: 8, Kind: KindPrimitive, Primitive: Ascii, Operator: OpConstant, ConstantValue: "FIX.4.2"}
	s := NewStream()

	if _, err := s.Apply(instr, AsciiValue("FIX.4.2")); err != nil {
		t.Fatalf("Apply with matching constant: %v", err)
	}
	if _, err := s.Apply(instr, AsciiValue("FIX.4.4")); err == nil {
		t.Fatal("expected overflow error for value contradicting constant operator")
	}
}
