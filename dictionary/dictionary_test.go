package dictionary

import "testing"

func TestFromVersion_AllEmbeddedVersionsLoad(t *testing.T) {
	for _, v := range AllVersions() {
		d, err := FromVersion(v)
		if err != nil {
			t.Fatalf("FromVersion(%s): %v", v, err)
		}
		if d.Version() != v {
			t.Fatalf("FromVersion(%s): got Version() = %s", v, d.Version())
		}
		if len(d.FieldNames()) == 0 {
			t.Fatalf("FromVersion(%s): no fields registered", v)
		}
		if _, ok := d.MessageByMsgType("0"); !ok {
			t.Fatalf("FromVersion(%s): Heartbeat (MsgType 0) not found", v)
		}
		if d.StandardHeader() == nil || d.StandardTrailer() == nil {
			t.Fatalf("FromVersion(%s): missing StandardHeader/StandardTrailer", v)
		}
	}
}

func TestFromVersion_UnknownVersion(t *testing.T) {
	if _, err := FromVersion(VersionUnknown); err == nil {
		t.Fatal("expected error for VersionUnknown")
	}
}

func TestFieldByTagAndName_RoundTrip(t *testing.T) {
	d, err := FromVersion(Fix44)
	if err != nil {
		t.Fatalf("FromVersion: %v", err)
	}

	byTag, ok := d.FieldByTag(55)
	if !ok || byTag.Name != "Symbol" {
		t.Fatalf("FieldByTag(55) = %+v, %v", byTag, ok)
	}

	byName, ok := d.FieldByName("Symbol")
	if !ok || byName.Tag != 55 {
		t.Fatalf("FieldByName(\"Symbol\") = %+v, %v", byName, ok)
	}

	if byTag != byName {
		t.Fatalf("FieldByTag and FieldByName returned different defs for the same field")
	}
}

func TestFieldEnums(t *testing.T) {
	d, err := FromVersion(Fix44)
	if err != nil {
		t.Fatalf("FromVersion: %v", err)
	}

	side, ok := d.FieldByName("Side")
	if !ok {
		t.Fatal("Side field not found")
	}
	desc, ok := side.EnumDescription("1")
	if !ok || desc != "BUY" {
		t.Fatalf("Side enum 1 = %q, %v, want BUY", desc, ok)
	}
}

func TestMarketDataSnapshotFullRefresh_HasRepeatingGroup(t *testing.T) {
	d, err := FromVersion(Fix44)
	if err != nil {
		t.Fatalf("FromVersion: %v", err)
	}

	msg, ok := d.MessageByMsgType("W")
	if !ok {
		t.Fatal("MarketDataSnapshotFullRefresh (MsgType W) not found")
	}

	var found *GroupDef
	for _, m := range msg.Members {
		if m.Kind == MemberGroup {
			found = d.GroupDefAt(m.GroupIdx)
		}
	}
	if found == nil {
		t.Fatal("expected a repeating group member on MarketDataSnapshotFullRefresh")
	}
	if found.Name != "NoMDEntries" {
		t.Fatalf("group name = %q, want NoMDEntries", found.Name)
	}
	if found.DelimiterTag == 0 {
		t.Fatal("expected a non-zero delimiter tag")
	}
	wantTag, _ := d.FieldByName("MDEntryType")
	if found.DelimiterTag != wantTag.Tag {
		t.Fatalf("delimiter tag = %d, want %d (MDEntryType)", found.DelimiterTag, wantTag.Tag)
	}
}

func TestBuildDictionary_DuplicateTag(t *testing.T) {
	doc := `<?xml version="1.0"?>
<fix type="FIX" major="4" minor="4">
  <header><field name="BeginString" required="Y"/></header>
  <trailer><field name="CheckSum" required="Y"/></trailer>
  <messages></messages>
  <fields>
    <field number="8" name="BeginString" type="STRING"/>
    <field number="8" name="Duplicate" type="STRING"/>
    <field number="10" name="CheckSum" type="STRING"/>
  </fields>
</fix>`
	_, err := Parse(doc, Fix44)
	if err == nil {
		t.Fatal("expected duplicate tag error")
	}
}

func TestBuildDictionary_UnknownType(t *testing.T) {
	doc := `<?xml version="1.0"?>
<fix type="FIX" major="4" minor="4">
  <header><field name="BeginString" required="Y"/></header>
  <trailer><field name="CheckSum" required="Y"/></trailer>
  <messages></messages>
  <fields>
    <field number="8" name="BeginString" type="STRING"/>
    <field number="9999" name="Bogus" type="NOT_A_TYPE"/>
    <field number="10" name="CheckSum" type="STRING"/>
  </fields>
</fix>`
	_, err := Parse(doc, Fix44)
	if err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestBuildDictionary_UnknownReference(t *testing.T) {
	doc := `<?xml version="1.0"?>
<fix type="FIX" major="4" minor="4">
  <header><field name="BeginString" required="Y"/></header>
  <trailer><field name="CheckSum" required="Y"/></trailer>
  <messages>
    <message name="Heartbeat" msgtype="0" msgcat="admin">
      <field name="DoesNotExist" required="N"/>
    </message>
  </messages>
  <fields>
    <field number="8" name="BeginString" type="STRING"/>
    <field number="10" name="CheckSum" type="STRING"/>
  </fields>
</fix>`
	_, err := Parse(doc, Fix44)
	if err == nil {
		t.Fatal("expected unknown reference error")
	}
}

func TestVersionByBeginString(t *testing.T) {
	v, err := VersionByBeginString("FIX.4.4")
	if err != nil || v != Fix44 {
		t.Fatalf("VersionByBeginString(FIX.4.4) = %v, %v", v, err)
	}
	if _, err := VersionByBeginString("FIX.9.9"); err == nil {
		t.Fatal("expected error for unknown BeginString")
	}
}
