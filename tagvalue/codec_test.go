package tagvalue

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/edgewater-trading/gofix/dictionary"
	"github.com/edgewater-trading/gofix/fix"
	"github.com/edgewater-trading/gofix/message"
)

// helloWorldHeartbeat is the scenario from spec §8: a minimal FIX 4.2
// Heartbeat, SOH-delimited on the wire, '|' here for readability — matches
// the fixture used by the original ferrum-fix web_json_to_tagvalue example.
const helloWorldHeartbeat = "8=FIX.4.2|9=42|35=0|49=A|56=B|34=12|52=20100304-07:59:30|10=185|"

func wire(s string) []byte {
	return []byte(strings.ReplaceAll(s, "|", "\x01"))
}

func TestDecode_HelloWorldHeartbeat(t *testing.T) {
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	msg, err := dec.Decode(wire(helloWorldHeartbeat))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if v, _ := msg.Get(35); v.AsAtom().StringValue() != "0" {
		t.Fatalf("MsgType = %q, want 0", v.AsAtom().StringValue())
	}
	if v, _ := msg.Get(49); v.AsAtom().StringValue() != "A" {
		t.Fatalf("SenderCompID = %q, want A", v.AsAtom().StringValue())
	}
	if v, _ := msg.Get(34); v.AsAtom().IntValue() != 12 {
		t.Fatalf("MsgSeqNum = %d, want 12", v.AsAtom().IntValue())
	}
}

func TestDecode_MutatedChecksumFails(t *testing.T) {
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	mutated := strings.Replace(helloWorldHeartbeat, "10=185", "10=186", 1)

	_, err = dec.Decode(wire(mutated))
	if err == nil {
		t.Fatal("expected checksum error")
	}
	fixErr, ok := err.(*Error)
	if !ok || fixErr.Kind != ErrBadChecksum {
		t.Fatalf("got %v, want ErrBadChecksum", err)
	}
}

func TestDecode_BadBodyLength(t *testing.T) {
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	mutated := strings.Replace(helloWorldHeartbeat, "9=42", "9=99", 1)

	_, err = dec.Decode(wire(mutated))
	if err == nil {
		t.Fatal("expected body length error")
	}
	fixErr, ok := err.(*Error)
	if !ok || fixErr.Kind != ErrBadBodyLength {
		t.Fatalf("got %v, want ErrBadBodyLength", err)
	}
}

func TestDecode_UnknownBeginString(t *testing.T) {
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	mutated := strings.Replace(helloWorldHeartbeat, "FIX.4.2", "FIX.9.9", 1)
	// The new BeginString also invalidates the checksum, but BeginString is
	// checked first so the version lookup failure surfaces.
	_, err = dec.Decode(wire(mutated))
	if err == nil {
		t.Fatal("expected unknown BeginString error")
	}
	fixErr, ok := err.(*Error)
	if !ok || fixErr.Kind != ErrUnknownBeginString {
		t.Fatalf("got %v, want ErrUnknownBeginString", err)
	}
}

func TestDecode_UnknownTag(t *testing.T) {
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	raw := "8=FIX.4.2|9=8|99999=X|10=129|"
	_, err = dec.Decode(wire(raw))
	if err == nil {
		t.Fatal("expected unknown tag error")
	}
	fixErr, ok := err.(*Error)
	if !ok || fixErr.Kind != ErrUnknownTag {
		t.Fatalf("got %v, want ErrUnknownTag", err)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	enc, err := NewEncoder(WithSeparator('|'))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	dec, err := NewDecoder(WithSeparator('|'))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	msg := message.New()
	msg.Set(8, message.Atom(message.String("FIX.4.2")))
	msg.Set(35, message.Atom(message.String("0")))
	msg.Set(49, message.Atom(message.String("SENDER")))
	msg.Set(56, message.Atom(message.String("TARGET")))
	msg.Set(34, message.Atom(message.Int(7)))
	msg.Set(52, message.Atom(message.String("20260730-12:00:00")))

	raw, err := enc.Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := dec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode(encoded): %v\nraw=%s", err, raw)
	}

	if v, _ := decoded.Get(49); v.AsAtom().StringValue() != "SENDER" {
		t.Fatalf("SenderCompID round-trip = %q", v.AsAtom().StringValue())
	}
	if v, _ := decoded.Get(34); v.AsAtom().IntValue() != 7 {
		t.Fatalf("MsgSeqNum round-trip = %d", v.AsAtom().IntValue())
	}
}

// TestEncode_HelloWorldHeartbeat_DeclaredOrder pins the exact wire order
// from spec §8 scenario 1 (MsgType, SenderCompID, TargetCompID, MsgSeqNum,
// SendingTime — fix42.xml's declared <header> order), not tag-ascending
// order, even when the fields are Set out of order.
func TestEncode_HelloWorldHeartbeat_DeclaredOrder(t *testing.T) {
	enc, err := NewEncoder()
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	msg := message.New()
	msg.Set(8, message.Atom(message.String("FIX.4.2")))
	msg.Set(52, message.Atom(message.String("20100304-07:59:30")))
	msg.Set(34, message.Atom(message.Int(12)))
	msg.Set(56, message.Atom(message.String("B")))
	msg.Set(49, message.Atom(message.String("A")))
	msg.Set(35, message.Atom(message.String("0")))

	raw, err := enc.Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got, want := string(raw), string(wire(helloWorldHeartbeat)); got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}
}

func TestDecode_ObfuscatorRedactsTraceLog(t *testing.T) {
	dict, err := dictionary.FromVersion(dictionary.Fix42)
	if err != nil {
		t.Fatalf("FromVersion: %v", err)
	}
	obf := fix.NewObfuscator(dict, []uint32{49}, true)

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)

	dec, err := NewDecoder(WithLogger(logger), WithObfuscator(obf))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.Decode(wire(helloWorldHeartbeat)); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	logged := buf.String()
	if strings.Contains(logged, "49=A") {
		t.Fatalf("trace log leaked raw sensitive value: %s", logged)
	}
	if !strings.Contains(logged, "SenderCompID0001") {
		t.Fatalf("trace log missing obfuscated alias: %s", logged)
	}
}

func TestEncodeDecode_RepeatingGroup(t *testing.T) {
	enc, err := NewEncoder(WithSeparator('|'))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	dec, err := NewDecoder(WithSeparator('|'))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	entry1 := message.New()
	entry1.Set(269, message.Atom(message.String("0")))
	entry1.Set(270, message.Atom(message.Float(100.25)))
	entry1.Set(271, message.Atom(message.Float(10)))

	entry2 := message.New()
	entry2.Set(269, message.Atom(message.String("1")))
	entry2.Set(270, message.Atom(message.Float(100.5)))
	entry2.Set(271, message.Atom(message.Float(5)))

	msg := message.New()
	msg.Set(8, message.Atom(message.String("FIX.4.4")))
	msg.Set(35, message.Atom(message.String("W")))
	msg.Set(49, message.Atom(message.String("A")))
	msg.Set(56, message.Atom(message.String("B")))
	msg.Set(34, message.Atom(message.Int(1)))
	msg.Set(52, message.Atom(message.String("20260730-12:00:00")))
	msg.Set(268, message.Group([]*message.Message{entry1, entry2}))

	raw, err := enc.Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := dec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode(encoded): %v\nraw=%s", err, raw)
	}

	v, ok := decoded.Get(268)
	if !ok || !v.IsGroup() {
		t.Fatalf("NoMDEntries missing or not a group: %+v", v)
	}
	entries := v.AsGroup()
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	e0, _ := entries[0].Get(269)
	if e0.AsAtom().StringValue() != "0" {
		t.Fatalf("entry[0].MDEntryType = %q, want 0", e0.AsAtom().StringValue())
	}
	e1, _ := entries[1].Get(270)
	if e1.AsAtom().FloatValue() != 100.5 {
		t.Fatalf("entry[1].MDEntryPx = %v, want 100.5", e1.AsAtom().FloatValue())
	}
}
