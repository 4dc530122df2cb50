package message

import "testing"

func TestSetGet(t *testing.T) {
	m := New()
	m.Set(35, Atom(String("0")))

	v, ok := m.Get(35)
	if !ok {
		t.Fatal("expected tag 35 to be present")
	}
	if !v.IsAtom() || v.AsAtom().StringValue() != "0" {
		t.Fatalf("got %+v", v)
	}

	if _, ok := m.Get(999); ok {
		t.Fatal("expected tag 999 to be absent")
	}
}

func TestSetReplaces(t *testing.T) {
	m := New()
	m.Set(108, Atom(Int(30)))
	m.Set(108, Atom(Int(60)))

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	v, _ := m.Get(108)
	if v.AsAtom().IntValue() != 60 {
		t.Fatalf("got %d, want 60", v.AsAtom().IntValue())
	}
}

func TestIterPreservesInsertionOrder(t *testing.T) {
	m := New()
	m.Set(56, Atom(String("B")))
	m.Set(8, Atom(String("FIX.4.2")))
	m.Set(35, Atom(String("0")))

	var tags []uint32
	m.Iter(func(tag uint32, _ FieldValue) bool {
		tags = append(tags, tag)
		return true
	})

	want := []uint32{56, 8, 35}
	if len(tags) != len(want) {
		t.Fatalf("got %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("got %v, want %v", tags, want)
		}
	}
}

func TestIterStopsEarly(t *testing.T) {
	m := New()
	m.Set(1, Atom(Int(1)))
	m.Set(2, Atom(Int(2)))
	m.Set(3, Atom(Int(3)))

	count := 0
	m.Iter(func(tag uint32, _ FieldValue) bool {
		count++
		return tag != 2
	})
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestGroupValue(t *testing.T) {
	entry := New()
	entry.Set(269, Atom(String("0")))
	entry.Set(270, Atom(Float(100.5)))

	m := New()
	m.Set(268, Group([]*Message{entry}))

	v, ok := m.Get(268)
	if !ok || !v.IsGroup() {
		t.Fatalf("got %+v, %v", v, ok)
	}
	entries := v.AsGroup()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	sub, _ := entries[0].Get(269)
	if sub.AsAtom().StringValue() != "0" {
		t.Fatalf("got %q, want 0", sub.AsAtom().StringValue())
	}
}

func TestAtomicValueRaw(t *testing.T) {
	cases := []struct {
		v    AtomicValue
		want string
	}{
		{String("hello"), "hello"},
		{Int(42), "42"},
		{Bool(true), "Y"},
		{Bool(false), "N"},
	}
	for _, c := range cases {
		if got := c.v.Raw(); got != c.want {
			t.Errorf("Raw() = %q, want %q", got, c.want)
		}
	}
}
